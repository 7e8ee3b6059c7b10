package logger

// Config параметры логгера CLI. Пустой LogFile отключает файловый вывод.
type Config struct {
	LogFile     string
	MaxSize     int // MB до ротации
	MaxAge      int // дни
	MaxBackups  int
	Compress    bool
	Development bool // debug уровень и dev-энкодер
	Quiet       bool // в консоль только warn и выше
}

// DefaultConfig: консоль тихая, подробности уходят в solkit.log.
func DefaultConfig() *Config {
	return &Config{
		LogFile:    "solkit.log",
		MaxSize:    20,
		MaxAge:     14,
		MaxBackups: 3,
		Compress:   true,
		Quiet:      true,
	}
}

// ForCLI строит конфигурацию из настроек log_file и debug_logging.
func ForCLI(logFile string, debug bool) *Config {
	cfg := DefaultConfig()
	cfg.LogFile = logFile
	cfg.Development = debug
	return cfg
}
