// internal/storage/models/operation.go
package models

const (
	StatusConfirmed = "confirmed"
	StatusFailed    = "failed"
)

// Operation запись журнала: одна транзакция, отправленная инструментами.
type Operation struct {
	BaseModel
	Signature     string  `gorm:"index;type:varchar(88)"`
	Kind          string  `gorm:"index;not null;type:varchar(40)"`
	WalletAddress string  `gorm:"index;not null;type:varchar(44)"`
	Counterparty  string  `gorm:"type:varchar(44)"`
	Mint          string  `gorm:"type:varchar(44)"`
	Amount        string  `gorm:"type:varchar(40)"`
	Cluster       string  `gorm:"type:varchar(20)"`
	Status        string  `gorm:"index;not null;type:varchar(20)"`
	ErrorMessage  string  `gorm:"type:text"`
	ExecutionTime float64 `gorm:"type:decimal(10,3)"` // секунды
}
