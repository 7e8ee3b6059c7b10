package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	json "github.com/goccy/go-json"
	"github.com/rovshanmuradov/solana-devkit/internal/storage/models"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ExportFormat represents the export file format
type ExportFormat string

const (
	FormatCSV  ExportFormat = "csv"
	FormatJSON ExportFormat = "json"
)

// ParseFormat validates a user supplied format name.
func ParseFormat(s string) (ExportFormat, error) {
	switch ExportFormat(s) {
	case FormatCSV, FormatJSON:
		return ExportFormat(s), nil
	default:
		return "", fmt.Errorf("unsupported format: %s", s)
	}
}

// ExportOptions configures the export behavior
type ExportOptions struct {
	Format        ExportFormat
	StartTime     time.Time
	EndTime       time.Time
	KindFilter    string // airdrop, transfer, token.mint, ...
	WalletFilter  string
	OnlyConfirmed bool
	OutputDir     string
}

// OperationExporter writes journal records to CSV or JSON files.
type OperationExporter struct {
	logger *zap.Logger
}

// NewOperationExporter creates a new exporter
func NewOperationExporter(logger *zap.Logger) *OperationExporter {
	return &OperationExporter{logger: logger.Named("export")}
}

// Export filters, sorts (oldest first) and writes operations. Returns the file path.
func (e *OperationExporter) Export(ops []*models.Operation, options ExportOptions) (string, error) {
	filtered := e.filter(ops, options)
	if len(filtered) == 0 {
		return "", fmt.Errorf("no operations match the export criteria")
	}

	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].CreatedAt.Before(filtered[j].CreatedAt)
	})

	if err := os.MkdirAll(options.OutputDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	outputPath := filepath.Join(options.OutputDir, e.generateFilename(options))

	var err error
	switch options.Format {
	case FormatCSV:
		err = e.exportToCSV(filtered, outputPath)
	case FormatJSON:
		err = e.exportToJSON(filtered, outputPath)
	default:
		err = fmt.Errorf("unsupported format: %s", options.Format)
	}
	if err != nil {
		return "", err
	}

	e.logger.Info("Operations exported",
		zap.String("file", outputPath),
		zap.Int("count", len(filtered)),
		zap.String("format", string(options.Format)))

	return outputPath, nil
}

func (e *OperationExporter) filter(ops []*models.Operation, options ExportOptions) []*models.Operation {
	var filtered []*models.Operation
	for _, op := range ops {
		if !options.StartTime.IsZero() && op.CreatedAt.Before(options.StartTime) {
			continue
		}
		if !options.EndTime.IsZero() && op.CreatedAt.After(options.EndTime) {
			continue
		}
		if options.KindFilter != "" && op.Kind != options.KindFilter {
			continue
		}
		if options.WalletFilter != "" && op.WalletAddress != options.WalletFilter {
			continue
		}
		if options.OnlyConfirmed && op.Status != models.StatusConfirmed {
			continue
		}
		filtered = append(filtered, op)
	}
	return filtered
}

func (e *OperationExporter) generateFilename(options ExportOptions) string {
	timestamp := time.Now().Format("20060102_150405")

	prefix := "operations_all"
	if options.KindFilter != "" {
		prefix = "operations_" + sanitize(options.KindFilter)
	}
	if len(options.WalletFilter) >= 8 {
		prefix += "_" + options.WalletFilter[:8]
	}
	return fmt.Sprintf("%s_%s.%s", prefix, timestamp, options.Format)
}

func sanitize(s string) string {
	out := []byte(s)
	for i, c := range out {
		if c == '.' || c == '/' || c == ' ' {
			out[i] = '_'
		}
	}
	return string(out)
}

// CSVHeaders returns column names matching csvRow.
func CSVHeaders() []string {
	return []string{
		"id", "time", "kind", "status", "signature", "wallet",
		"counterparty", "mint", "amount", "cluster", "execution_sec", "error",
	}
}

func csvRow(op *models.Operation) []string {
	return []string{
		strconv.FormatUint(uint64(op.ID), 10),
		op.CreatedAt.UTC().Format(time.RFC3339),
		op.Kind,
		op.Status,
		op.Signature,
		op.WalletAddress,
		op.Counterparty,
		op.Mint,
		op.Amount,
		op.Cluster,
		strconv.FormatFloat(op.ExecutionTime, 'f', 3, 64),
		op.ErrorMessage,
	}
}

func (e *OperationExporter) exportToCSV(ops []*models.Operation, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write(CSVHeaders()); err != nil {
		return fmt.Errorf("failed to write CSV headers: %w", err)
	}
	for _, op := range ops {
		if err := writer.Write(csvRow(op)); err != nil {
			return fmt.Errorf("failed to write operation: %w", err)
		}
	}
	writer.Flush()
	return writer.Error()
}

func (e *OperationExporter) exportToJSON(ops []*models.Operation, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create JSON file: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")

	exportData := struct {
		ExportTime     time.Time           `json:"export_time"`
		OperationCount int                 `json:"operation_count"`
		Operations     []*models.Operation `json:"operations"`
		Summary        ExportSummary       `json:"summary"`
	}{
		ExportTime:     time.Now().UTC(),
		OperationCount: len(ops),
		Operations:     ops,
		Summary:        Summarize(ops),
	}

	if err := encoder.Encode(exportData); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}

// ExportSummary contains summary statistics for exported operations
type ExportSummary struct {
	TotalOperations int            `json:"total_operations"`
	Confirmed       int            `json:"confirmed"`
	Failed          int            `json:"failed"`
	ByKind          map[string]int `json:"by_kind"`
	SOLSent         string         `json:"sol_sent"`
	SOLAirdropped   string         `json:"sol_airdropped"`
	StartDate       time.Time      `json:"start_date"`
	EndDate         time.Time      `json:"end_date"`
}

// Summarize calculates statistics; ops must be sorted oldest first.
func Summarize(ops []*models.Operation) ExportSummary {
	summary := ExportSummary{
		TotalOperations: len(ops),
		ByKind:          make(map[string]int),
		SOLSent:         "0",
		SOLAirdropped:   "0",
	}
	if len(ops) == 0 {
		return summary
	}

	summary.StartDate = ops[0].CreatedAt
	summary.EndDate = ops[len(ops)-1].CreatedAt

	sent, airdropped := decimal.Zero, decimal.Zero
	for _, op := range ops {
		summary.ByKind[op.Kind]++
		if op.Status != models.StatusConfirmed {
			summary.Failed++
			continue
		}
		summary.Confirmed++

		amount, err := decimal.NewFromString(op.Amount)
		if err != nil {
			continue
		}
		switch op.Kind {
		case "transfer":
			sent = sent.Add(amount)
		case "airdrop":
			airdropped = airdropped.Add(amount)
		}
	}
	summary.SOLSent = sent.String()
	summary.SOLAirdropped = airdropped.String()
	return summary
}
