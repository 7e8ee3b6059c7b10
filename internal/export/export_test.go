package export

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/rovshanmuradov/solana-devkit/internal/storage/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func generateTestOperations() []*models.Operation {
	now := time.Now()
	ops := []*models.Operation{
		{Kind: "airdrop", WalletAddress: "WalletAAAAAAAA", Amount: "2", Status: models.StatusConfirmed, Signature: "s1"},
		{Kind: "transfer", WalletAddress: "WalletAAAAAAAA", Counterparty: "WalletBBBBBBBB", Amount: "0.5", Status: models.StatusConfirmed, Signature: "s2"},
		{Kind: "transfer", WalletAddress: "WalletAAAAAAAA", Counterparty: "WalletBBBBBBBB", Amount: "3", Status: models.StatusFailed, ErrorMessage: "insufficient balance"},
		{Kind: "token.mint", WalletAddress: "WalletCCCCCCCC", Mint: "Mint1111", Amount: "100", Status: models.StatusConfirmed, Signature: "s4"},
		{Kind: "transfer", WalletAddress: "WalletCCCCCCCC", Counterparty: "WalletAAAAAAAA", Amount: "0.25", Status: models.StatusConfirmed, Signature: "s5"},
	}
	// Журнал отдает записи новыми первыми
	for i, op := range ops {
		op.ID = uint(i + 1)
		op.CreatedAt = now.Add(-time.Duration(len(ops)-i) * 10 * time.Minute)
	}
	for i, j := 0, len(ops)-1; i < j; i, j = i+1, j-1 {
		ops[i], ops[j] = ops[j], ops[i]
	}
	return ops
}

func TestExportCSV(t *testing.T) {
	exporter := NewOperationExporter(zap.NewNop())

	path, err := exporter.Export(generateTestOperations(), ExportOptions{Format: FormatCSV, OutputDir: t.TempDir()})
	require.NoError(t, err)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 6)
	assert.Equal(t, CSVHeaders(), rows[0])
	// Старые записи первыми
	assert.Equal(t, "airdrop", rows[1][2])
	assert.Equal(t, "insufficient balance", rows[3][11])
}

func TestExportJSONWithSummary(t *testing.T) {
	exporter := NewOperationExporter(zap.NewNop())

	path, err := exporter.Export(generateTestOperations(), ExportOptions{Format: FormatJSON, OutputDir: t.TempDir()})
	require.NoError(t, err)

	content, err := os.ReadFile(path)
	require.NoError(t, err)

	var data struct {
		OperationCount int           `json:"operation_count"`
		Summary        ExportSummary `json:"summary"`
	}
	require.NoError(t, json.Unmarshal(content, &data))
	assert.Equal(t, 5, data.OperationCount)
	assert.Equal(t, 4, data.Summary.Confirmed)
	assert.Equal(t, 1, data.Summary.Failed)
	assert.Equal(t, "0.75", data.Summary.SOLSent)
	assert.Equal(t, "2", data.Summary.SOLAirdropped)
	assert.Equal(t, 3, data.Summary.ByKind["transfer"])
}

func TestExportFilters(t *testing.T) {
	exporter := NewOperationExporter(zap.NewNop())
	ops := generateTestOperations()

	tests := []struct {
		name    string
		options ExportOptions
		want    int
	}{
		{name: "kind", options: ExportOptions{KindFilter: "transfer"}, want: 3},
		{name: "wallet", options: ExportOptions{WalletFilter: "WalletCCCCCCCC"}, want: 2},
		{name: "only confirmed", options: ExportOptions{OnlyConfirmed: true}, want: 4},
		{name: "time window", options: ExportOptions{StartTime: time.Now().Add(-25 * time.Minute)}, want: 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Len(t, exporter.filter(ops, tt.options), tt.want)
		})
	}

	_, err := exporter.Export(ops, ExportOptions{Format: FormatCSV, KindFilter: "nft.create", OutputDir: t.TempDir()})
	assert.ErrorContains(t, err, "no operations match")
}

func TestFilenameGeneration(t *testing.T) {
	exporter := NewOperationExporter(zap.NewNop())

	tests := []struct {
		options  ExportOptions
		expected string
	}{
		{options: ExportOptions{Format: FormatCSV}, expected: "operations_all"},
		{options: ExportOptions{Format: FormatJSON, KindFilter: "token.mint"}, expected: "operations_token_mint"},
		{options: ExportOptions{Format: FormatCSV, KindFilter: "transfer", WalletFilter: "WalletAAAAAAAA"}, expected: "operations_transfer_WalletAA"},
	}
	for _, tt := range tests {
		filename := exporter.generateFilename(tt.options)
		assert.True(t, strings.HasPrefix(filename, tt.expected), filename)
		assert.True(t, strings.HasSuffix(filename, "."+string(tt.options.Format)), filename)
	}
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("json")
	require.NoError(t, err)
	assert.Equal(t, FormatJSON, f)

	_, err = ParseFormat("xml")
	assert.Error(t, err)
}
