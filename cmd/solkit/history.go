package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/rovshanmuradov/solana-devkit/internal/export"
	"github.com/rovshanmuradov/solana-devkit/internal/storage"
	"github.com/rovshanmuradov/solana-devkit/internal/storage/models"
	"github.com/spf13/cobra"
)

var (
	historyKind      string
	historyWallet    string
	historyStatus    string
	historyLimit     int
	historyFormat    string
	historySince     string
	historyUntil     string
	historyConfirmed bool
	historyOut       string
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect and export the operation journal",
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List journaled operations, newest first",
	Args:  cobra.NoArgs,
	RunE:  runHistoryList,
}

var historyExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export journaled operations to CSV or JSON",
	Args:  cobra.NoArgs,
	RunE:  runHistoryExport,
}

func init() {
	for _, c := range []*cobra.Command{historyListCmd, historyExportCmd} {
		c.Flags().StringVar(&historyKind, "kind", "", "operation kind (airdrop, transfer, token.mint, ...)")
		c.Flags().StringVar(&historyWallet, "wallet", "", "wallet address")
		c.Flags().StringVar(&historySince, "since", "", "start time: duration (24h) or RFC3339")
	}
	historyListCmd.Flags().StringVar(&historyStatus, "status", "", "confirmed or failed")
	historyListCmd.Flags().IntVar(&historyLimit, "limit", 20, "maximum number of records")

	historyExportCmd.Flags().StringVar(&historyFormat, "format", string(export.FormatCSV), "csv or json")
	historyExportCmd.Flags().StringVar(&historyUntil, "until", "", "end time: duration (1h) or RFC3339")
	historyExportCmd.Flags().BoolVar(&historyConfirmed, "confirmed", false, "only confirmed operations")
	historyExportCmd.Flags().StringVar(&historyOut, "out", "", "output directory (default: export_dir from config)")

	historyCmd.AddCommand(historyListCmd, historyExportCmd)
	rootCmd.AddCommand(historyCmd)
}

func runHistoryList(cmd *cobra.Command, args []string) error {
	if err := validateStatus(historyStatus); err != nil {
		return err
	}
	a, err := loadApp()
	if err != nil {
		return err
	}
	since, err := parseSince(historySince, time.Now())
	if err != nil {
		return err
	}

	ops, err := a.Store.ListOperations(cmd.Context(), storage.Filter{
		Wallet: historyWallet,
		Kind:   historyKind,
		Status: historyStatus,
		Since:  since,
		Limit:  historyLimit,
	})
	if err != nil {
		return err
	}
	if len(ops) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No operations recorded")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tKIND\tSTATUS\tAMOUNT\tWALLET\tSIGNATURE")
	for _, op := range ops {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			op.CreatedAt.Local().Format(time.DateTime),
			op.Kind, op.Status, op.Amount, op.WalletAddress, op.Signature)
	}
	return w.Flush()
}

// validateStatus журнал хранит только итоговые статусы.
func validateStatus(status string) error {
	switch status {
	case "", models.StatusConfirmed, models.StatusFailed:
		return nil
	}
	return fmt.Errorf("invalid status %q: expected %s or %s", status, models.StatusConfirmed, models.StatusFailed)
}

func runHistoryExport(cmd *cobra.Command, args []string) error {
	a, err := loadApp()
	if err != nil {
		return err
	}
	format, err := export.ParseFormat(historyFormat)
	if err != nil {
		return err
	}
	now := time.Now()
	since, err := parseSince(historySince, now)
	if err != nil {
		return err
	}
	until, err := parseSince(historyUntil, now)
	if err != nil {
		return err
	}
	dir := historyOut
	if dir == "" {
		dir = a.Config.ExportDir
	}

	ops, err := a.Store.ListOperations(cmd.Context(), storage.Filter{
		Wallet: historyWallet,
		Kind:   historyKind,
		Since:  since,
	})
	if err != nil {
		return err
	}
	path, err := a.Exporter.Export(ops, export.ExportOptions{
		Format:        format,
		StartTime:     since,
		EndTime:       until,
		KindFilter:    historyKind,
		WalletFilter:  historyWallet,
		OnlyConfirmed: historyConfirmed,
		OutputDir:     dir,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Exported to %s\n", path)
	return nil
}
