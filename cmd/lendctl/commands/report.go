package commands

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/liblend/library-lending-go/lending"
	"github.com/liblend/library-lending-go/lending/export"
)

var (
	reportStartFlag  string
	reportEndFlag    string
	reportStatusFlag string
	reportFormatFlag string
	reportOutFlag    string
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Generate a borrow analytics report for a date range",
	RunE: func(cmd *cobra.Command, _ []string) error {
		period, err := lending.ParseReportPeriod(reportStartFlag, reportEndFlag)
		if err != nil {
			return err
		}

		store, closeStore, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer closeStore()

		filter := lending.BuildBorrowFilter()
		if reportStatusFlag != "" {
			filter.WithStatus(lending.BorrowStatus(strings.ToUpper(reportStatusFlag)))
		}

		report, err := store.GenerateReport(cmd.Context(), period, filter.Finalize())
		if err != nil {
			return err
		}

		out, closeOut, err := reportOutput(cmd)
		if err != nil {
			return err
		}
		defer closeOut()

		switch reportFormatFlag {
		case "json":
			return export.WriteJSON(out, report)
		case "csv":
			return export.WriteCSV(out, report)
		case "xlsx":
			return export.WriteXLSX(out, report)
		default:
			return fmt.Errorf("unsupported format: %s", reportFormatFlag)
		}
	},
}

func init() {
	reportCmd.Flags().StringVar(&reportStartFlag, "start", "", "period start date (YYYY-MM-DD)")
	reportCmd.Flags().StringVar(&reportEndFlag, "end", "", "period end date (YYYY-MM-DD)")
	reportCmd.Flags().StringVar(&reportStatusFlag, "status", "", "restrict to one borrow status")
	reportCmd.Flags().StringVar(&reportFormatFlag, "format", "json", "output format: json, csv or xlsx")
	reportCmd.Flags().StringVar(&reportOutFlag, "out", "", "output file (defaults to stdout)")

	rootCmd.AddCommand(reportCmd)
}

func reportOutput(cmd *cobra.Command) (io.Writer, func(), error) {
	if reportOutFlag == "" {
		return cmd.OutOrStdout(), func() {}, nil
	}

	file, err := os.Create(reportOutFlag)
	if err != nil {
		return nil, nil, err
	}

	return file, func() { _ = file.Close() }, nil
}
