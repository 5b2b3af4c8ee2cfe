package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/mediaops/intake-cli/internal/report"
)

var reportsJSON bool

var reportsCmd = &cobra.Command{
	Use:   "reports",
	Short: "Show booking analytics",
	Long:  "Totals, status distribution, monthly performance over the last six months, and the top five clients by revenue.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		svc := report.NewService(st)
		r, err := svc.Build(ctx)
		if err != nil {
			return err
		}

		if reportsJSON {
			return printOut(r, "json")
		}
		return svc.Render(os.Stdout, r)
	},
}

func init() {
	reportsCmd.Flags().BoolVar(&reportsJSON, "json", false, "emit the raw report as JSON")
	rootCmd.AddCommand(reportsCmd)
}
