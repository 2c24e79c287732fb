package docindex

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mwiater/docindex/internal/ingest"
)

// statusCmd prints the ingestion ledger without contacting any service.
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show what the ingestion ledger has recorded",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		ledger, err := ingest.LoadLedger(cfg.LedgerPath)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Ledger: %s\n", cfg.LedgerPath)
		if len(ledger.Files) == 0 {
			fmt.Fprintln(out, "No files have been indexed yet.")
			return nil
		}
		fmt.Fprintln(out, renderLedger(ledger))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
