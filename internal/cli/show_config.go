// internal/cli/show_config.go
package docindex

import (
	"github.com/k0kubun/pp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mwiater/docindex/internal/appconfig"
)

// showConfigCmd prints the merged configuration (defaults < file < env < flags).
var showConfigCmd = &cobra.Command{
	Use:   "config",
	Short: "Show config settings",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		appconfig.ShowConfig(out, viper.ConfigFileUsed(), GetConfig())
		if DebugEnabled() {
			pp.ColoringEnabled = false
			pp.Fprintln(out, GetConfig())
		}
	},
}

func init() {
	showCmd.AddCommand(showConfigCmd)
}
