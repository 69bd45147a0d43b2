package cmd

import (
	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/OpenTraceONIX/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration",
	Long: `Print the configuration after layering defaults, the configuration file,
ONIX_* environment variables and flags. The output is valid onix.yml.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		return config.Dump(out(cmd), c)
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	addProbeFlags(configCmd.Flags())
	addBusFlags(configCmd.Flags())
}
