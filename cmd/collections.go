package cmd

import (
	"github.com/spf13/cobra"

	"github.com/deploymenttheory/go-rom-manager/internal/config"
	"github.com/deploymenttheory/go-rom-manager/internal/report"
)

var collectionsCmd = &cobra.Command{
	Use:   "collections",
	Short: "List the collections in the configuration file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		rows := make([]report.CollectionRow, 0, len(config.Instance.Collections))
		for i := range config.Instance.Collections {
			c := &config.Instance.Collections[i]
			rows = append(rows, report.CollectionRow{
				Name:     c.Name,
				Platform: c.Platform,
				DAT:      config.Instance.DATPath(c),
				ROMDir:   c.ROMDir,
			})
		}
		return report.WriteCollections(cmd.OutOrStdout(), rows)
	},
}

func init() {
	rootCmd.AddCommand(collectionsCmd)
}
