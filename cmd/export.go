package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/deploymenttheory/go-rom-manager/internal/logger"
	"github.com/deploymenttheory/go-rom-manager/internal/report"
	"github.com/deploymenttheory/go-rom-manager/internal/utils/errors"
)

var exportCmd = &cobra.Command{
	Use:   "export COLLECTION",
	Short: "Write the saved scan of a collection as JSON, YAML or plist",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		formatName, _ := cmd.Flags().GetString("format")
		output, _ := cmd.Flags().GetString("output")

		format, err := report.ParseFormat(formatName)
		if err != nil {
			return err
		}
		colls, err := selectCollections(args, false)
		if err != nil {
			return err
		}

		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		saved, err := st.LoadCollection(colls[0].Name)
		if err != nil {
			return err
		}

		var w io.Writer = cmd.OutOrStdout()
		if output != "" {
			f, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("%w: %s: %v", errors.ErrFileWriteError, output, err)
			}
			defer f.Close()
			w = f
		}

		if err := report.Export(w, saved, format); err != nil {
			return err
		}
		if output != "" {
			logger.LogInfo("Exported collection", map[string]interface{}{
				"collection": saved.Name,
				"format":     string(format),
				"path":       output,
			})
		}
		return nil
	},
}

func init() {
	exportCmd.Flags().StringP("format", "f", "json", "Export format: json, yaml or plist")
	exportCmd.Flags().StringP("output", "o", "", "Output file (default stdout)")
	rootCmd.AddCommand(exportCmd)
}
