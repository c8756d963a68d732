package cmd

import (
	stderrors "errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	"github.com/deploymenttheory/go-rom-manager/internal/logger"
	"github.com/deploymenttheory/go-rom-manager/internal/report"
	"github.com/deploymenttheory/go-rom-manager/internal/store"
	"github.com/deploymenttheory/go-rom-manager/internal/utils/errors"
)

var scanCmd = &cobra.Command{
	Use:   "scan [COLLECTION]",
	Short: "Scan the ROM directory of a collection and save the results",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		all, _ := cmd.Flags().GetBool("all")
		colls, err := selectCollections(args, all)
		if err != nil {
			return err
		}

		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		var errs error
		for _, coll := range colls {
			result, err := scanAndSave(cmd.Context(), st, coll)
			if err != nil {
				// one broken collection does not stop --all
				logger.LogError("Scan failed", err, map[string]interface{}{"collection": coll.Name})
				errs = multierr.Append(errs, fmt.Errorf("%s: %w", coll.Name, err))
				continue
			}
			report.WriteSummary(cmd.OutOrStdout(), coll.Name, result.Stats())
		}
		return errs
	},
}

var statusCmd = &cobra.Command{
	Use:   "status [COLLECTION]",
	Short: "Print the saved scan summary of a collection",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		all, _ := cmd.Flags().GetBool("all")
		colls, err := selectCollections(args, all)
		if err != nil {
			return err
		}

		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		if !all {
			saved, err := st.LoadCollection(colls[0].Name)
			if err != nil {
				if stderrors.Is(err, errors.ErrScanNotFound) {
					return fmt.Errorf("%w: run 'rom-manager scan %s' first", err, colls[0].Name)
				}
				return err
			}
			report.WriteSummary(cmd.OutOrStdout(), saved.Name, saved.Stats())
			return nil
		}

		summaries, err := st.ListCollections()
		if err != nil {
			return err
		}
		byName := make(map[string]store.Summary, len(summaries))
		for _, s := range summaries {
			byName[s.Name] = s
		}

		rows := make([]report.StatsRow, 0, len(colls))
		for _, coll := range colls {
			s := byName[coll.Name]
			rows = append(rows, report.StatsRow{Name: coll.Name, SavedAt: s.SavedAt, Stats: s.Stats})
		}
		return report.WriteStatsTable(cmd.OutOrStdout(), rows, time.Now())
	},
}

func init() {
	scanCmd.Flags().Bool("all", false, "Scan every configured collection")
	statusCmd.Flags().Bool("all", false, "Show every configured collection")

	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(statusCmd)
}
