package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/deploymenttheory/go-rom-manager/internal/report"
	"github.com/deploymenttheory/go-rom-manager/internal/romset"
	compression "github.com/deploymenttheory/go-rom-manager/internal/utils/compressionutil"
)

var listCmd = &cobra.Command{
	Use:   "list COLLECTION",
	Short: "List the saved sets of a collection",
	Long: `List the sets saved by the last scan. Every ROM of a set is printed
below it; misnamed ROMs show their canonical name after an arrow. Error
sets that are readable archives list their stored entries.

Use --issues for every set that is not Good, or --status one or more
times to pick statuses (good, badname, missing, unknown, error).`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		issues, _ := cmd.Flags().GetBool("issues")
		names, _ := cmd.Flags().GetStringSlice("status")

		var statuses []romset.SetStatus
		for _, name := range names {
			s, err := romset.ParseSetStatus(name)
			if err != nil {
				return err
			}
			statuses = append(statuses, s)
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

		sets := saved.Sets
		switch {
		case len(statuses) > 0:
			sets = saved.Filter(statuses...)
		case issues:
			sets = saved.Issues()
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "\n=== Scanner long list ===")
		n := report.WriteSets(out, sets, compression.ListZIP)
		fmt.Fprintf(out, "\nListed %d items.\n", n)
		return nil
	},
}

func init() {
	listCmd.Flags().Bool("issues", false, "Only list sets that are not Good")
	listCmd.Flags().StringSlice("status", nil, "Only list sets with this status (repeatable)")
	rootCmd.AddCommand(listCmd)
}
