package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/deploymenttheory/go-rom-manager/internal/config"
	"github.com/deploymenttheory/go-rom-manager/internal/repair"
	"github.com/deploymenttheory/go-rom-manager/internal/report"
	"github.com/deploymenttheory/go-rom-manager/internal/scanner"
	"github.com/deploymenttheory/go-rom-manager/pkg/tooling"
)

type fixFunc func(ctx context.Context, c *scanner.Collection, dryRun bool, log *zap.Logger) ([]repair.Result, error)

var fixCmd = &cobra.Command{
	Use:   "fix COLLECTION",
	Short: "Rename misnamed archives and entries of a collection",
	Long: `Scan the collection, repair every BadName set, then scan again and
save the result. Archives are renamed first; an entry with the wrong name
is rewritten through a temporary archive in the same directory. ROM data
is never modified. With --dry-run the operations are only printed.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runFix(cmd, args, tooling.Fix)
	},
}

var deleteUnknownCmd = &cobra.Command{
	Use:   "delete-unknown COLLECTION",
	Short: "Delete the archives of a collection whose ROM is not in the DAT",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runFix(cmd, args, tooling.RemoveUnknown)
	},
}

func runFix(cmd *cobra.Command, args []string, fix fixFunc) error {
	colls, err := selectCollections(args, false)
	if err != nil {
		return err
	}
	coll := colls[0]

	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	ctx := cmd.Context()
	before, err := scanCollection(ctx, st, coll)
	if err != nil {
		return err
	}

	dryRun := config.Instance.DryRun
	results, fixErr := fix(ctx, before, dryRun, log)
	writeResults(cmd.OutOrStdout(), results)

	if dryRun {
		return fixErr
	}

	after, err := scanAndSave(ctx, st, coll)
	if err != nil {
		return multierr.Append(fixErr, err)
	}
	report.WriteSummary(cmd.OutOrStdout(), coll.Name, after.Stats())
	return fixErr
}

func writeResults(w io.Writer, results []repair.Result) {
	prefix := ""
	if len(results) > 0 && results[0].DryRun {
		prefix = "[dry-run] "
	}
	for _, r := range results {
		switch {
		case r.Action == repair.ActionDeleted:
			fmt.Fprintf(w, "%sDeleting %q\n", prefix, r.Path)
		case r.ArchiveRenamed && r.EntryRenamed:
			fmt.Fprintf(w, "%sRenaming %q -> %q and its entry\n", prefix, r.Path, r.Target)
		case r.ArchiveRenamed:
			fmt.Fprintf(w, "%sRenaming %q -> %q\n", prefix, r.Path, r.Target)
		case r.EntryRenamed:
			fmt.Fprintf(w, "%sRenaming entry of %q\n", prefix, r.Target)
		case r.Action == repair.ActionSkipped:
			fmt.Fprintf(w, "Skipping %q: %s\n", r.Path, r.Reason)
		}
	}
	fmt.Fprintf(w, "\nProcessed %d sets.\n", len(results))
}

func init() {
	rootCmd.AddCommand(fixCmd)
	rootCmd.AddCommand(deleteUnknownCmd)
}
