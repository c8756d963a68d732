package cmd

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spf13/cobra"

	"github.com/deploymenttheory/go-rom-manager/internal/config"
	"github.com/deploymenttheory/go-rom-manager/internal/logger"
	"github.com/deploymenttheory/go-rom-manager/internal/report"
)

// Version is set at build time with -ldflags "-X .../cmd.Version=..."
var Version = "0.1.0"

var cfgFile string

// log is handed to the core packages; it is rebuilt once flags are parsed
var log = zap.NewNop()

// rootCmd represents the base CLI command
var rootCmd = &cobra.Command{
	Use:   "rom-manager",
	Short: "Audit and repair No-Intro style ROM collections",
	Long: `rom-manager checks directories of single-entry ZIP archives against
Logiqx XML DAT files. Every archive is hashed and classified as Good,
BadName, Unknown or Error, and every DAT entry without an archive is
reported as Missing. Misnamed archives and entries can be repaired in
place without touching the ROM data.

Collections (a DAT, a ROM directory and an optional header rule) are
defined in the configuration file.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// If config file was explicitly specified via flag, reload
		if cmd.Flags().Changed("config") && cfgFile != "" {
			if err := config.Reload(cfgFile); err != nil {
				return err
			}
		}

		// CLI flags can override config settings
		flags := cmd.Flags()
		if flags.Changed("debug") {
			config.Instance.Debug, _ = flags.GetBool("debug")
		}
		if flags.Changed("log-format") {
			config.Instance.LogFormat, _ = flags.GetString("log-format")
		}
		if flags.Changed("workers") {
			workers, _ := flags.GetInt("workers")
			config.Instance.Workers = config.ResolveWorkers(workers)
		}
		if flags.Changed("dry-run") {
			config.Instance.DryRun, _ = flags.GetBool("dry-run")
		}
		if err := config.Instance.Validate(); err != nil {
			return err
		}
		if noColor, _ := flags.GetBool("no-color"); noColor {
			report.SetColor(false)
		}

		l, err := logger.InitLogger(logger.LoggerConfig{
			Debug:     config.Instance.Debug,
			LogFormat: config.Instance.LogFormat,
			LogFile:   config.Instance.LogFile,
		})
		if err != nil {
			return err
		}
		log = l
		return nil
	},
}

// Execute runs the root command. Cancelling ctx aborts a running scan.
func Execute(ctx context.Context) error {
	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		logger.LogError("Command execution failed", err, nil)
	}
	return err
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is search in standard locations)")
	flags.BoolP("debug", "v", false, "Enable debug logging")
	flags.String("log-format", "human", "Log format: json or human")
	flags.Int("workers", 1, "Archives classified concurrently (0 for one per CPU)")
	flags.Bool("dry-run", false, "Print the operations without modifying any file")
	flags.Bool("no-color", false, "Disable colored output")

	rootCmd.AddCommand(versionCmd)
}

// versionCmd shows the application version
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "rom-manager v%s\n", Version)
	},
}
