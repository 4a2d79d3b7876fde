package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
)

// Execute runs the root command and returns the process exit code.
func Execute(ctx context.Context) int {
	rootCmd := newRootCmd()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

type rootOptions struct {
	configFile string
	output     string
	url        string
	typ        string
	logLevel   string
	logJSON    bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:           "bqrun",
		Short:         "Run SQL on BigQuery",
		Long:          "Submit a query as a BigQuery job, wait for it to finish and print the result.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&opts.configFile, "config", "c", "", "yaml config file, BQRUNNER_* variables override it")
	flags.StringVarP(&opts.output, "output", "o", "table", "output format: table, json or csv")
	flags.StringVar(&opts.url, "url", "", "connection url, e.g. bigquery://project?json-key-file=...; replaces the config")
	flags.StringVar(&opts.typ, "type", "bigquery", "adapter used with --url: bigquery or bigquery_gce")
	flags.StringVar(&opts.logLevel, "log-level", "", "log level, defaults to the configured one")
	flags.BoolVar(&opts.logJSON, "log-json", false, "log in json")

	rootCmd.AddCommand(
		newQueryCmd(opts),
		newVersionCmd(),
	)

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the CLI version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "bqrun version %s (commit: %s)\n", version, commit)
			return nil
		},
	}
}
