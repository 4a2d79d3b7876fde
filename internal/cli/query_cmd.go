package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kndndrj/bqrunner/adapters"
	"github.com/kndndrj/bqrunner/bqrunner"
	"github.com/kndndrj/bqrunner/config"
	"github.com/kndndrj/bqrunner/core"
	"github.com/kndndrj/bqrunner/core/format"
	"github.com/kndndrj/bqrunner/internal/observability"
)

func newQueryCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "query [sql]",
		Short: "Run a query and print the result",
		Long:  "Run a query and print the result. The query is read from stdin when omitted or \"-\".",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query, err := readQuery(cmd.InOrStdin(), args)
			if err != nil {
				return err
			}

			formatter, err := newFormatter(opts.output)
			if err != nil {
				return err
			}

			connection, logger, err := connect(cmd, opts)
			if err != nil {
				return err
			}
			defer connection.Close()

			logger = logger.With(
				slog.String("connection", string(connection.GetID())),
				slog.String("connection_name", connection.GetName()),
				slog.String("connection_type", connection.GetType()))

			call := connection.Execute(query, func(state core.CallState, c *core.Call) {
				logger.Debug("call state changed",
					slog.String("call_id", string(c.GetID())),
					slog.String("state", state.String()))
			})

			select {
			case <-call.Done():
			case <-cmd.Context().Done():
				call.Cancel()
				<-call.Done()
			}

			if err := call.Err(); err != nil {
				logger.Debug("query failed", slog.Any("call", call))
				return err
			}

			result, err := call.GetResult()
			if err != nil {
				return err
			}
			logger.Info("query finished", slog.Any("call", call))

			out, err := result.Format(formatter)
			if err != nil {
				return fmt.Errorf("result.Format: %w", err)
			}

			w := cmd.OutOrStdout()
			if _, err := w.Write(out); err != nil {
				return err
			}
			if len(out) > 0 && out[len(out)-1] != '\n' {
				_, _ = io.WriteString(w, "\n")
			}
			return nil
		},
	}
}

func readQuery(stdin io.Reader, args []string) (string, error) {
	if len(args) == 1 && args[0] != "-" {
		return args[0], nil
	}

	raw, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("read query: %w", err)
	}

	query := strings.TrimSpace(string(raw))
	if query == "" {
		return "", bqrunner.ErrEmptyQuery
	}
	return query, nil
}

func newFormatter(output string) (core.Formatter, error) {
	switch output {
	case "table":
		return format.NewTable(), nil
	case "json":
		return format.NewJSON(), nil
	case "csv":
		return format.NewCSV(), nil
	default:
		return nil, fmt.Errorf("unsupported output format: %q", output)
	}
}

// connect opens the connection either from --url or from the loaded config.
func connect(cmd *cobra.Command, opts *rootOptions) (*core.Connection, *slog.Logger, error) {
	if opts.url != "" {
		logger, err := newLogger(cmd, opts, config.Default().Log)
		if err != nil {
			return nil, nil, err
		}

		connection, err := adapters.NewConnection(core.ConnectionParams{
			Name: "url",
			Type: opts.typ,
			URL:  opts.url,
		})
		if err != nil {
			return nil, nil, err
		}
		return connection, logger, nil
	}

	cfg, err := loadConfig(opts.configFile)
	if err != nil {
		return nil, nil, err
	}

	logger, err := newLogger(cmd, opts, cfg.Log)
	if err != nil {
		return nil, nil, err
	}

	connection, err := core.NewConnection(core.ConnectionParams{
		Name: "config",
		Type: "bigquery",
	}, adapters.FromConfig(cfg, bqrunner.WithLogger(logger)))
	if err != nil {
		return nil, nil, err
	}
	return connection, logger, nil
}

func loadConfig(path string) (config.Config, error) {
	if path == "" {
		return config.LoadFromEnv()
	}
	return config.LoadFile(path, os.LookupEnv)
}

// newLogger builds the logger from the config, flags win when set. It also
// becomes the default logger, which adapters opened from a url use.
func newLogger(cmd *cobra.Command, opts *rootOptions, logCfg config.LogConfig) (*slog.Logger, error) {
	flags := cmd.Flags()
	if flags.Changed("log-level") {
		logCfg.Level = opts.logLevel
	}
	if flags.Changed("log-json") {
		logCfg.JSON = opts.logJSON
	}

	cfg := config.Default()
	cfg.Log = logCfg
	level, err := cfg.LogLevel()
	if err != nil {
		return nil, err
	}

	logger := observability.NewLogger(cmd.ErrOrStderr(), level, logCfg.JSON)
	slog.SetDefault(logger)
	return logger, nil
}
