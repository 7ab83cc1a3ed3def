// Command searchd is the search daemon and its offline tooling.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/searchd/internal/config"
	logpkg "github.com/kailas-cloud/searchd/internal/logger"
	"github.com/kailas-cloud/searchd/internal/sphinxql"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "searchd",
		Short:         "Full-text search daemon",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().String("config", "", "config file (default config/$ENV.yaml)")

	root.AddCommand(
		newServeCmd(),
		newParseCmd(),
		newInspectCmd(),
		newOptimizeCmd(),
		newVersionCmd(),
	)
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "searchd:", err)
		os.Exit(1)
	}
}

// loadConfig honours --config, falling back to the ENV-selected file.
func loadConfig(cmd *cobra.Command) (config.Config, string, error) {
	env := config.GetEnv()
	path, _ := cmd.Flags().GetString("config")
	if path != "" {
		cfg, err := config.LoadFile(path)
		return cfg, env, err
	}
	cfg, err := config.Load(env)
	return cfg, env, err
}

func newLogger(env string, cfg config.Config) (*zap.Logger, error) {
	l, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}
	return l, nil
}

// newParser builds the parser from the query section.
func newParser(cfg config.Config) *sphinxql.Parser {
	plugins := sphinxql.NewStaticPlugins().
		Add(sphinxql.PluginRanker, cfg.Query.Plugins.Rankers...).
		Add(sphinxql.PluginTokenFilter, cfg.Query.Plugins.TokenFilters...)
	return sphinxql.New(sphinxql.Options{
		AgentQueryTimeout: cfg.Query.AgentQueryTimeoutMs,
		Collation:         cfg.Collation(),
		AllowDeprecated:   cfg.Query.AllowDeprecated,
		Plugins:           plugins,
	})
}
