package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/searchd/internal/config"
)

func newParseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "parse [query]",
		Short: "Parse a query and print the statements as JSON",
		Long:  "Parse a query and print the statements as JSON. The query is read from stdin when omitted.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var text string
			if len(args) == 1 {
				text = args[0]
			} else {
				data, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("read query: %w", err)
				}
				text = strings.TrimSpace(string(data))
			}

			// Parsing needs no data dir; only the query section matters.
			cfg := config.Config{}
			cfg.ApplyDefaults()
			cfg.Query.AllowDeprecated, _ = cmd.Flags().GetBool("allow-deprecated")

			stmts, err := newParser(cfg).Parse(text)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(stmts)
		},
	}
	cmd.Flags().Bool("allow-deprecated", false, "accept legacy @count/@weight identifiers")
	return cmd
}
