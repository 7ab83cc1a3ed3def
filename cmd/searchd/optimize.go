package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/searchd/internal/repository/segment"
)

func newOptimizeCmd() *cobra.Command {
	var from, to int
	cmd := &cobra.Command{
		Use:   "optimize INDEX",
		Short: "Merge the disk chunks of an index offline",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, env, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			logger, err := newLogger(env, cfg)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			idx, err := segment.Open(args[0], filepath.Join(cfg.Optimize.DataDir, args[0]), segment.Options{
				Access: cfg.Access(),
				Logger: logger,
			})
			if err != nil {
				return err
			}
			defer func() { _ = idx.Close() }()

			before := idx.Chunks()
			idx.Lock()
			err = idx.Optimize(context.Background(), from, to)
			idx.Unlock()
			if err != nil {
				return err
			}
			logger.Info("optimize done", zap.Ints("before", before), zap.Ints("after", idx.Chunks()))
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s: %d -> %d chunks\n", idx.Name(), len(before), len(idx.Chunks()))
			return err
		},
	}
	cmd.Flags().IntVar(&from, "from", -1, "first chunk id (-1 for the first chunk)")
	cmd.Flags().IntVar(&to, "to", -1, "last chunk id (-1 for the last chunk)")
	return cmd
}
