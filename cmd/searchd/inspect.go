package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/searchd/internal/datareader"
)

type inspectReport struct {
	File   string   `json:"file"`
	Kind   string   `json:"kind"`
	Access string   `json:"access"`
	Size   int64    `json:"size"`
	Offset int64    `json:"offset"`
	Rows   int      `json:"rows"`
	Unique uint64   `json:"unique"`
	First  []uint32 `json:"first,omitempty"`
}

func newInspectCmd() *cobra.Command {
	var (
		kind, access string
		offset       int64
		count, show  int
	)
	cmd := &cobra.Command{
		Use:   "inspect FILE",
		Short: "Decode a doclist from an index file",
		Long: "Decode a delta-coded doclist from an index file. With --count omitted the " +
			"row count is read from a varint header, as in chunk files.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			k, err := datareader.ParseKind(kind)
			if err != nil {
				return err
			}
			a, err := datareader.ParseAccess(access)
			if err != nil {
				return err
			}

			f, err := datareader.NewReader(args[0], k, datareader.ReadNoSizeHint, a)
			if err != nil {
				return err
			}
			defer func() { _ = f.Close() }()

			f.SeekTo(offset)
			r := f.MakeReader(nil)
			if count < 0 {
				count = int(r.UnzipInt())
				if err := r.Err(); err != nil {
					return fmt.Errorf("read row count: %w", err)
				}
			}

			docs, err := datareader.DecodeDocList(r, count)
			if err != nil {
				return err
			}

			rep := inspectReport{
				File:   f.FileName(),
				Kind:   f.Kind().String(),
				Access: f.Access().String(),
				Size:   f.FileSize(),
				Offset: offset,
				Rows:   count,
				Unique: docs.GetCardinality(),
			}
			for it := docs.Iterator(); it.HasNext() && len(rep.First) < show; {
				rep.First = append(rep.First, it.Next())
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(rep)
		},
	}
	cmd.Flags().StringVar(&kind, "kind", "docs", "stream kind: docs or hits")
	cmd.Flags().StringVar(&access, "access", "file", "access mode: file, mmap, mmap_preread, mlock")
	cmd.Flags().Int64Var(&offset, "offset", 0, "byte offset of the doclist")
	cmd.Flags().IntVar(&count, "count", -1, "number of rows to decode (-1 reads a count header)")
	cmd.Flags().IntVar(&show, "show", 20, "number of row ids to print")
	return cmd
}
