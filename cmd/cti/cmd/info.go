package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"cti"
	"cti/ctierr"
)

func newInfoCmd(ctx context.Context) *cobra.Command {
	return &cobra.Command{
		Use:   "info <in_path>",
		Short: "print a CTI file's header fields and index summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("%w: info takes exactly 1 argument, got %d", ctierr.ErrUsage, len(args))
			}
			return runInfo(cmd, args[0])
		},
	}
}

func runInfo(cmd *cobra.Command, inPath string) error {
	data, err := os.ReadFile(inPath)
	if err != nil {
		return fmt.Errorf("%w: %v", ctierr.ErrIO, err)
	}

	meta, err := cti.Info(data)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "version:      %d\n", meta.Version)
	fmt.Fprintf(out, "dimensions:   %dx%d\n", meta.Width, meta.Height)
	fmt.Fprintf(out, "color type:   %s\n", meta.ColorType)
	fmt.Fprintf(out, "tile size:    %d (%dx%d tiles)\n", meta.TileSize, meta.TilesX, meta.TilesY)
	fmt.Fprintf(out, "compression:  %s (quality %d)\n", meta.Compression, meta.Quality)
	fmt.Fprintf(out, "rct applied:  %v\n", meta.RCTApplied)
	fmt.Fprintf(out, "tile count:   %d\n", meta.Index.TileCount)
	if meta.Index.TileCount > 0 {
		fmt.Fprintf(out, "compressed:   min=%d avg=%.1f max=%d\n", meta.Index.MinCompressed, meta.Index.AvgCompressed, meta.Index.MaxCompressed)
	}
	for _, s := range meta.Sections {
		fmt.Fprintf(out, "section:      type=%#x offset=%d size=%d\n", s.Type, s.Offset, s.Size)
	}
	return nil
}
