package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"cti"
	"cti/ctierr"
	"cti/ingest"
)

func newEncodeCmd(ctx context.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "encode <in_path> <out_path>",
		Short: "encode a TIFF image into a CTI file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) != 2 {
				return fmt.Errorf("%w: encode takes exactly 2 arguments, got %d", ctierr.ErrUsage, len(args))
			}
			return runEncode(ctx, cmd, args[0], args[1])
		},
	}

	flags := cmd.Flags()
	flags.Uint32("tile-size", 256, "tile edge length in pixels")
	flags.String("compression", "none", "compressor: none, rle, lz77, delta-rle, predictive-rle, zstd, lz4")
	flags.Uint8("quality", 0, "quality 0..100 (meaning is compressor-dependent)")
	flags.Bool("rct", false, "apply the reversible color transform (RGB8/RGB16 only)")
	flags.Bool("ndk", false, "NDK archival preset: zstd, quality 70, rct, 512px tiles")
	flags.Float32Slice("dpi", nil, "DPI as X,Y")
	flags.String("icc", "", "path to an ICC profile blob to embed")
	return cmd
}

func runEncode(ctx context.Context, cmd *cobra.Command, inPath, outPath string) error {
	start := time.Now()
	flags := cmd.Flags()

	params := cti.DefaultEncodeParams()
	if ndk, _ := flags.GetBool("ndk"); ndk {
		params = cti.NDKPreset()
	}
	if flags.Changed("tile-size") {
		v, _ := flags.GetUint32("tile-size")
		params.TileSize = v
	}
	if flags.Changed("compression") {
		s, _ := flags.GetString("compression")
		kind, err := parseCompression(s)
		if err != nil {
			return err
		}
		params.Compression = kind
	}
	if flags.Changed("quality") {
		v, _ := flags.GetUint8("quality")
		params.Quality = v
	}
	if flags.Changed("rct") {
		v, _ := flags.GetBool("rct")
		params.RCTEnabled = v
	}
	if flags.Changed("dpi") {
		v, _ := flags.GetFloat32Slice("dpi")
		if len(v) != 2 {
			return fmt.Errorf("%w: --dpi takes exactly two values X,Y", ctierr.ErrUsage)
		}
		params.DPI = &cti.DPI{X: v[0], Y: v[1]}
	}
	if flags.Changed("icc") {
		iccPath, _ := flags.GetString("icc")
		blob, err := os.ReadFile(iccPath)
		if err != nil {
			return fmt.Errorf("%w: read icc profile: %v", ctierr.ErrIO, err)
		}
		params.ICC = blob
	}

	in, err := os.Open(inPath)
	if err != nil {
		return fmt.Errorf("%w: %v", ctierr.ErrIO, err)
	}
	defer in.Close()

	img, dpi, icc, err := ingest.FromTIFF(in)
	if err != nil {
		return err
	}
	if params.DPI == nil {
		params.DPI = dpi
	}
	if params.ICC == nil {
		params.ICC = icc
	}

	out, err := cti.EncodeContext(ctx, img, params)
	if err != nil {
		return err
	}

	if err := os.WriteFile(outPath, out, 0o644); err != nil {
		return fmt.Errorf("%w: %v", ctierr.ErrIO, err)
	}

	slog.Info("encoded", "in", inPath, "out", outPath, "bytes", len(out),
		"tile_size", params.TileSize, "compression", params.Compression, "elapsed", time.Since(start))
	return nil
}
