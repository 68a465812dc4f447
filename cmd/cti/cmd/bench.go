package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"cti"
	"cti/ctierr"
	"cti/ingest"
)

func newBenchCmd(ctx context.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bench {encode|decode} <path>",
		Short: "repeat an encode or decode loop and report timing",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) != 2 {
				return fmt.Errorf("%w: bench takes exactly 2 arguments, got %d", ctierr.ErrUsage, len(args))
			}
			mode, path := args[0], args[1]
			switch mode {
			case "encode":
				return runBenchEncode(ctx, cmd, path)
			case "decode":
				return runBenchDecode(ctx, cmd, path)
			default:
				return fmt.Errorf("%w: bench mode must be encode or decode, got %q", ctierr.ErrUsage, mode)
			}
		},
	}
	cmd.Flags().Int("repeat", 10, "number of iterations")
	cmd.Flags().Uint32("tile-size", 256, "tile edge length in pixels (encode mode)")
	cmd.Flags().String("compression", "none", "compressor (encode mode)")
	cmd.Flags().Uint8("quality", 0, "quality 0..100 (encode mode)")
	cmd.Flags().Bool("rct", false, "apply the reversible color transform (encode mode)")
	cmd.Flags().Bool("ndk", false, "NDK archival preset (encode mode)")
	return cmd
}

func runBenchEncode(ctx context.Context, cmd *cobra.Command, path string) error {
	flags := cmd.Flags()
	repeat, _ := flags.GetInt("repeat")

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("%w: %v", ctierr.ErrIO, err)
	}
	img, _, _, err := ingest.FromTIFF(f)
	f.Close()
	if err != nil {
		return err
	}

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

	bpp, err := img.ColorType.BytesPerPixel()
	if err != nil {
		return fmt.Errorf("%w: %v", ctierr.ErrUsage, err)
	}
	rawBytes := float64(img.Width) * float64(img.Height) * float64(bpp)

	var total time.Duration
	best := time.Duration(1<<63 - 1)
	var lastSize int
	for i := 0; i < repeat; i++ {
		start := time.Now()
		out, err := cti.EncodeContext(ctx, img, params)
		if err != nil {
			return err
		}
		elapsed := time.Since(start)
		if elapsed < best {
			best = elapsed
		}
		total += elapsed
		lastSize = len(out)
	}
	avg := total / time.Duration(repeat)

	fmt.Fprintf(cmd.OutOrStdout(), "encode: %d iterations, output %d bytes\n", repeat, lastSize)
	fmt.Fprintf(cmd.OutOrStdout(), "Time (best/avg): %.1f ms / %.1f ms\n", msOf(best), msOf(avg))
	fmt.Fprintf(cmd.OutOrStdout(), "Throughput (best/avg vs raw): %.1f MB/s / %.1f MB/s\n", throughputMBs(rawBytes, best), throughputMBs(rawBytes, avg))
	return nil
}

func runBenchDecode(ctx context.Context, cmd *cobra.Command, path string) error {
	repeat, _ := cmd.Flags().GetInt("repeat")

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%w: %v", ctierr.ErrIO, err)
	}

	var total time.Duration
	best := time.Duration(1<<63 - 1)
	var rawBytes float64
	for i := 0; i < repeat; i++ {
		start := time.Now()
		result, err := cti.DecodeContext(ctx, data)
		if err != nil {
			return err
		}
		elapsed := time.Since(start)
		if elapsed < best {
			best = elapsed
		}
		total += elapsed
		rawBytes = float64(len(result.Image.Pixels))
	}
	avg := total / time.Duration(repeat)

	fmt.Fprintf(cmd.OutOrStdout(), "decode: %d iterations, raw %.2f MiB\n", repeat, rawBytes/(1024*1024))
	fmt.Fprintf(cmd.OutOrStdout(), "Time (best/avg): %.1f ms / %.1f ms\n", msOf(best), msOf(avg))
	fmt.Fprintf(cmd.OutOrStdout(), "Throughput (best/avg vs raw): %.1f MB/s / %.1f MB/s\n", throughputMBs(rawBytes, best), throughputMBs(rawBytes, avg))
	return nil
}

func msOf(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

func throughputMBs(rawBytes float64, elapsed time.Duration) float64 {
	mb := rawBytes / (1024 * 1024)
	return mb / elapsed.Seconds()
}
