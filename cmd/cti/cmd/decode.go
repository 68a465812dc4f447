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
	"cti/preview"
)

func newDecodeCmd(ctx context.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "decode <in_path> <out_raw_path>",
		Short: "decode a CTI file into a raw pixel buffer",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) != 2 {
				return fmt.Errorf("%w: decode takes exactly 2 arguments, got %d", ctierr.ErrUsage, len(args))
			}
			return runDecode(ctx, cmd, args[0], args[1])
		},
	}
	cmd.Flags().String("png-out", "", "also write a PNG preview to this path (8-bpc for 8-bit images, 16-bpc for L16/RGB16)")
	return cmd
}

func runDecode(ctx context.Context, cmd *cobra.Command, inPath, outPath string) error {
	start := time.Now()

	data, err := os.ReadFile(inPath)
	if err != nil {
		return fmt.Errorf("%w: %v", ctierr.ErrIO, err)
	}

	result, err := cti.DecodeContext(ctx, data)
	if err != nil {
		return err
	}

	if err := os.WriteFile(outPath, result.Image.Pixels, 0o644); err != nil {
		return fmt.Errorf("%w: %v", ctierr.ErrIO, err)
	}

	if pngOut, _ := cmd.Flags().GetString("png-out"); pngOut != "" {
		f, err := os.Create(pngOut)
		if err != nil {
			return fmt.Errorf("%w: %v", ctierr.ErrIO, err)
		}
		defer f.Close()
		if err := preview.WritePNG(f, result.Image); err != nil {
			return err
		}
	}

	slog.Info("decoded", "in", inPath, "out", outPath,
		"width", result.Image.Width, "height", result.Image.Height, "elapsed", time.Since(start))
	return nil
}
