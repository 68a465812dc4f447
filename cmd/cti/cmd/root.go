// Package cmd implements the cti command-line driver: encode, decode,
// info and bench subcommands over the cti codec library.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

// NewRoot builds the cti root command and its subcommand tree.
func NewRoot(ctx context.Context) *cobra.Command {
	root := &cobra.Command{
		Use:   "cti",
		Short: "encode, decode and inspect CTI tiled images",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level, _ := cmd.Flags().GetString("log-level")
			var lv slog.Level
			if err := lv.UnmarshalText([]byte(strings.ToUpper(level))); err != nil {
				lv = slog.LevelWarn
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lv})))
		},
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), cmd.UsageString())
		},
	}
	root.PersistentFlags().String("log-level", "WARN", "log level (DEBUG, INFO, WARN, ERROR)")

	root.AddCommand(
		newEncodeCmd(ctx),
		newDecodeCmd(ctx),
		newInfoCmd(ctx),
		newBenchCmd(ctx),
	)
	return root
}
