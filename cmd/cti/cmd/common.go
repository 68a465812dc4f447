package cmd

import (
	"fmt"
	"strings"

	"cti"
	"cti/ctierr"
)

func parseCompression(s string) (cti.CompressionKind, error) {
	switch strings.ToLower(s) {
	case "none":
		return cti.CompNone, nil
	case "rle":
		return cti.CompRLE, nil
	case "lz77":
		return cti.CompLZ77, nil
	case "deltarle", "delta-rle":
		return cti.CompDeltaRLE, nil
	case "predictiverle", "predictive-rle":
		return cti.CompPredictiveRLE, nil
	case "zstd":
		return cti.CompZstd, nil
	case "lz4":
		return cti.CompLZ4, nil
	default:
		return 0, fmt.Errorf("%w: unknown compression %q", ctierr.ErrUsage, s)
	}
}
