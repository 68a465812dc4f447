// Package cti implements the CTI (Custom Tiled Image) container and codec:
// a lossless-or-bounded-lossy still-image format that partitions an image
// into independently compressed and checksummed square tiles so that large
// images can be randomly accessed and parallel-decoded.
package cti
