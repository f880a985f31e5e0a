// Package pkg provides the core libraries for tracevec image vectorization.
//
// # Overview
//
// Tracevec converts raster images into vector line drawings. The pkg
// directory is organized into five areas:
//
//  1. [imaging] - Built-in image decoders (PNG, baseline JPEG, PNM)
//  2. [trace] - Raster-to-vector geometry (binarize, label, contour, simplify)
//  3. [vectorize] - Pipeline orchestration and sequence emission
//  4. [errors] - Typed error codes shared across the pipeline
//  5. [observability] - Pipeline event hooks
//
// # Architecture
//
// The typical data flow through tracevec:
//
//	PNG / JPEG / PNM bytes
//	         ↓
//	    [imaging] package (decode to grayscale)
//	         ↓
//	    [trace] package (binarize/edge → label → contour → simplify)
//	         ↓
//	    [vectorize] package (transform + line emission)
//	         ↓
//	    JSON command sequence
//
// # Quick Start
//
// Vectorize an image and build its command sequence:
//
//	import "github.com/tracevec/tracevec/pkg/vectorize"
//
//	res, err := vectorize.Vectorize(data, "png", vectorize.DefaultOptions())
//	if err != nil {
//	    return err
//	}
//	seq := vectorize.BuildSequence(res.Lines, "TRACE", vectorize.DefaultSequenceBatchSize)
//
// # Main Packages
//
// [imaging] - From-scratch decoders returning 8-bit grayscale grids. PNG
// (non-interlaced, zlib inflate via klauspost/compress), baseline JPEG
// (with partial recovery on truncated scan data), and PNM P1 through P6.
//
// [trace] - Geometry primitives and the tracing passes: thresholding and
// Sobel edge detection, 4-connected component labeling with minimum-area
// filtering, Moore-Neighbor contour tracing, and Douglas-Peucker
// simplification.
//
// [vectorize] - Options validation, pipeline orchestration, the uniform
// scale-and-flip destination transform, and batched create_layer /
// create_line sequence building.
//
// [errors] - Error codes (FORMAT_*, DECODE_*, INVALID_*) with wrapping
// helpers so callers can classify failures without string matching.
//
// [observability] - Hooks for decode, trace, and emit events. The pipeline
// packages never log; consumers register hooks at startup.
//
// [buildinfo] - Version and build metadata injected at link time.
//
// # Testing
//
// Run tests:
//
//	go test ./pkg/...            # All tests
//	go test ./pkg/trace/...      # Specific package
//	go test -run Example         # Examples only
//
// [imaging]: https://pkg.go.dev/github.com/tracevec/tracevec/pkg/imaging
// [trace]: https://pkg.go.dev/github.com/tracevec/tracevec/pkg/trace
// [vectorize]: https://pkg.go.dev/github.com/tracevec/tracevec/pkg/vectorize
// [errors]: https://pkg.go.dev/github.com/tracevec/tracevec/pkg/errors
// [observability]: https://pkg.go.dev/github.com/tracevec/tracevec/pkg/observability
// [buildinfo]: https://pkg.go.dev/github.com/tracevec/tracevec/pkg/buildinfo
package pkg
