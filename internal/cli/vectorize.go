package cli

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/tracevec/tracevec/pkg/observability"
	"github.com/tracevec/tracevec/pkg/vectorize"
)

// maxParallelImages bounds how many images are vectorized concurrently.
const maxParallelImages = 4

// vectorizeCommand creates the vectorize command.
func (c *CLI) vectorizeCommand() *cobra.Command {
	var (
		output      string
		stream      bool
		base64Stdin bool
		ext         string
	)
	opts := c.Config.Vectorize

	cmd := &cobra.Command{
		Use:   "vectorize [image...]",
		Short: "Convert raster images into a vector line sequence",
		Long: `Convert raster images into a vector line sequence.

The vectorize command decodes each image (PNG, baseline JPEG, or PNM) with
the built-in decoders, extracts contours, simplifies them, and writes a
JSON command sequence: one layer-creation step followed by batched
line-drawing steps in destination coordinates.

Given a directory, an interactive picker lists the decodable images in it.
Given multiple files, they are processed concurrently and each result is
written next to its input as <name>.json.

With --base64, a single base64-encoded image (optionally with a data: URI
prefix) is read from stdin; --ext must name its format.`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if base64Stdin {
				if len(args) != 0 {
					return fmt.Errorf("--base64 reads from stdin and takes no arguments")
				}
				if ext == "" {
					return fmt.Errorf("--base64 requires --ext")
				}
				return c.runVectorizeBase64(cmd.Context(), cmd.InOrStdin(), ext, opts, output, stream)
			}

			switch len(args) {
			case 0:
				return fmt.Errorf("no input image given")
			case 1:
				path := args[0]
				if info, err := os.Stat(path); err == nil && info.IsDir() {
					picked, err := pickImage(path)
					if err != nil {
						return err
					}
					if picked == "" {
						return nil
					}
					path = picked
				}
				return c.runVectorizeFile(cmd.Context(), path, opts, output, stream, true)
			default:
				if output != "" {
					return fmt.Errorf("--output is only valid with a single input")
				}
				if stream {
					return fmt.Errorf("--stream is only valid with a single input")
				}
				return c.runVectorizeAll(cmd.Context(), args, opts)
			}
		},
	}

	// Common flags
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: stdout)")
	cmd.Flags().BoolVar(&stream, "stream", false, "stream steps as NDJSON instead of one JSON document")
	cmd.Flags().BoolVar(&base64Stdin, "base64", false, "read a base64-encoded image from stdin")
	cmd.Flags().StringVar(&ext, "ext", "", "image format for --base64 (png, jpg, ppm, ...)")

	// Pipeline flags
	cmd.Flags().StringVar(&opts.Mode, "mode", opts.Mode, "preprocessing mode: binary (default), edge, edge_simple")
	cmd.Flags().IntVar(&opts.Threshold, "threshold", opts.Threshold, "binarization threshold (0-255)")
	cmd.Flags().Float64Var(&opts.EdgeThreshold, "edge-threshold", opts.EdgeThreshold, "edge detection threshold (0 = per-mode default)")
	cmd.Flags().Float64Var(&opts.Epsilon, "epsilon", opts.Epsilon, "simplification tolerance")
	cmd.Flags().IntVar(&opts.MinLength, "min-length", opts.MinLength, "minimum contour point count")
	cmd.Flags().IntVar(&opts.MinArea, "min-area", opts.MinArea, "minimum connected component area in pixels")
	cmd.Flags().StringVar(&opts.Layer, "layer", opts.Layer, "output layer name")

	// Destination rectangle flags
	cmd.Flags().Float64Var(&opts.Dest.X, "dest-x", opts.Dest.X, "destination rectangle left edge")
	cmd.Flags().Float64Var(&opts.Dest.Y, "dest-y", opts.Dest.Y, "destination rectangle bottom edge")
	cmd.Flags().Float64Var(&opts.Dest.Width, "dest-width", opts.Dest.Width, "destination rectangle width (0 = source pixels)")
	cmd.Flags().Float64Var(&opts.Dest.Height, "dest-height", opts.Dest.Height, "destination rectangle height (0 = source pixels)")

	return cmd
}

// runVectorizeFile vectorizes one image file.
func (c *CLI) runVectorizeFile(ctx context.Context, path string, opts vectorize.Options, output string, stream, trackStages bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read image %s: %w", path, err)
	}
	return c.vectorizeOne(ctx, path, data, filepath.Ext(path), opts, output, stream, trackStages)
}

// runVectorizeBase64 vectorizes a base64-encoded image read from r.
func (c *CLI) runVectorizeBase64(ctx context.Context, r io.Reader, ext string, opts vectorize.Options, output string, stream bool) error {
	raw, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("read stdin: %w", err)
	}

	encoded := strings.TrimSpace(string(raw))
	// data:image/png;base64,<payload>
	if _, payload, found := strings.Cut(encoded, ","); found {
		encoded = payload
	}
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return fmt.Errorf("decode base64 image: %w", err)
	}
	return c.vectorizeOne(ctx, "stdin", data, ext, opts, output, stream, true)
}

// runVectorizeAll vectorizes multiple files concurrently, writing each
// sequence next to its input. Stage tracking stays off: concurrent runs
// would fight over one status line.
func (c *CLI) runVectorizeAll(ctx context.Context, paths []string, opts vectorize.Options) error {
	prog := newProgress(c.Logger)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelImages)

	for _, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			out := strings.TrimSuffix(path, filepath.Ext(path)) + ".json"
			return c.runVectorizeFile(ctx, path, opts, out, false, false)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	prog.done(fmt.Sprintf("Vectorized %d images", len(paths)))
	return nil
}

// vectorizeOne runs the pipeline for one image and writes its sequence.
// With trackStages the spinner joins the pipeline hooks for the duration
// of the run, so its message follows the executing stage.
func (c *CLI) vectorizeOne(ctx context.Context, name string, data []byte, ext string, opts vectorize.Options, output string, stream, trackStages bool) error {
	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Vectorizing %s...", name))
	if trackStages {
		prev := observability.Pipeline()
		observability.SetPipelineHooks(observability.Fanout(spinner, prev))
		defer observability.SetPipelineHooks(prev)
	}
	spinner.Start()

	res, err := vectorize.Vectorize(data, ext, opts)
	if err != nil {
		spinner.StopWithError(fmt.Sprintf("Vectorization of %s failed", name))
		return fmt.Errorf("vectorize %s: %w", name, err)
	}
	seq := vectorize.BuildSequence(res.Lines, opts.Layer, vectorize.DefaultSequenceBatchSize)
	spinner.Stop()

	if err := writeSequence(seq, output, stream); err != nil {
		return err
	}

	printSuccess("Vectorized %s (%dx%d)", name, res.Width, res.Height)
	printTraceStats(res.Components, len(res.Contours), len(res.Lines), res.Partial)
	if res.Partial {
		printWarning("decode stopped early: %s", res.PartialReason)
	}
	if output != "" {
		printFile(output)
	}
	return nil
}

// writeSequence writes seq to output (or stdout) as indented JSON, or as
// NDJSON when streaming.
func writeSequence(seq *vectorize.Sequence, output string, stream bool) error {
	var w io.Writer = os.Stdout
	if output != "" {
		f, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("create output %s: %w", output, err)
		}
		defer f.Close()
		w = f
	}

	if stream {
		return vectorize.WriteSequence(w, seq)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(seq)
}
