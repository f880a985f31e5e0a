package vectorize

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/tracevec/tracevec/pkg/observability"
	"github.com/tracevec/tracevec/pkg/trace"
)

// layerColor is the color index assigned to created layers.
const layerColor = 7

// Coord is a rounded 2D coordinate in a drawing command.
type Coord struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// LayerArgs are the arguments of a create_layer command.
type LayerArgs struct {
	Name  string `json:"name"`
	Color int    `json:"color"`
}

// LineArgs are the arguments of a create_line command.
type LineArgs struct {
	Start Coord  `json:"start"`
	End   Coord  `json:"end"`
	Layer string `json:"layer"`
}

// ToolCall is one drawing command inside a step.
type ToolCall struct {
	Tool string `json:"tool"`
	Args any    `json:"args"`
	ID   string `json:"id,omitempty"`
}

// Step groups commands that the consumer may execute together. Steps are
// numbered from 1; Parallel marks steps whose commands are independent.
type Step struct {
	Step     int        `json:"step"`
	Name     string     `json:"name"`
	Parallel bool       `json:"parallel,omitempty"`
	Tools    []ToolCall `json:"tools"`
}

// Sequence is the grouped command representation of a vectorization
// result: a layer-creation step followed by batched line-drawing steps.
type Sequence struct {
	Success    bool   `json:"success"`
	TotalLines int    `json:"total_lines"`
	TotalSteps int    `json:"total_steps"`
	Sequence   []Step `json:"sequence"`
}

// BuildSequence converts lines into the command sequence consumed by
// drafting adapters.
//
// The first step creates the named layer; line commands follow in batches
// of batchSize (50 when batchSize is not positive), each marked parallel.
// Coordinates are rounded to two decimals and every line command carries
// a stable "line_<n>" id numbered across batches. Zero lines is valid and
// produces just the layer step. An empty layer name falls back to
// DefaultLayer, mirroring Options.
func BuildSequence(lines []trace.Line, layer string, batchSize int) *Sequence {
	if layer == "" {
		layer = DefaultLayer
	}

	hooks := observability.Pipeline()
	hooks.OnEmitStart(layer)
	start := time.Now()

	if batchSize <= 0 {
		batchSize = DefaultSequenceBatchSize
	}

	steps := []Step{{
		Step: 1,
		Name: "create layer",
		Tools: []ToolCall{{
			Tool: "create_layer",
			Args: LayerArgs{Name: layer, Color: layerColor},
		}},
	}}

	tools := make([]ToolCall, len(lines))
	for i, l := range lines {
		tools[i] = ToolCall{
			Tool: "create_line",
			Args: LineArgs{
				Start: Coord{X: round2(l.Start.X), Y: round2(l.Start.Y)},
				End:   Coord{X: round2(l.End.X), Y: round2(l.End.Y)},
				Layer: layer,
			},
			ID: fmt.Sprintf("line_%d", i),
		}
	}

	for off := 0; off < len(tools); off += batchSize {
		batch := tools[off:min(off+batchSize, len(tools))]
		steps = append(steps, Step{
			Step:     len(steps) + 1,
			Name:     fmt.Sprintf("draw lines (%d~%d)", off+1, off+len(batch)),
			Parallel: true,
			Tools:    batch,
		})
	}

	seq := &Sequence{
		Success:    true,
		TotalLines: len(lines),
		TotalSteps: len(steps),
		Sequence:   steps,
	}
	hooks.OnEmitComplete(layer, len(lines), len(steps), time.Since(start), nil)
	return seq
}

// WriteSequence streams a sequence as NDJSON: one JSON object per step,
// followed by a summary object with the totals. Consumers can start
// executing steps before the stream ends.
func WriteSequence(w io.Writer, seq *Sequence) error {
	enc := json.NewEncoder(w)
	for _, step := range seq.Sequence {
		if err := enc.Encode(step); err != nil {
			return err
		}
	}
	return enc.Encode(struct {
		Success    bool `json:"success"`
		TotalLines int  `json:"total_lines"`
		TotalSteps int  `json:"total_steps"`
	}{seq.Success, seq.TotalLines, seq.TotalSteps})
}

// round2 rounds to two decimal places, half away from zero.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
