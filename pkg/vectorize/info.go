package vectorize

import (
	"github.com/tracevec/tracevec/pkg/buildinfo"
	"github.com/tracevec/tracevec/pkg/imaging"
	"github.com/tracevec/tracevec/pkg/trace"
)

// Info describes the vectorization engine for the info command and
// endpoint.
type Info struct {
	Name        string   `json:"name"`
	Version     string   `json:"version"`
	Description string   `json:"description"`
	Formats     []string `json:"formats"`
	Modes       []string `json:"modes"`
	Pipeline    []string `json:"pipeline"`
	Defaults    Options  `json:"defaults"`
}

// EngineInfo returns the engine description with the current build
// version and documented defaults.
func EngineInfo() Info {
	return Info{
		Name:        "tracevec",
		Version:     buildinfo.Version,
		Description: "raster image to vector line converter with built-in PNG, baseline JPEG, and PNM decoders",
		Formats:     imaging.SupportedExtensions(),
		Modes:       trace.Modes(),
		Pipeline: []string{
			"decode (PNG via zlib inflate, JPEG baseline DCT, PNM P1-P6)",
			"preprocess (binarize or edge detect)",
			"connected component labeling",
			"Moore neighbor contour tracing",
			"Douglas-Peucker simplification",
			"line emission with uniform scale and vertical flip",
		},
		Defaults: DefaultOptions(),
	}
}
