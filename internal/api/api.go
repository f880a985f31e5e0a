// Package api exposes the vectorization pipeline over HTTP.
//
// The API is a small JSON surface: POST /v1/vectorize runs the pipeline on
// a base64-encoded image, GET /v1/info reports engine capabilities, and
// GET /healthz answers liveness probes. Every request is tagged with a
// request ID and logged with its duration and status.
package api

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"

	"github.com/tracevec/tracevec/pkg/errors"
	"github.com/tracevec/tracevec/pkg/vectorize"
)

// Handler serves the vectorization API.
type Handler struct {
	logger       *log.Logger
	defaults     vectorize.Options
	maxBodyBytes int64
}

// New creates the API handler. defaults seeds the options for requests
// that omit them; maxBodyBytes caps the request body size.
func New(logger *log.Logger, defaults vectorize.Options, maxBodyBytes int64) *Handler {
	return &Handler{
		logger:       logger,
		defaults:     defaults,
		maxBodyBytes: maxBodyBytes,
	}
}

// Router builds the chi router with all routes and middleware.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(h.logRequests)

	r.Get("/healthz", h.handleHealth)
	r.Route("/v1", func(r chi.Router) {
		r.Get("/info", h.handleInfo)
		r.Post("/vectorize", h.handleVectorize)
	})
	return r
}

// vectorizeRequest is the POST /v1/vectorize body.
type vectorizeRequest struct {
	// Image is the base64-encoded image, optionally with a data: URI prefix.
	Image string `json:"image"`

	// Ext names the image format (png, jpg, ppm, ...).
	Ext string `json:"ext"`

	// Options override the server defaults where set.
	Options *vectorize.Options `json:"options,omitempty"`
}

// vectorizeResponse wraps the command sequence with trace statistics.
type vectorizeResponse struct {
	*vectorize.Sequence
	Width         int    `json:"width"`
	Height        int    `json:"height"`
	Components    int    `json:"components"`
	Contours      int    `json:"contours"`
	Partial       bool   `json:"partial,omitempty"`
	PartialReason string `json:"partial_reason,omitempty"`
}

// errorResponse is the JSON error shape.
type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) handleInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, vectorize.EngineInfo())
}

func (h *Handler) handleVectorize(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodyBytes)

	var req vectorizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, errors.New(errors.ErrCodeInvalidInput, "invalid request body: %v", err))
		return
	}
	if req.Image == "" {
		h.writeError(w, errors.New(errors.ErrCodeInvalidInput, "missing image field"))
		return
	}
	if req.Ext == "" {
		h.writeError(w, errors.New(errors.ErrCodeInvalidInput, "missing ext field"))
		return
	}

	encoded := req.Image
	if _, payload, found := strings.Cut(encoded, ","); found {
		encoded = payload
	}
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		h.writeError(w, errors.New(errors.ErrCodeInvalidInput, "invalid base64 image data"))
		return
	}

	opts := h.defaults
	if req.Options != nil {
		opts = *req.Options
	}

	res, err := vectorize.Vectorize(data, req.Ext, opts)
	if err != nil {
		h.writeError(w, err)
		return
	}
	seq := vectorize.BuildSequence(res.Lines, opts.Layer, vectorize.DefaultSequenceBatchSize)

	writeJSON(w, http.StatusOK, vectorizeResponse{
		Sequence:      seq,
		Width:         res.Width,
		Height:        res.Height,
		Components:    res.Components,
		Contours:      len(res.Contours),
		Partial:       res.Partial,
		PartialReason: res.PartialReason,
	})
}

// writeError maps a pipeline error to an HTTP status and JSON body.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch code := errors.GetCode(err); {
	case code == errors.ErrCodeInvalidConfig || code == errors.ErrCodeInvalidInput:
		status = http.StatusBadRequest
	case errors.IsFormat(err):
		status = http.StatusUnprocessableEntity
	case code == errors.ErrCodeDecodeTruncated || code == errors.ErrCodeDecodeCorrupt:
		status = http.StatusUnprocessableEntity
	}

	writeJSON(w, status, errorResponse{
		Error: errors.UserMessage(err),
		Code:  string(errors.GetCode(err)),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		// Headers are already sent; nothing to recover here.
		fmt.Fprintln(w, `{"error":"encode response"}`)
	}
}
