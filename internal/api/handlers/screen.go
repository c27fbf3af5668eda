package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"

	"github.com/wonny/cnquant/internal/contracts"
	"github.com/wonny/cnquant/internal/selection"
	"github.com/wonny/cnquant/pkg/logger"
)

// LatestRunStore returns the most recent stored screen report
type LatestRunStore interface {
	GetLatestRun(ctx context.Context) (*contracts.ScreenReport, error)
}

// ScreenHandler serves screen results
type ScreenHandler struct {
	store      LatestRunStore // nil without a database
	outputPath string
	logger     *logger.Logger
}

// NewScreenHandler creates a new screen handler. store may be nil.
func NewScreenHandler(store LatestRunStore, outputPath string, log *logger.Logger) *ScreenHandler {
	return &ScreenHandler{
		store:      store,
		outputPath: outputPath,
		logger:     log,
	}
}

// GetLatest returns the latest screen report, from the run store when
// available and otherwise from the last emitted report file
// GET /api/screen/latest
func (h *ScreenHandler) GetLatest(w http.ResponseWriter, r *http.Request) {
	if h.store != nil {
		report, err := h.store.GetLatestRun(r.Context())
		if err == nil {
			respondJSON(w, http.StatusOK, report)
			return
		}
		if !errors.Is(err, selection.ErrNoRuns) {
			h.logger.WithError(err).Warn("Run store unavailable, falling back to report file")
		}
	}

	report, err := h.readFile()
	if errors.Is(err, os.ErrNotExist) {
		respondError(w, http.StatusNotFound, "no screen report available")
		return
	}
	if err != nil {
		h.logger.WithError(err).WithField("path", h.outputPath).Error("Failed to read screen report")
		respondError(w, http.StatusInternalServerError, "failed to read screen report")
		return
	}

	respondJSON(w, http.StatusOK, report)
}

func (h *ScreenHandler) readFile() (*contracts.ScreenReport, error) {
	data, err := os.ReadFile(h.outputPath)
	if err != nil {
		return nil, err
	}
	var report contracts.ScreenReport
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, err
	}
	return &report, nil
}
