package handlers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/wonny/cnquant/internal/brain"
	"github.com/wonny/cnquant/internal/selection"
	"github.com/wonny/cnquant/pkg/logger"
)

// DeepScorer scores one stock on the six research factors
type DeepScorer interface {
	Analyze(ctx context.Context, code string, inputs selection.DeepInputs) (*brain.DeepReport, error)
}

// ScoreHandler serves the deep score endpoint
type ScoreHandler struct {
	scorer DeepScorer
	logger *logger.Logger
}

// NewScoreHandler creates a new score handler
func NewScoreHandler(scorer DeepScorer, log *logger.Logger) *ScoreHandler {
	return &ScoreHandler{
		scorer: scorer,
		logger: log,
	}
}

// GetScore returns the six-factor score of one symbol
// GET /api/stocks/{code}/score?revenue_growth=35&peg=0.7&north_flow=120&days_to_event=5&bull_pct=80&news=3
func (h *ScoreHandler) GetScore(w http.ResponseWriter, r *http.Request) {
	code := mux.Vars(r)["code"]
	if !validCode(code) {
		respondError(w, http.StatusBadRequest, "invalid stock code")
		return
	}

	inputs, err := parseDeepInputs(r.URL.Query())
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	report, err := h.scorer.Analyze(r.Context(), code, inputs)
	if err != nil {
		h.logger.WithError(err).WithField("code", code).Warn("Failed to compute deep score")
		respondError(w, http.StatusNotFound, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, report)
}

// parseDeepInputs reads the optional research inputs; absent = unknown
func parseDeepInputs(q url.Values) (selection.DeepInputs, error) {
	var inputs selection.DeepInputs

	floats := []struct {
		name   string
		target **float64
	}{
		{"revenue_growth", &inputs.RevenueGrowthPct},
		{"peg", &inputs.PEG},
		{"north_flow", &inputs.NorthNetFlowM},
		{"bull_pct", &inputs.BullPct},
	}
	for _, f := range floats {
		s := q.Get(f.name)
		if s == "" {
			continue
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return inputs, fmt.Errorf("%s must be a number", f.name)
		}
		*f.target = &v
	}

	if s := q.Get("days_to_event"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			return inputs, fmt.Errorf("days_to_event must be a non-negative integer")
		}
		inputs.DaysToEvent = &n
	}
	if s := q.Get("news"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			return inputs, fmt.Errorf("news must be a non-negative integer")
		}
		inputs.NewsCount = n
	}
	return inputs, nil
}
