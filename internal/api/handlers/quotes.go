package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"

	"github.com/gorilla/mux"

	"github.com/wonny/cnquant/internal/contracts"
	"github.com/wonny/cnquant/internal/s0_data"
	"github.com/wonny/cnquant/pkg/logger"
)

// OverviewGetter builds a quote + technical overview for one symbol
type OverviewGetter interface {
	Get(ctx context.Context, code string) (*s0_data.Overview, error)
}

// QuoteHandler handles quote and stock overview endpoints
// ⭐ SSOT: 시세 API 핸들러는 이 구조체에서만
type QuoteHandler struct {
	quotes   contracts.QuoteProvider
	overview OverviewGetter
	logger   *logger.Logger
}

// NewQuoteHandler creates a new quote handler
func NewQuoteHandler(quotes contracts.QuoteProvider, overview OverviewGetter, log *logger.Logger) *QuoteHandler {
	return &QuoteHandler{
		quotes:   quotes,
		overview: overview,
		logger:   log,
	}
}

// QuotesResponse is the body of GET /api/quotes
type QuotesResponse struct {
	Quotes  map[string]contracts.Quote `json:"quotes"`
	Missing []string                   `json:"missing"`
}

// GetQuotes returns quotes for a batch of codes
// GET /api/quotes?codes=600519,000858
func (h *QuoteHandler) GetQuotes(w http.ResponseWriter, r *http.Request) {
	codes := parseCodes(r.URL.Query().Get("codes"))
	if len(codes) == 0 {
		respondError(w, http.StatusBadRequest, "codes is required")
		return
	}
	if len(codes) > maxCodes {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("at most %d codes per request", maxCodes))
		return
	}

	quotes, err := h.quotes.GetQuotes(r.Context(), codes)
	if err != nil && !errors.Is(err, s0_data.ErrNoQuotes) {
		h.logger.WithError(err).WithField("codes", len(codes)).Error("Failed to get quotes")
		respondError(w, http.StatusBadGateway, "quote sources unavailable")
		return
	}
	if quotes == nil {
		quotes = map[string]contracts.Quote{}
	}

	missing := make([]string, 0)
	for _, code := range codes {
		if _, ok := quotes[code]; !ok {
			missing = append(missing, code)
		}
	}
	sort.Strings(missing)

	respondJSON(w, http.StatusOK, QuotesResponse{Quotes: quotes, Missing: missing})
}

// GetOverview returns quote + technical indicators for one symbol
// GET /api/stocks/{code}/overview
func (h *QuoteHandler) GetOverview(w http.ResponseWriter, r *http.Request) {
	code := mux.Vars(r)["code"]
	if !validCode(code) {
		respondError(w, http.StatusBadRequest, "invalid stock code")
		return
	}

	overview, err := h.overview.Get(r.Context(), code)
	if err != nil {
		h.logger.WithError(err).WithField("code", code).Warn("Failed to build overview")
		respondError(w, http.StatusNotFound, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, overview)
}
