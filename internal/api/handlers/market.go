package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/wonny/cnquant/internal/contracts"
	"github.com/wonny/cnquant/internal/external/sina"
	"github.com/wonny/cnquant/internal/selection"
	"github.com/wonny/cnquant/pkg/logger"
)

// shanghaiComposite is the index the environment signal reads
const shanghaiComposite = "sh000001"

// IndexProvider returns market index snapshots (nil codes = defaults)
type IndexProvider interface {
	GetIndexQuotes(ctx context.Context, codes []string) ([]contracts.IndexQuote, error)
}

// SectorProvider ranks industry or concept boards by change
type SectorProvider interface {
	GetSectorRotation(ctx context.Context, kind sina.SectorKind, limit int) ([]contracts.SectorQuote, error)
}

// MarketHandler serves market overview endpoints
type MarketHandler struct {
	indices IndexProvider
	sectors SectorProvider
	logger  *logger.Logger
}

// NewMarketHandler creates a new market handler
func NewMarketHandler(indices IndexProvider, sectors SectorProvider, log *logger.Logger) *MarketHandler {
	return &MarketHandler{
		indices: indices,
		sectors: sectors,
		logger:  log,
	}
}

// GetIndices returns the major index snapshots
// GET /api/market/indices
func (h *MarketHandler) GetIndices(w http.ResponseWriter, r *http.Request) {
	indices, err := h.indices.GetIndexQuotes(r.Context(), nil)
	if err != nil {
		h.logger.WithError(err).Error("Failed to get index quotes")
		respondError(w, http.StatusBadGateway, "index quotes unavailable")
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"indices": indices})
}

// GetSectors returns the top boards by change
// GET /api/market/sectors?kind=industry|concept&limit=10
func (h *MarketHandler) GetSectors(w http.ResponseWriter, r *http.Request) {
	kind := sina.SectorIndustry
	switch r.URL.Query().Get("kind") {
	case "", "industry":
	case "concept":
		kind = sina.SectorConcept
	default:
		respondError(w, http.StatusBadRequest, "kind must be industry or concept")
		return
	}

	limit := 10
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 || n > 100 {
			respondError(w, http.StatusBadRequest, "limit must be between 1 and 100")
			return
		}
		limit = n
	}

	sectors, err := h.sectors.GetSectorRotation(r.Context(), kind, limit)
	if err != nil {
		h.logger.WithError(err).WithField("kind", kind).Error("Failed to get sector rotation")
		respondError(w, http.StatusBadGateway, "sector ranking unavailable")
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"kind": kind, "sectors": sectors})
}

// GetEnvironment returns the market environment signal
// GET /api/market/environment?trend=inflow
func (h *MarketHandler) GetEnvironment(w http.ResponseWriter, r *http.Request) {
	trend := selection.ParseFlowTrend(r.URL.Query().Get("trend"))

	var shChange *float64
	indices, err := h.indices.GetIndexQuotes(r.Context(), []string{shanghaiComposite})
	if err != nil {
		h.logger.WithError(err).Warn("Shanghai index unavailable for environment signal")
	}
	for _, idx := range indices {
		if idx.Code == shanghaiComposite || idx.Code == "000001" {
			shChange = idx.ChangePct
		}
	}

	respondJSON(w, http.StatusOK, selection.AssessEnvironment(trend, shChange))
}
