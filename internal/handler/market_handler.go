package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"security-service/internal/marketdata"
	"security-service/internal/payments"
	"security-service/internal/util"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// MarketHandler serves swap rates and the payment method catalog.
type MarketHandler struct {
	swapRates *marketdata.SwapRateService
	logger    *zap.Logger
}

func NewMarketHandler(swapRates *marketdata.SwapRateService, logger *zap.Logger) *MarketHandler {
	return &MarketHandler{swapRates: swapRates, logger: logger}
}

func (h *MarketHandler) RegisterRoutes(router chi.Router) {
	router.Get("/market/swap-rates", h.GetSwapRates)
	router.Get("/payments/methods", h.GetPaymentMethods)
}

// GetSwapRates resolves swap rates for a comma-separated symbols list.
func (h *MarketHandler) GetSwapRates(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	symbolsParam := r.URL.Query().Get("symbols")
	if symbolsParam == "" {
		h.respondWithJSON(w, http.StatusBadRequest, map[string]interface{}{"error": "symbols parameter is required"})
		return
	}

	var symbols []string
	for _, s := range strings.Split(symbolsParam, ",") {
		if s = strings.TrimSpace(s); s != "" {
			symbols = append(symbols, s)
		}
	}

	rates := h.swapRates.SwapRates(ctx, symbols)
	h.respondWithJSON(w, http.StatusOK, rates)
	h.logger.Debug("Swap rates served via HTTP", util.Int("symbols", len(symbols)))
}

// GetPaymentMethods returns the catalog, narrowed by query filters.
// Omitted filters default to "all"; maxFee defaults to no cap.
func (h *MarketHandler) GetPaymentMethods(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filters := payments.Filters{
		Direction: queryOrAll(q.Get("direction")),
		Region:    queryOrAll(q.Get("region")),
		Currency:  queryOrAll(q.Get("currency")),
		Speed:     queryOrAll(q.Get("speed")),
		MaxFee:    100,
	}
	if maxFeeStr := q.Get("maxFee"); maxFeeStr != "" {
		maxFee, err := strconv.ParseFloat(maxFeeStr, 64)
		if err != nil {
			h.respondWithJSON(w, http.StatusBadRequest, map[string]interface{}{"error": "invalid maxFee"})
			return
		}
		filters.MaxFee = maxFee
	}

	methods := payments.FilterMethods(payments.Methods, filters)
	h.respondWithJSON(w, http.StatusOK, methods)
}

func queryOrAll(value string) string {
	if value == "" {
		return "all"
	}
	return value
}

// respondWithJSON sends a JSON response
func (h *MarketHandler) respondWithJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("Failed to encode JSON response", util.ErrorField(err))
	}
}
