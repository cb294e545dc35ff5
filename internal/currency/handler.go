package currency

import (
	"fmt"
	"net/http"

	"fundflow-go/internal/api"
	"fundflow-go/internal/models"
	"fundflow-go/internal/store"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Handler serves the conversion endpoint of the currency service.
type Handler struct {
	rates *Rates
}

func NewHandler(rates *Rates) *Handler {
	return &Handler{rates: rates}
}

func (h *Handler) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /convert", h.handleConvert)
	mux.HandleFunc("GET /health", h.handleHealth)
	return mux
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	api.RespondJSON(w, http.StatusOK, models.ApiResponse{
		Status:  "success",
		Message: "Currency Exchange Service is healthy",
	})
}

func (h *Handler) handleConvert(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	from := query.Get("from")
	to := query.Get("to")
	amountStr := query.Get("amount")

	if from == "" || to == "" || amountStr == "" {
		api.RespondError(w, fmt.Errorf("%w: amount, from and to are required", store.ErrValidation))
		return
	}

	amount, err := decimal.NewFromString(amountStr)
	if err != nil {
		api.RespondError(w, fmt.Errorf("%w: invalid amount %q", store.ErrValidation, amountStr))
		return
	}

	conversion, err := h.rates.Convert(amount, from, to)
	if err != nil {
		api.RespondError(w, err)
		return
	}

	zap.L().Info("Currency converted",
		zap.String("from", conversion.FromCurrency),
		zap.String("to", conversion.ToCurrency),
		zap.String("amount", conversion.Amount.String()),
		zap.String("converted_amount", conversion.ConvertedAmount.String()),
		zap.String("rate", conversion.Rate.String()))

	api.RespondJSON(w, http.StatusOK, models.ApiResponse{
		Status:  "success",
		Data:    conversion,
		Message: "Conversion successful",
	})
}
