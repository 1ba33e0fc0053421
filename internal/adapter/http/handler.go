package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"quickfx/internal/domain/model"
	"quickfx/internal/domain/ports"
	"quickfx/internal/metrics"
	"quickfx/internal/parser"
	"quickfx/internal/render"
	"quickfx/internal/service"
	"quickfx/pkg/logger"
)

// maxWait caps how long a ?wait=true request may block on a refresh.
const maxWait = 30 * time.Second

type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

type ConversionResponse struct {
	Status    string        `json:"status"`
	Query     string        `json:"query"`
	Amount    string        `json:"amount,omitempty"`
	From      string        `json:"from,omitempty"`
	To        string        `json:"to,omitempty"`
	Result    string        `json:"result,omitempty"`
	Rate      string        `json:"rate,omitempty"`
	FetchTime string        `json:"fetch_time,omitempty"`
	Stale     bool          `json:"stale,omitempty"`
	Hint      string        `json:"hint,omitempty"`
	Items     []render.Item `json:"items"`
}

type Handler struct {
	converter ports.Converter
	log       *logger.Logger
	metrics   *metrics.Metrics
}

func NewHandler(converter ports.Converter, log *logger.Logger, metrics *metrics.Metrics) *Handler {
	return &Handler{
		converter: converter,
		log:       log,
		metrics:   metrics,
	}
}

// ConvertHandler answers GET /api/v1/convert?q=100+USD+to+JPY. A quote that is still
// being fetched yields 202; clients poll again or pass wait=true to block until it lands.
func (h *Handler) ConvertHandler(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		h.sendErrorResponse(w, http.StatusBadRequest, "missing required parameter: q")
		return
	}

	req, err := parser.Parse(query)
	if err != nil {
		var we *model.WaitingForInputError
		if errors.As(err, &we) {
			fb := render.Render(nil, err)
			h.sendResponse(w, http.StatusOK, ConversionResponse{
				Status: "waiting",
				Query:  query,
				Hint:   we.Hint,
				Items:  fb.Items,
			})
			return
		}
		h.sendErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	wait, _ := strconv.ParseBool(r.URL.Query().Get("wait"))

	ctx := r.Context()
	var conv *model.Conversion
	if wait {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, maxWait)
		defer cancel()
		conv, err = h.converter.Await(ctx, req)
	} else {
		conv, err = h.converter.Convert(ctx, req)
	}
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	resp := ConversionResponse{
		Status: string(conv.Status),
		Query:  query,
		Amount: req.Amount,
		From:   req.From.String(),
		To:     req.To.String(),
		Result: conv.Amount,
		Stale:  conv.Stale,
		Items:  render.Render(conv, nil).Items,
	}
	if conv.Quote != nil {
		resp.Rate = conv.Quote.Rate.String()
		resp.FetchTime = conv.Quote.FetchTime()
	}

	status := http.StatusOK
	if conv.Pending() {
		w.Header().Set("Retry-After", "1")
		status = http.StatusAccepted
	}
	h.sendResponse(w, status, resp)
}

func (h *Handler) sendResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	response := Response{
		Success: true,
		Data:    data,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.log.Error("Failed to encode response", "error", err)
	}
}

func (h *Handler) sendErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	response := Response{
		Success: false,
		Error:   message,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.log.Error("Failed to encode error response", "error", err)
	}
}

func (h *Handler) handleServiceError(w http.ResponseWriter, err error) {
	statusCode := http.StatusInternalServerError
	errorMessage := "internal server error"

	var (
		ne *model.NetworkError
		qe *model.QuoteError
	)
	switch {
	case errors.As(err, &ne):
		statusCode = http.StatusBadGateway
		errorMessage = ne.Error()
	case errors.As(err, &qe):
		errorMessage = qe.Message
	case errors.Is(err, service.ErrInvalidAmount):
		statusCode = http.StatusBadRequest
		errorMessage = "invalid amount"
	case errors.Is(err, service.ErrLaunchFailure):
		errorMessage = "could not start quote refresh"
	case errors.Is(err, context.DeadlineExceeded):
		statusCode = http.StatusGatewayTimeout
		errorMessage = "timed out waiting for quote"
	}

	h.log.Error("Service error", "error", err, "status_code", statusCode)
	h.sendErrorResponse(w, statusCode, errorMessage)
}
