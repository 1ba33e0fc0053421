package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"quickfx/internal/domain/model"
	"quickfx/pkg/logger"
	"quickfx/pkg/utils"
)

const spotRateHistoryMethod = "spotRateHistory"

var ErrMalformedResponse = errors.New("malformed quote response")

// QuoteAPI talks to the OFX-style quote widget endpoint.
type QuoteAPI struct {
	endpoint   string
	httpClient *http.Client
	log        *logger.Logger
}

type spotRateRequest struct {
	Method string              `json:"method"`
	Data   spotRateRequestData `json:"data"`
}

type spotRateRequestData struct {
	Base   model.Code `json:"base"`
	Term   model.Code `json:"term"`
	Period string     `json:"period"`
}

type spotRateResponse struct {
	Data *struct {
		CurrentInterbankRate *decimal.Decimal `json:"CurrentInterbankRate"`
		FetchTime            int64            `json:"fetchTime"`
	} `json:"data"`
	Error json.RawMessage `json:"error,omitempty"`
}

func NewQuoteAPI(endpoint string, timeout time.Duration, log *logger.Logger) *QuoteAPI {
	return &QuoteAPI{
		endpoint: endpoint,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		log: log,
	}
}

// FetchRate requests the "day" spot rate history for pair and returns the current rate.
// It makes one attempt and never retries.
func (q *QuoteAPI) FetchRate(ctx context.Context, pair model.CurrencyPair) (*model.RateQuote, error) {
	payload, err := json.Marshal(spotRateRequest{
		Method: spotRateHistoryMethod,
		Data: spotRateRequestData{
			Base:   pair.Base,
			Term:   pair.Term,
			Period: "day",
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, q.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := q.httpClient.Do(req)
	if err != nil {
		q.log.Error("Quote request failed", "pair", pair.Key(), "error", err)
		return nil, &model.NetworkError{Err: err}
	}
	defer resp.Body.Close()

	q.log.Debug("Quote response received",
		"pair", pair.Key(),
		"status", resp.StatusCode,
		"duration", time.Since(start),
	)

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, &model.NetworkError{StatusCode: resp.StatusCode}
	}

	var apiResp spotRateResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	if msg, ok := errorMessage(apiResp.Error); ok {
		return nil, &model.QuoteError{Message: msg}
	}

	if apiResp.Data == nil || apiResp.Data.CurrentInterbankRate == nil {
		return nil, fmt.Errorf("%w: missing CurrentInterbankRate", ErrMalformedResponse)
	}

	return &model.RateQuote{
		Pair:      pair,
		Rate:      *apiResp.Data.CurrentInterbankRate,
		FetchedAt: utils.FromEpochMillis(apiResp.Data.FetchTime),
	}, nil
}

// errorMessage extracts the service's "error" field; it may be a string or any JSON value.
func errorMessage(raw json.RawMessage) (string, bool) {
	if len(raw) == 0 || string(raw) == "null" {
		return "", false
	}
	var msg string
	if err := json.Unmarshal(raw, &msg); err == nil {
		return msg, true
	}
	return string(raw), true
}
