package repository

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quickfx/internal/domain/model"
	"quickfx/pkg/logger"
)

func newTestAPI(t *testing.T, handler http.HandlerFunc) *QuoteAPI {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewQuoteAPI(srv.URL, 5*time.Second, logger.Nop())
}

var usdJpy = model.CurrencyPair{Base: "USD", Term: "JPY"}

func TestQuoteAPI_FetchRate(t *testing.T) {
	var gotBody map[string]any
	var gotContentType string

	api := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		gotContentType = r.Header.Get("Content-Type")
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Write([]byte(`{"data":{"CurrentInterbankRate":103.78912345678901234,"HistoricalPoints":[],"fetchTime":1611425616625}}`))
	})

	quote, err := api.FetchRate(context.Background(), usdJpy)
	require.NoError(t, err)

	assert.Equal(t, "application/json", gotContentType)
	assert.Equal(t, "spotRateHistory", gotBody["method"])
	assert.Equal(t, map[string]any{"base": "USD", "term": "JPY", "period": "day"}, gotBody["data"])

	assert.Equal(t, usdJpy, quote.Pair)
	assert.Equal(t, "103.78912345678901234", quote.Rate.String())
	assert.Equal(t, int64(1611425616), quote.FetchedAt.Unix())
}

func TestQuoteAPI_FetchRate_Errors(t *testing.T) {
	testCases := []struct {
		name       string
		status     int
		body       string
		wantStatus int
		wantQuote  string
		wantErr    error
	}{
		{
			name:       "Server error status",
			status:     http.StatusServiceUnavailable,
			body:       `oops`,
			wantStatus: http.StatusServiceUnavailable,
		},
		{
			name:       "Not found status",
			status:     http.StatusNotFound,
			wantStatus: http.StatusNotFound,
		},
		{
			name:      "Application error on 200",
			status:    http.StatusOK,
			body:      `{"error":"Invalid currency pair"}`,
			wantQuote: "Invalid currency pair",
		},
		{
			name:      "Application error object",
			status:    http.StatusOK,
			body:      `{"error":{"code":42}}`,
			wantQuote: `{"code":42}`,
		},
		{
			name:    "Missing rate",
			status:  http.StatusOK,
			body:    `{"data":{"fetchTime":1}}`,
			wantErr: ErrMalformedResponse,
		},
		{
			name:    "Invalid JSON",
			status:  http.StatusOK,
			body:    `<html>`,
			wantErr: ErrMalformedResponse,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			api := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				w.Write([]byte(tc.body))
			})

			quote, err := api.FetchRate(context.Background(), usdJpy)
			require.Error(t, err)
			assert.Nil(t, quote)

			if tc.wantStatus != 0 {
				var ne *model.NetworkError
				require.True(t, errors.As(err, &ne), "got %v", err)
				assert.Equal(t, tc.wantStatus, ne.StatusCode)
			}
			if tc.wantQuote != "" {
				var qe *model.QuoteError
				require.True(t, errors.As(err, &qe), "got %v", err)
				assert.Equal(t, tc.wantQuote, qe.Message)
			}
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
			}
		})
	}
}

func TestQuoteAPI_FetchRate_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	api := NewQuoteAPI(url, time.Second, logger.Nop())
	_, err := api.FetchRate(context.Background(), usdJpy)

	var ne *model.NetworkError
	require.True(t, errors.As(err, &ne), "got %v", err)
	assert.Zero(t, ne.StatusCode)
	assert.Error(t, ne.Err)
}
