package ports

import (
	"context"

	"quickfx/internal/domain/model"
)

// RateFetcher makes exactly one request to the quote service.
type RateFetcher interface {
	FetchRate(ctx context.Context, pair model.CurrencyPair) (*model.RateQuote, error)
}
