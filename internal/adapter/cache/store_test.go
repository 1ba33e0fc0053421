package cache

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quickfx/internal/domain/model"
	"quickfx/internal/domain/ports"
)

// runStoreSuite checks the behavior every QuoteStore must share.
func runStoreSuite(t *testing.T, newStore func(t *testing.T) ports.QuoteStore) {
	t.Run("Quote round trip keeps exact rate", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		_, found, err := store.GetQuote(ctx, "USD_JPY")
		require.NoError(t, err)
		assert.False(t, found)

		storedAt := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
		entry := &model.CacheEntry{
			Quote: model.RateQuote{
				Pair:      model.CurrencyPair{Base: "USD", Term: "JPY"},
				Rate:      decimal.RequireFromString("149.123456789012345678"),
				FetchedAt: time.Date(2024, 3, 1, 11, 59, 0, 0, time.UTC),
			},
			StoredAt: storedAt,
		}
		require.NoError(t, store.SetQuote(ctx, "USD_JPY", entry))

		got, found, err := store.GetQuote(ctx, "USD_JPY")
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, "149.123456789012345678", got.Quote.Rate.String())
		assert.Equal(t, model.Code("USD"), got.Quote.Pair.Base)
		assert.Equal(t, model.Code("JPY"), got.Quote.Pair.Term)
		assert.True(t, storedAt.Equal(got.StoredAt))
		assert.True(t, entry.Quote.FetchedAt.Equal(got.Quote.FetchedAt))
	})

	t.Run("Quote replace", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		for _, rate := range []string{"1.1", "1.2"} {
			require.NoError(t, store.SetQuote(ctx, "EUR_USD", &model.CacheEntry{
				Quote:    model.RateQuote{Pair: model.CurrencyPair{Base: "EUR", Term: "USD"}, Rate: decimal.RequireFromString(rate)},
				StoredAt: time.Now(),
			}))
		}

		got, found, err := store.GetQuote(ctx, "EUR_USD")
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, "1.2", got.Quote.Rate.String())
	})

	t.Run("Error slots are consumed once", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		require.NoError(t, store.SetError(ctx, &model.ErrorRecord{Kind: model.ErrorKindNetwork, StatusCode: 502, RecordedAt: time.Now()}))
		require.NoError(t, store.SetError(ctx, &model.ErrorRecord{Kind: model.ErrorKindGeneric, Message: "bad pair", RecordedAt: time.Now()}))

		rec, err := store.TakeError(ctx, model.ErrorKindNetwork)
		require.NoError(t, err)
		require.NotNil(t, rec)
		assert.Equal(t, 502, rec.StatusCode)

		rec, err = store.TakeError(ctx, model.ErrorKindNetwork)
		require.NoError(t, err)
		assert.Nil(t, rec)

		rec, err = store.TakeError(ctx, model.ErrorKindGeneric)
		require.NoError(t, err)
		require.NotNil(t, rec)
		assert.Equal(t, "bad pair", rec.Message)
	})

	t.Run("Pending marker is exclusive", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		pending, err := store.IsPending(ctx, "USD_JPY")
		require.NoError(t, err)
		assert.False(t, pending)

		ok, err := store.AcquirePending(ctx, "USD_JPY", time.Minute)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = store.AcquirePending(ctx, "USD_JPY", time.Minute)
		require.NoError(t, err)
		assert.False(t, ok)

		ok, err = store.AcquirePending(ctx, "USD_EUR", time.Minute)
		require.NoError(t, err)
		assert.True(t, ok, "markers are per pair")

		pending, err = store.IsPending(ctx, "USD_JPY")
		require.NoError(t, err)
		assert.True(t, pending)

		require.NoError(t, store.ReleasePending(ctx, "USD_JPY"))

		pending, err = store.IsPending(ctx, "USD_JPY")
		require.NoError(t, err)
		assert.False(t, pending)

		ok, err = store.AcquirePending(ctx, "USD_JPY", time.Minute)
		require.NoError(t, err)
		assert.True(t, ok)
	})
}
