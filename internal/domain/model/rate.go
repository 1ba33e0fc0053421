package model

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"quickfx/pkg/utils"
)

// CurrencyPair is an ordered (base, term) pair. Base is what the user holds.
type CurrencyPair struct {
	Base Code `json:"base"`
	Term Code `json:"term"`
}

// Key is the cache key for the pair, e.g. "USD_JPY".
func (p CurrencyPair) Key() string {
	return fmt.Sprintf("%s_%s", p.Base, p.Term)
}

func (p CurrencyPair) String() string {
	return p.Key()
}

// ParsedRequest is one validated "<amount> <FROM> to <TO>" line.
type ParsedRequest struct {
	Amount string `json:"amount"`
	From   Code   `json:"from"`
	To     Code   `json:"to"`
}

func (r ParsedRequest) Pair() CurrencyPair {
	return CurrencyPair{Base: r.From, Term: r.To}
}

// RateQuote is the interbank rate for a pair as reported by the quote service.
type RateQuote struct {
	Pair      CurrencyPair    `json:"pair"`
	Rate      decimal.Decimal `json:"rate"`
	FetchedAt time.Time       `json:"fetched_at"`
}

// FetchTime renders FetchedAt in local time.
func (q RateQuote) FetchTime() string {
	return utils.FormatLocal(q.FetchedAt)
}

// CacheEntry is a stored quote plus the moment it was written to the store.
type CacheEntry struct {
	Quote    RateQuote `json:"quote"`
	StoredAt time.Time `json:"stored_at"`
}

// Age is how long ago the entry was stored, relative to now.
func (e CacheEntry) Age(now time.Time) time.Duration {
	return now.Sub(e.StoredAt)
}

type ConversionStatus string

const (
	StatusPending ConversionStatus = "pending"
	StatusDone    ConversionStatus = "done"
)

// Conversion is the outcome of one orchestrator call. Amount and Quote are only set
// when Status is StatusDone.
type Conversion struct {
	Request ParsedRequest    `json:"request"`
	Status  ConversionStatus `json:"status"`
	Amount  string           `json:"amount,omitempty"`
	Quote   *RateQuote       `json:"quote,omitempty"`
	// Stale is set when an expired quote was served while a refresh runs.
	Stale bool `json:"stale,omitempty"`
	// Trivial is set for same-currency requests, which never touch the network.
	Trivial bool `json:"trivial,omitempty"`
}

func (c *Conversion) Pending() bool {
	return c.Status == StatusPending
}
