package ports

import (
	"context"

	"quickfx/internal/domain/model"
)

// Converter is what front ends talk to.
type Converter interface {
	// Convert never waits on the network; a missing quote yields a pending Conversion.
	Convert(ctx context.Context, req model.ParsedRequest) (*model.Conversion, error)
	// Await polls Convert until the conversion is done, fails, or ctx ends.
	Await(ctx context.Context, req model.ParsedRequest) (*model.Conversion, error)
}

// Refresher is the body of a background fetch job for one pair.
type Refresher interface {
	Refresh(ctx context.Context, pair model.CurrencyPair) error
}

// Launcher starts background refreshes, at most one per pair at a time.
type Launcher interface {
	// Launch starts a refresh for pair unless one is alive; it reports whether it started one.
	Launch(ctx context.Context, pair model.CurrencyPair) (bool, error)
	Running(ctx context.Context, pair model.CurrencyPair) (bool, error)
}
