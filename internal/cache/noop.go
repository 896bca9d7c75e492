package cache

import (
	"time"

	"NiftyImbalance/internal/model"
)

// NoopCache is used when no cache database is configured. Every Get misses.
type NoopCache struct{}

func NewNoopCache() *NoopCache { return &NoopCache{} }

func (n *NoopCache) Get(_ string, _, _, _ time.Time) ([]model.OHLCV, bool, error) {
	return nil, false, nil
}
func (n *NoopCache) Put(_ string, _, _ time.Time, _ []model.OHLCV) error { return nil }
func (n *NoopCache) Close() error                                        { return nil }
