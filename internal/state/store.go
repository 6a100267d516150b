package state

import (
	"sort"
	"sync"
	"time"

	"main/internal/model"
	"main/internal/model/enum"

	"github.com/benbjohnson/clock"
)

// Store holds the latest known value per asset plus connection and fetch
// state. It is the single shared mutable structure; every mutation replaces
// one field group atomically under the lock, so readers never observe a
// partial write.
type Store struct {
	mu  sync.RWMutex
	clk clock.Clock

	assets      map[string]model.Asset
	marketData  *model.MarketData
	watchlist   []string
	loading     bool
	err         string
	lastUpdated time.Time
	status      enum.ConnectionStatus
	connected   bool

	initialWatchlist []string
}

// NewStore builds a store with the given initial watchlist. A nil clock
// falls back to the wall clock.
func NewStore(watchlist []string, clk clock.Clock) *Store {
	if clk == nil {
		clk = clock.New()
	}
	return &Store{
		clk:              clk,
		assets:           make(map[string]model.Asset),
		watchlist:        append([]string(nil), watchlist...),
		initialWatchlist: append([]string(nil), watchlist...),
		status:           enum.StatusDisconnected,
	}
}

// SetAssets atomically replaces the whole asset map, keyed by symbol.
// Clears any existing error.
func (s *Store) SetAssets(assets []model.Asset) {
	s.mu.Lock()
	replaced := make(map[string]model.Asset, len(assets))
	for _, asset := range assets {
		replaced[asset.Symbol] = asset
	}
	s.assets = replaced
	s.lastUpdated = s.clk.Now()
	s.err = ""
	s.mu.Unlock()
}

// UpdateAsset upserts exactly one symbol, leaving all others untouched.
func (s *Store) UpdateAsset(asset model.Asset) {
	s.mu.Lock()
	s.assets[asset.Symbol] = asset
	s.lastUpdated = s.clk.Now()
	s.mu.Unlock()
}

// SetSparkline attaches recent close prices to an existing asset. A symbol
// not yet in the store is ignored.
func (s *Store) SetSparkline(symbol string, closes []float64) {
	s.mu.Lock()
	if asset, ok := s.assets[symbol]; ok {
		asset.Sparkline = append([]float64(nil), closes...)
		s.assets[symbol] = asset
	}
	s.mu.Unlock()
}

// SetMarketData replaces the derived market-wide figures.
func (s *Store) SetMarketData(data model.MarketData) {
	s.mu.Lock()
	s.marketData = &data
	s.mu.Unlock()
}

// SetConnectionStatus updates the status and the derived connected flag
// together.
func (s *Store) SetConnectionStatus(status enum.ConnectionStatus) {
	s.mu.Lock()
	s.status = status
	s.connected = status == enum.StatusConnected
	s.mu.Unlock()
}

// SetLoading toggles the loading flag.
func (s *Store) SetLoading(loading bool) {
	s.mu.Lock()
	s.loading = loading
	s.mu.Unlock()
}

// SetError records the most recent unrecovered failure and clears loading.
func (s *Store) SetError(msg string) {
	s.mu.Lock()
	s.err = msg
	s.loading = false
	s.mu.Unlock()
}

// AddToWatchlist appends a symbol if not already present.
func (s *Store) AddToWatchlist(symbol string) {
	s.mu.Lock()
	for _, existing := range s.watchlist {
		if existing == symbol {
			s.mu.Unlock()
			return
		}
	}
	s.watchlist = append(s.watchlist, symbol)
	s.mu.Unlock()
}

// RemoveFromWatchlist drops a symbol.
func (s *Store) RemoveFromWatchlist(symbol string) {
	s.mu.Lock()
	for i, existing := range s.watchlist {
		if existing == symbol {
			s.watchlist = append(s.watchlist[:i], s.watchlist[i+1:]...)
			break
		}
	}
	s.mu.Unlock()
}

// Reset restores every field to its initial empty/default value.
func (s *Store) Reset() {
	s.mu.Lock()
	s.assets = make(map[string]model.Asset)
	s.marketData = nil
	s.watchlist = append([]string(nil), s.initialWatchlist...)
	s.loading = false
	s.err = ""
	s.lastUpdated = time.Time{}
	s.status = enum.StatusDisconnected
	s.connected = false
	s.mu.Unlock()
}

// Asset returns the latest snapshot for one symbol.
func (s *Store) Asset(symbol string) (model.Asset, bool) {
	s.mu.RLock()
	asset, ok := s.assets[symbol]
	s.mu.RUnlock()
	return asset, ok
}

// Assets returns a copy of the asset map.
func (s *Store) Assets() map[string]model.Asset {
	s.mu.RLock()
	assets := make(map[string]model.Asset, len(s.assets))
	for symbol, asset := range s.assets {
		assets[symbol] = asset
	}
	s.mu.RUnlock()
	return assets
}

// WatchlistAssets returns the watchlist symbols currently in the store, in
// watchlist order.
func (s *Store) WatchlistAssets() []model.Asset {
	s.mu.RLock()
	assets := make([]model.Asset, 0, len(s.watchlist))
	for _, symbol := range s.watchlist {
		if asset, ok := s.assets[symbol]; ok {
			assets = append(assets, asset)
		}
	}
	s.mu.RUnlock()
	return assets
}

// Watchlist returns a copy of the watchlist symbols.
func (s *Store) Watchlist() []string {
	s.mu.RLock()
	watchlist := append([]string(nil), s.watchlist...)
	s.mu.RUnlock()
	return watchlist
}

// TopGainers returns up to limit assets sorted by 24h change percent,
// highest first.
func (s *Store) TopGainers(limit int) []model.Asset {
	return s.sortedByChange(limit, func(a, b model.Asset) bool {
		return a.ChangePercent24h > b.ChangePercent24h
	})
}

// TopLosers returns up to limit assets sorted by 24h change percent,
// lowest first.
func (s *Store) TopLosers(limit int) []model.Asset {
	return s.sortedByChange(limit, func(a, b model.Asset) bool {
		return a.ChangePercent24h < b.ChangePercent24h
	})
}

// ConnectionStatus returns the live socket health.
func (s *Store) ConnectionStatus() enum.ConnectionStatus {
	s.mu.RLock()
	status := s.status
	s.mu.RUnlock()
	return status
}

// IsConnected reports whether the status is connected.
func (s *Store) IsConnected() bool {
	s.mu.RLock()
	connected := s.connected
	s.mu.RUnlock()
	return connected
}

// Loading reports whether a fetch cycle is in flight.
func (s *Store) Loading() bool {
	s.mu.RLock()
	loading := s.loading
	s.mu.RUnlock()
	return loading
}

// Error returns the most recent unrecovered failure, empty when healthy.
func (s *Store) Error() string {
	s.mu.RLock()
	err := s.err
	s.mu.RUnlock()
	return err
}

// LastUpdated returns the wall time of the last asset mutation.
func (s *Store) LastUpdated() time.Time {
	s.mu.RLock()
	updated := s.lastUpdated
	s.mu.RUnlock()
	return updated
}

// MarketData returns the derived market figures when present.
func (s *Store) MarketData() (model.MarketData, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.marketData == nil {
		return model.MarketData{}, false
	}
	return *s.marketData, true
}

func (s *Store) sortedByChange(limit int, less func(a, b model.Asset) bool) []model.Asset {
	s.mu.RLock()
	assets := make([]model.Asset, 0, len(s.assets))
	for _, asset := range s.assets {
		assets = append(assets, asset)
	}
	s.mu.RUnlock()

	sort.Slice(assets, func(i, j int) bool {
		if assets[i].ChangePercent24h == assets[j].ChangePercent24h {
			return assets[i].Symbol < assets[j].Symbol
		}
		return less(assets[i], assets[j])
	})
	if limit > 0 && len(assets) > limit {
		assets = assets[:limit]
	}
	return assets
}
