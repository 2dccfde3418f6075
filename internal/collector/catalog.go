package collector

import (
	"context"
	"strings"
	"sync"

	"CoinDash/internal/model"

	"github.com/rs/zerolog/log"
)

// Catalog resolves free text to asset ids. The coin list is loaded once per
// process on first success; a failed load leaves the catalog empty and is
// retried on the next call. Logos are cached per asset.
type Catalog struct {
	Source interface {
		CatalogSource
		LogoSource
	}

	mu     sync.Mutex
	coins  []model.Coin
	byKey  map[string]string
	byID   map[string]model.Coin
	logos  map[string]string
	loaded bool
}

// NewCatalog creates a new Catalog.
func NewCatalog(source Fetcher) *Catalog {
	return &Catalog{Source: source, logos: make(map[string]string)}
}

// Load fetches the coin list unless it is already cached. It returns the
// number of known coins; zero means the catalog is empty.
func (c *Catalog) Load(ctx context.Context) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.loaded {
		return len(c.coins)
	}
	coins, err := c.Source.FetchCoinList(ctx)
	if err != nil {
		log.Error().Err(err).Str("class", Classify(err)).Msg("fetch coin catalog failed")
		return 0
	}
	c.coins = coins
	c.byKey = indexCoins(coins)
	c.byID = make(map[string]model.Coin, len(coins))
	for _, coin := range coins {
		c.byID[coin.ID] = coin
	}
	c.loaded = true
	log.Info().Int("coins", len(coins)).Msg("coin catalog loaded")
	return len(coins)
}

// indexCoins maps lowercase id, label, name and symbol to the id. Earlier
// keys win, so an exact id is never shadowed by another coin's symbol.
func indexCoins(coins []model.Coin) map[string]string {
	idx := make(map[string]string, len(coins)*4)
	put := func(k, id string) {
		k = strings.ToLower(strings.TrimSpace(k))
		if k == "" {
			return
		}
		if _, ok := idx[k]; !ok {
			idx[k] = id
		}
	}
	for _, coin := range coins {
		put(coin.ID, coin.ID)
	}
	for _, coin := range coins {
		put(coin.Label(), coin.ID)
	}
	for _, coin := range coins {
		put(coin.Name, coin.ID)
	}
	for _, coin := range coins {
		put(coin.Symbol, coin.ID)
	}
	return idx
}

// Resolve maps an id, "Name (SYM)" label, name or symbol to an asset id.
func (c *Catalog) Resolve(ctx context.Context, text string) (string, bool) {
	if c.Load(ctx) == 0 {
		return "", false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	id, ok := c.byKey[strings.ToLower(strings.TrimSpace(text))]
	return id, ok
}

// ResolveAll resolves every entry, dropping those that do not match.
func (c *Catalog) ResolveAll(ctx context.Context, texts []string) []string {
	ids := make([]string, 0, len(texts))
	seen := make(map[string]bool)
	for _, t := range texts {
		id, ok := c.Resolve(ctx, t)
		if !ok {
			log.Warn().Str("query", t).Msg("coin not found in catalog")
			continue
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	return ids
}

// Label returns the "Name (SYM)" label of id, or id itself when the
// catalog does not know it.
func (c *Catalog) Label(ctx context.Context, id string) string {
	if c.Load(ctx) == 0 {
		return id
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if coin, ok := c.byID[id]; ok {
		return coin.Label()
	}
	return id
}

// Labels returns the label of every id.
func (c *Catalog) Labels(ctx context.Context, ids []string) map[string]string {
	out := make(map[string]string, len(ids))
	for _, id := range ids {
		out[id] = c.Label(ctx, id)
	}
	return out
}

// Search returns up to limit coins whose id, name or symbol contains query.
func (c *Catalog) Search(ctx context.Context, query string, limit int) []model.Coin {
	if c.Load(ctx) == 0 {
		return nil
	}
	q := strings.ToLower(strings.TrimSpace(query))
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []model.Coin
	for _, coin := range c.coins {
		if limit > 0 && len(out) >= limit {
			break
		}
		if q == "" ||
			strings.Contains(strings.ToLower(coin.ID), q) ||
			strings.Contains(strings.ToLower(coin.Name), q) ||
			strings.Contains(strings.ToLower(coin.Symbol), q) {
			out = append(out, coin)
		}
	}
	return out
}

// Logo returns the cached logo URL for id, fetching it on first use.
// Failures yield "" and are not cached.
func (c *Catalog) Logo(ctx context.Context, id string) string {
	c.mu.Lock()
	if logo, ok := c.logos[id]; ok {
		c.mu.Unlock()
		return logo
	}
	c.mu.Unlock()

	logo, err := c.Source.FetchCoinImage(ctx, id)
	if err != nil {
		log.Debug().Err(err).Str("asset", id).Msg("logo unavailable")
		return ""
	}
	c.mu.Lock()
	c.logos[id] = logo
	c.mu.Unlock()
	return logo
}
