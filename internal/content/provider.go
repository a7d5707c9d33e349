// Package content fetches the compliment catalogue: a remote HTML article
// parsed into category -> compliments, cached in process with an explicit
// TTL.
package content

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"
)

var (
	// ErrSourceUnavailable means the remote page could not be retrieved.
	// Callers skip the current delivery; the condition is not fatal.
	ErrSourceUnavailable = errors.New("compliment source unavailable")

	// ErrParse means the page was retrieved but its structure did not
	// yield matched category/compliment pairs.
	ErrParse = errors.New("compliment source parse failed")
)

// Structural markers of the source article: category headings and the
// ordered lists that follow them. Headings and lists pair by position.
const (
	headingSelector = "span.mntl-sc-block-heading__text"
	groupSelector   = "ol.mntl-sc-block"
)

// Config controls the provider.
type Config struct {
	URL          string
	FetchTimeout time.Duration // per-request bound; default 10s
	CacheTTL     time.Duration // 0 defaults to 24h; negative disables expiry
}

// Catalogue is the parsed result: category label -> compliments.
type Catalogue map[string][]string

// Provider fetches and caches the catalogue. The mutex is held for the whole
// fetch, so concurrent first calls collapse into a single network request.
type Provider struct {
	cfg    Config
	log    zerolog.Logger
	client *http.Client

	mu        sync.Mutex
	cached    Catalogue
	fetchedAt time.Time
}

// New builds a Provider. The zero FetchTimeout defaults to 10s, the zero
// CacheTTL to 24h.
func New(cfg Config, log zerolog.Logger) *Provider {
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = 10 * time.Second
	}
	if cfg.CacheTTL == 0 {
		cfg.CacheTTL = 24 * time.Hour
	}
	return &Provider{
		cfg:    cfg,
		log:    log,
		client: &http.Client{Timeout: cfg.FetchTimeout},
	}
}

// Fetch returns the cached catalogue, refetching when the cache is empty or
// expired. Transport failures surface as ErrSourceUnavailable, structural
// mismatches as ErrParse; a stale-but-present cache is never returned once
// expired.
func (p *Provider) Fetch(ctx context.Context) (Catalogue, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cached != nil && (p.cfg.CacheTTL < 0 || time.Since(p.fetchedAt) < p.cfg.CacheTTL) {
		return p.cached, nil
	}

	start := time.Now()
	cat, err := p.fetchRemote(ctx)
	if err != nil {
		return nil, err
	}
	p.cached = cat
	p.fetchedAt = time.Now()
	p.log.Info().
		Int("categories", len(cat)).
		Dur("took", time.Since(start)).
		Msg("compliment catalogue refreshed")
	return cat, nil
}

// Invalidate drops the cache so the next Fetch goes to the network.
func (p *Provider) Invalidate() {
	p.mu.Lock()
	p.cached = nil
	p.fetchedAt = time.Time{}
	p.mu.Unlock()
}

// Pick chooses a random category, then a random compliment from it.
// Catalogues produced by Fetch are never empty and have no empty categories,
// so Pick does not re-validate.
func Pick(cat Catalogue, rng *rand.Rand) (topic, compliment string) {
	topics := make([]string, 0, len(cat))
	for t := range cat {
		topics = append(topics, t)
	}
	sort.Strings(topics) // deterministic order under a seeded rng
	topic = topics[rng.Intn(len(topics))]
	list := cat[topic]
	return topic, list[rng.Intn(len(list))]
}

func (p *Provider) fetchRemote(ctx context.Context) (Catalogue, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.cfg.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: unexpected status %d", ErrSourceUnavailable, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	return parse(doc)
}

// parse extracts (heading, list) pairs by position. A count mismatch means
// the page layout changed and the result would mislabel categories, so it is
// rejected outright.
func parse(doc *goquery.Document) (Catalogue, error) {
	var headings []string
	doc.Find(headingSelector).Each(func(_ int, sel *goquery.Selection) {
		if t := strings.TrimSpace(sel.Text()); t != "" {
			headings = append(headings, t)
		}
	})

	var groups [][]string
	doc.Find(groupSelector).Each(func(_ int, sel *goquery.Selection) {
		var items []string
		sel.Find("li").Each(func(_ int, li *goquery.Selection) {
			if t := strings.TrimSpace(li.Text()); t != "" {
				items = append(items, t)
			}
		})
		groups = append(groups, items)
	})

	if len(headings) == 0 || len(headings) != len(groups) {
		return nil, fmt.Errorf("%w: %d headings vs %d groups", ErrParse, len(headings), len(groups))
	}

	cat := make(Catalogue, len(headings))
	for i, h := range headings {
		if len(groups[i]) == 0 {
			return nil, fmt.Errorf("%w: category %q has no entries", ErrParse, h)
		}
		cat[h] = groups[i]
	}
	return cat, nil
}
