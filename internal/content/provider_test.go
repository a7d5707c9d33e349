package content

import (
	"context"
	"errors"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/RedBullDogE/compliment-bot/pkg/logx"
)

const samplePage = `<html><body>
<span class="mntl-sc-block-heading__text"> Kindness </span>
<ol class="mntl-sc-block" id="mntl-sc-block_1-0-7">
  <li>You make people feel at home.</li>
  <li>Your patience is remarkable.</li>
</ol>
<span class="mntl-sc-block-heading__text">Humor</span>
<ol class="mntl-sc-block" id="mntl-sc-block_1-0-12">
  <li>You light up every room.</li>
</ol>
</body></html>`

func newTestProvider(t *testing.T, handler http.HandlerFunc, ttl time.Duration) (*Provider, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	p := New(Config{URL: srv.URL, CacheTTL: ttl}, logx.Nop())
	return p, srv
}

func TestFetchParsesCategories(t *testing.T) {
	t.Parallel()
	p, _ := newTestProvider(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(samplePage))
	}, time.Hour)

	cat, err := p.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(cat) != 2 {
		t.Fatalf("got %d categories, want 2", len(cat))
	}
	if got := cat["Kindness"]; len(got) != 2 || got[0] != "You make people feel at home." {
		t.Fatalf("Kindness = %v", got)
	}
	if got := cat["Humor"]; len(got) != 1 {
		t.Fatalf("Humor = %v", got)
	}
}

func TestFetchServesFromCache(t *testing.T) {
	t.Parallel()
	var hits atomic.Int32
	p, _ := newTestProvider(t, func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(samplePage))
	}, time.Hour)

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if _, err := p.Fetch(ctx); err != nil {
			t.Fatalf("Fetch %d: %v", i, err)
		}
	}
	if n := hits.Load(); n != 1 {
		t.Fatalf("remote hit %d times, want 1", n)
	}

	p.Invalidate()
	if _, err := p.Fetch(ctx); err != nil {
		t.Fatalf("Fetch after invalidate: %v", err)
	}
	if n := hits.Load(); n != 2 {
		t.Fatalf("remote hit %d times after invalidate, want 2", n)
	}
}

func TestFetchExpiredCacheRefetches(t *testing.T) {
	t.Parallel()
	var hits atomic.Int32
	p, _ := newTestProvider(t, func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(samplePage))
	}, time.Nanosecond)

	ctx := context.Background()
	if _, err := p.Fetch(ctx); err != nil {
		t.Fatalf("first Fetch: %v", err)
	}
	time.Sleep(time.Millisecond)
	if _, err := p.Fetch(ctx); err != nil {
		t.Fatalf("second Fetch: %v", err)
	}
	if n := hits.Load(); n != 2 {
		t.Fatalf("remote hit %d times, want 2", n)
	}
}

func TestFetchSourceUnavailable(t *testing.T) {
	t.Parallel()
	p, srv := newTestProvider(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(samplePage))
	}, time.Hour)
	srv.Close()

	_, err := p.Fetch(context.Background())
	if !errors.Is(err, ErrSourceUnavailable) {
		t.Fatalf("err = %v, want ErrSourceUnavailable", err)
	}
}

func TestFetchBadStatus(t *testing.T) {
	t.Parallel()
	p, _ := newTestProvider(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}, time.Hour)

	_, err := p.Fetch(context.Background())
	if !errors.Is(err, ErrSourceUnavailable) {
		t.Fatalf("err = %v, want ErrSourceUnavailable", err)
	}
}

func TestFetchParseMismatch(t *testing.T) {
	t.Parallel()
	// Two headings, one list: positional pairing is impossible.
	page := `<html><body>
		<span class="mntl-sc-block-heading__text">A</span>
		<span class="mntl-sc-block-heading__text">B</span>
		<ol class="mntl-sc-block"><li>only one</li></ol>
	</body></html>`
	p, _ := newTestProvider(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(page))
	}, time.Hour)

	_, err := p.Fetch(context.Background())
	if !errors.Is(err, ErrParse) {
		t.Fatalf("err = %v, want ErrParse", err)
	}
}

func TestPick(t *testing.T) {
	t.Parallel()
	p, _ := newTestProvider(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(samplePage))
	}, time.Hour)

	rng := rand.New(rand.NewSource(1))
	cat, err := p.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	for i := 0; i < 10; i++ {
		topic, compliment := Pick(cat, rng)
		list, ok := cat[topic]
		if !ok {
			t.Fatalf("unknown topic %q", topic)
		}
		found := false
		for _, c := range list {
			if c == compliment {
				found = true
				break
			}
		}
		if !found {
			t.Fatalf("compliment %q not in topic %q", compliment, topic)
		}
	}
}
