package scraper

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/benhicks2/tt-scraper/internal/config"
	"github.com/benhicks2/tt-scraper/internal/model"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCrawlerConfig() config.CrawlerConfig {
	return config.CrawlerConfig{
		UserAgent:   "test-agent",
		Parallelism: 1,
		MaxPages:    2,
	}
}

// newTestMegaspinSource points the spider at a fixture server instead of the
// real store.
func newTestMegaspinSource(t *testing.T, srv *httptest.Server, category model.Category) *MegaspinSource {
	t.Helper()
	u, err := url.Parse(srv.URL)
	require.NoError(t, err)

	s := NewMegaspinSource(category, testCrawlerConfig(), zerolog.Nop())
	s.domain = u.Hostname()
	s.startURL = srv.URL + "/store/default.asp?cid=rubbers&type=All"
	return s
}

func TestMegaspinScrape(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/store/default.asp", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, `<!DOCTYPE html>
<html>
<body>
	<div class="product-list">
		<div class="product-card">
			<div class="product-name"><a href="/store/tenergy-05.html">Butterfly Tenergy 05</a></div>
			<div class="product-price">
				<span class="main_price_usd">$69.</span><span class="main_price_usd_cents">99</span>
			</div>
		</div>
		<div class="product-card">
			<div class="product-name"><a href="/store/hurricane-3.html">DHS Hurricane 3</a></div>
			<div class="product-price">
				<span class="main_price_usd">$12.</span><span class="main_price_usd_cents">50</span>
			</div>
		</div>
		<div class="product-card">
			<div class="product-name"><a href="">Broken card without a link</a></div>
		</div>
	</div>
</body>
</html>`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	s := newTestMegaspinSource(t, srv, model.CategoryRubber)

	var observations []model.Observation
	err := s.Scrape(context.Background(), func(obs model.Observation) {
		observations = append(observations, obs)
	})

	require.NoError(t, err)
	// The card without a link is skipped.
	require.Len(t, observations, 2)

	assert.Equal(t, "Butterfly Tenergy 05", observations[0].Name)
	assert.Equal(t, "https://"+s.domain+"/store/tenergy-05.html", observations[0].URL)
	assert.Equal(t, "$69.99", observations[0].Price)
	assert.Equal(t, model.CategoryRubber, observations[0].Category)

	assert.Equal(t, "DHS Hurricane 3", observations[1].Name)
	assert.Equal(t, "$12.50", observations[1].Price)
}

func TestMegaspinScrape_CancelledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("request made despite cancelled context")
	}))
	defer srv.Close()

	s := newTestMegaspinSource(t, srv, model.CategoryRubber)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := s.Scrape(ctx, func(model.Observation) {
		t.Error("observation emitted despite cancelled context")
	})

	assert.ErrorIs(t, err, context.Canceled)
}

func TestRegistry(t *testing.T) {
	cfg := testCrawlerConfig()
	rubberSrc := NewMegaspinSource(model.CategoryRubber, cfg, zerolog.Nop())
	bladeSrc := NewMegaspinSource(model.CategoryBlade, cfg, zerolog.Nop())

	r := NewRegistry(rubberSrc, bladeSrc)

	require.Len(t, r.For(model.CategoryRubber), 1)
	assert.Equal(t, "rubber_megaspin", r.For(model.CategoryRubber)[0].Name())
	require.Len(t, r.For(model.CategoryBlade), 1)
	assert.Empty(t, r.For(model.Category("paddle")))
}
