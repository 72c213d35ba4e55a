package bypass

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"time"

	"github.com/danniel-isiah-libor/talos-io/internal/domain"
)

// harvestUserAgent mimics a desktop browser; the challenge page rejects
// obvious bot agents outright.
const harvestUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) " +
	"AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// HTTPHarvester collects store clearance cookies by walking the storefront
// with a browser-like client. It covers the plain set-cookie handshake;
// interactive JavaScript challenges are out of scope and surface as an empty
// harvest, which the pipeline tolerates.
type HTTPHarvester struct {
	storeURL string
	client   *http.Client
	logger   *slog.Logger
}

// NewHTTPHarvester creates a harvester against the given storefront URL.
func NewHTTPHarvester(storeURL string, timeout time.Duration, log *slog.Logger) *HTTPHarvester {
	if log == nil {
		log = slog.Default()
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPHarvester{
		storeURL: storeURL,
		client:   &http.Client{Timeout: timeout},
		logger:   log.With("component", "cookie_harvester"),
	}
}

// Harvest fetches the storefront with a fresh cookie jar and returns whatever
// cookies the store set for its domain.
func (h *HTTPHarvester) Harvest(ctx context.Context, task domain.Task) ([]domain.Cookie, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.storeURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build storefront request: %w", err)
	}
	req.Header.Set("User-Agent", harvestUserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	client := &http.Client{
		Timeout: h.client.Timeout,
		Jar:     jar,
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("storefront fetch failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	target, err := url.Parse(h.storeURL)
	if err != nil {
		return nil, fmt.Errorf("invalid store URL: %w", err)
	}

	var cookies []domain.Cookie
	for _, c := range jar.Cookies(target) {
		cookies = append(cookies, domain.Cookie{
			Name:   c.Name,
			Value:  c.Value,
			Domain: target.Hostname(),
		})
	}

	h.logger.Debug("harvested storefront cookies",
		"task_id", task.ID,
		"proxy_group", task.ProxyGroup,
		"cookie_count", len(cookies),
		"status", resp.StatusCode)

	return cookies, nil
}
