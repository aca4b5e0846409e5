package snapshot

import (
	"context"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"

	"github.com/botdeck/botdeck/server/internal/config"
)

const httpRetries = 2

// HTTPSource fetches <base_url>/{bots,workers,logs}.json.
type HTTPSource struct {
	client  *resty.Client
	baseURL string
}

// NewHTTPSource returns an HTTPSource sending cfg.Headers with every request.
func NewHTTPSource(cfg config.HTTPSourceConfig) *HTTPSource {
	base := strings.TrimRight(cfg.BaseURL, "/")
	client := resty.New().
		SetBaseURL(base).
		SetHeader("Accept", "application/json").
		SetHeaders(cfg.Headers).
		SetRetryCount(httpRetries)
	return &HTTPSource{client: client, baseURL: base}
}

// Name implements Source.
func (s *HTTPSource) Name() string { return "http:" + s.baseURL }

// Fetch implements Source.
func (s *HTTPSource) Fetch(ctx context.Context) (*Raw, error) {
	docs := make(map[string][]byte, 3)
	for _, name := range []string{Bots, Workers, Logs} {
		path := "/" + name + ".json"
		resp, err := s.client.R().SetContext(ctx).Get(path)
		if err != nil {
			return nil, errors.Wrapf(err, "GET %s", path)
		}
		if resp.IsError() {
			return nil, errors.Errorf("GET %s: unexpected status %s", path, resp.Status())
		}
		docs[name] = resp.Body()
	}
	return decodeAll("json", docs)
}
