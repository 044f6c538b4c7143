package feed

import (
	"bytes"
	"cmp"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/mmcdole/gofeed"
)

var _ Source = (*RSSSource)(nil)

// RSSSource reads feed records from the RSS/Atom feeds configured in the
// feeds directory.
type RSSSource struct {
	configCache *ConfigCache
	httpClient  *http.Client
	parser      *Parser
	userAgent   string
}

func NewRSSSource(configCache *ConfigCache, httpClient *http.Client, parser *Parser, userAgent string) *RSSSource {
	return &RSSSource{
		configCache: configCache,
		httpClient:  httpClient,
		parser:      parser,
		userAgent:   userAgent,
	}
}

// Records fetches every enabled feed in name order. A feed that fails to
// load is logged and left out.
func (s *RSSSource) Records(ctx context.Context) ([]Record, error) {
	var records []Record

	for _, feedConfig := range s.configCache.GetEnabledConfigs() {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		data, err := s.fetchFeed(ctx, feedConfig)
		if err != nil {
			slog.Warn("Failed to fetch feed", "feed", feedConfig.Name, "url", feedConfig.URL, "error", err)
			continue
		}

		items, err := s.parser.Run(data, feedConfig.Label)
		if err != nil {
			slog.Warn("Failed to parse feed", "feed", feedConfig.Name, "error", err)
			continue
		}

		slog.Debug("Feed loaded", "feed", feedConfig.Name, "items", len(items))
		records = append(records, items...)
	}

	return records, nil
}

func (s *RSSSource) fetchFeed(ctx context.Context, feedConfig *Config) ([]byte, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, time.Duration(feedConfig.Settings.Timeout)*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, "GET", feedConfig.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", s.userAgent)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return data, nil
}

type Parser struct {
	gofeedParser *gofeed.Parser
}

func NewParser() *Parser {
	return &Parser{
		gofeedParser: gofeed.NewParser(),
	}
}

// Run converts feed items to records labeled with sourceLabel. The published
// date is passed through as text; items without a link are dropped.
func (p *Parser) Run(data []byte, sourceLabel string) ([]Record, error) {
	parsed, err := p.gofeedParser.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	records := make([]Record, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		if item == nil || item.Link == "" {
			continue
		}

		records = append(records, Record{
			SourceLabel: cmp.Or(sourceLabel, parsed.Title),
			PostURL:     item.Link,
			PostedAt:    cmp.Or(item.Published, item.Updated),
		})
	}

	return records, nil
}
