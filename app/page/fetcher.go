package page

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

var ErrContentNotFound = errors.New("post content not found")

const (
	DefaultFrameSelector   = "iframe#mainFrame"
	DefaultContentSelector = ".se-main-container"
)

type Options struct {
	UserAgent       string
	FrameSelector   string
	ContentSelector string
	Timeout         time.Duration
	// Fallback enables readability extraction when the content region is missing.
	Fallback bool
}

// Fetcher downloads a blog post and returns the text of its content region.
// Blog pages wrap the post in a frame; the frame document is fetched
// separately and searched for the content region.
type Fetcher struct {
	httpClient       *http.Client
	userAgent        string
	frameSelector    string
	contentSelector  string
	timeout          time.Duration
	contentExtractor *ContentExtractor
}

func NewFetcher(httpClient *http.Client, opts Options) *Fetcher {
	f := &Fetcher{
		httpClient:      httpClient,
		userAgent:       opts.UserAgent,
		frameSelector:   opts.FrameSelector,
		contentSelector: opts.ContentSelector,
		timeout:         opts.Timeout,
	}

	if f.frameSelector == "" {
		f.frameSelector = DefaultFrameSelector
	}
	if f.contentSelector == "" {
		f.contentSelector = DefaultContentSelector
	}
	if f.timeout <= 0 {
		f.timeout = 30 * time.Second
	}
	if opts.Fallback {
		f.contentExtractor = NewContentExtractor()
	}

	return f
}

// Fetch returns the body text of the post at postURL. A page without the
// content frame or region yields ErrContentNotFound unless the readability
// fallback is enabled and finds something.
func (f *Fetcher) Fetch(ctx context.Context, postURL string) (string, error) {
	data, pageURL, err := f.get(ctx, postURL)
	if err != nil {
		return "", err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to parse page: %w", err)
	}

	// Mobile pages carry the content inline.
	if text, found := f.regionText(doc); found {
		return text, nil
	}

	frame := doc.Find(f.frameSelector).First()
	src, ok := frame.Attr("src")
	if !ok || strings.TrimSpace(src) == "" {
		return f.fallback(data, pageURL)
	}

	frameURL, err := pageURL.Parse(strings.TrimSpace(src))
	if err != nil {
		return "", fmt.Errorf("invalid frame src %q: %w", src, err)
	}

	frameData, frameURL, err := f.get(ctx, frameURL.String())
	if err != nil {
		return "", fmt.Errorf("failed to fetch content frame: %w", err)
	}

	frameDoc, err := goquery.NewDocumentFromReader(bytes.NewReader(frameData))
	if err != nil {
		return "", fmt.Errorf("failed to parse content frame: %w", err)
	}

	if text, found := f.regionText(frameDoc); found {
		return text, nil
	}

	return f.fallback(frameData, frameURL)
}

// regionText reports whether the content region exists. A located region
// with no text, such as an image-only post, still counts as found.
func (f *Fetcher) regionText(doc *goquery.Document) (string, bool) {
	region := doc.Find(f.contentSelector).First()
	if region.Length() == 0 {
		return "", false
	}
	return Text(region.Nodes[0]), true
}

func (f *Fetcher) fallback(data []byte, pageURL *url.URL) (string, error) {
	if f.contentExtractor == nil {
		return "", ErrContentNotFound
	}

	text, err := f.contentExtractor.Run(data, pageURL)
	if err != nil {
		slog.Debug("Readability fallback failed", "url", pageURL.String(), "error", err)
		return "", ErrContentNotFound
	}

	return text, nil
}

func (f *Fetcher) get(ctx context.Context, rawURL string) ([]byte, *url.URL, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, "GET", rawURL, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to fetch page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return data, resp.Request.URL, nil
}
