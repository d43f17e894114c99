// internal/scraper/scraper.go

// Package scraper implements the plain HTTP search scraper. Search result
// pages are public, so no browser is involved; pages are fetched with resty
// and parsed with goquery.
package scraper

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Config controls a SearchScraper.
type Config struct {
	BaseURL string
	// Delay is the minimum spacing between page requests. Zero disables
	// pacing (tests only; the live site rate-limits).
	Delay time.Duration
	// Client overrides the HTTP client. Nil means a default resty client.
	Client *resty.Client
}

// SearchScraper fetches every result page of an imin search and collects
// the post titles.
type SearchScraper struct {
	client  *resty.Client
	logger  *zap.Logger
	baseURL string
	limiter *rate.Limiter

	// OnProgress, when set, receives human-readable status lines.
	OnProgress func(string)
}

// New builds a scraper. The logger may not be nil.
func New(cfg Config, logger *zap.Logger) *SearchScraper {
	client := cfg.Client
	if client == nil {
		client = resty.New()
	}
	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.Delay > 0 {
		limiter = rate.NewLimiter(rate.Every(cfg.Delay), 1)
	}
	return &SearchScraper{
		client:  client,
		logger:  logger.Named("scraper"),
		baseURL: cfg.BaseURL,
		limiter: limiter,
	}
}

// Run scrapes all search result pages for the given imin number and writes
// the collected titles, newline-joined, to destPath in a single terminal
// write. A cancelled or failed run writes nothing.
func (s *SearchScraper) Run(ctx context.Context, imin, destPath string) (int, error) {
	var titles []string
	page := 1

	for {
		if err := ctx.Err(); err != nil {
			return 0, fmt.Errorf("scrape cancelled: %w", err)
		}
		if err := s.limiter.Wait(ctx); err != nil {
			return 0, fmt.Errorf("scrape cancelled: %w", err)
		}

		s.reportf("fetching page %d", page)
		resp, err := s.client.R().
			SetContext(ctx).
			SetQueryParams(map[string]string{
				"type": "imin",
				"q":    imin,
				"page": strconv.Itoa(page),
			}).
			Get(s.baseURL + "/search")
		if err != nil {
			return 0, fmt.Errorf("search request failed on page %d: %w", page, err)
		}
		if resp.StatusCode() != http.StatusOK {
			s.reportf("page %d returned status %d, stopping", page, resp.StatusCode())
			break
		}

		pageTitles, found, err := extractTitles(resp.Body())
		if err != nil {
			return 0, fmt.Errorf("failed to parse page %d: %w", page, err)
		}
		if !found {
			s.reportf("no post list on page %d, stopping", page)
			break
		}
		if len(pageTitles) == 0 {
			s.reportf("no titles on page %d, stopping", page)
			break
		}

		titles = append(titles, pageTitles...)
		s.reportf("page %d yielded %d titles", page, len(pageTitles))
		s.logger.Debug("Page scraped.", zap.Int("page", page), zap.Int("titles", len(pageTitles)))
		page++
	}

	if len(titles) == 0 {
		return 0, fmt.Errorf("no titles found for imin %s", imin)
	}
	if err := os.WriteFile(destPath, []byte(strings.Join(titles, "\n")), 0o644); err != nil {
		return 0, fmt.Errorf("failed to write result file: %w", err)
	}
	s.reportf("saved %d titles to %s", len(titles), destPath)
	return len(titles), nil
}

func (s *SearchScraper) reportf(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	s.logger.Info(msg)
	if s.OnProgress != nil {
		s.OnProgress(msg)
	}
}

// extractTitles parses one result page. found is false when the post-list
// container is absent, which marks the end of the result set. Notice
// entries are dropped, then the first three remaining entries (the site
// pins three promoted posts on every result page), then the p.title text
// of each survivor is collected.
func extractTitles(body []byte) (titles []string, found bool, err error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, false, err
	}

	list := doc.Find("ul.post-list").First()
	if list.Length() == 0 {
		return nil, false, nil
	}

	entries := list.ChildrenFiltered("li").FilterFunction(func(_ int, sel *goquery.Selection) bool {
		return !sel.HasClass("notice")
	})
	entries.Each(func(i int, sel *goquery.Selection) {
		if i < 3 {
			return
		}
		title := strings.TrimSpace(sel.Find("p.title").First().Text())
		if title != "" {
			titles = append(titles, title)
		}
	})
	return titles, true, nil
}
