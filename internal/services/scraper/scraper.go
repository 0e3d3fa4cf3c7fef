// Package scraper extracts text snippets and links from documentation pages.
package scraper

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-shiori/go-readability"
	"github.com/onegreenvn/tutorial-bundler-backend/internal/config"
	"github.com/onegreenvn/tutorial-bundler-backend/internal/models"
	"github.com/sirupsen/logrus"
)

const (
	contentSelectors = "h1, h2, h3, p, li, .content, .documentation, #main, main, article"
	minSnippetLength = 20
	maxBodyBytes     = 10 << 20
)

var (
	whitespacePattern = regexp.MustCompile(`\s+`)
	citationPattern   = regexp.MustCompile(`\[\d+\]`)
	navigationTerms   = []string{"home", "search", "login", "sign up", "contact", "about us"}
)

// Scraper fetches one page and extracts its meaningful text
type Scraper struct {
	client      *http.Client
	userAgent   string
	maxSnippets int
	maxLinks    int
}

func NewScraper(cfg config.ScraperConfig) *Scraper {
	return &Scraper{
		client:      &http.Client{Timeout: cfg.Timeout},
		userAgent:   cfg.UserAgent,
		maxSnippets: cfg.MaxSnippets,
		maxLinks:    cfg.MaxLinks,
	}
}

// NormalizeURL adds an https scheme when none is given
func NormalizeURL(raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("empty url")
	}
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid url %q: %w", raw, err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("invalid url %q: missing host", raw)
	}
	return u, nil
}

// Crawl fetches rawURL and returns its snippets and same-host links
func (s *Scraper) Crawl(ctx context.Context, rawURL string) (*models.CrawlResult, error) {
	target, err := NormalizeURL(rawURL)
	if err != nil {
		return nil, err
	}

	body, err := s.fetch(ctx, target.String())
	if err != nil {
		return nil, err
	}

	result, err := s.Extract(target, body)
	if err != nil {
		return nil, err
	}
	logrus.Infof("Crawled %d unique content chunks and %d links from %s", len(result.Content), len(result.Links), result.URL)
	return result, nil
}

func (s *Scraper) fetch(ctx context.Context, target string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", s.userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", target, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch %s, status code: %d", target, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return body, nil
}

// Extract parses an already fetched page
func (s *Scraper) Extract(pageURL *url.URL, body []byte) (*models.CrawlResult, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	result := &models.CrawlResult{
		URL:   pageURL.String(),
		Title: strings.TrimSpace(doc.Find("title").First().Text()),
		Links: s.links(doc, pageURL),
	}
	result.Content = s.snippets(doc)

	if len(result.Content) == 0 {
		article, err := readability.NewParser().Parse(bytes.NewReader(body), pageURL)
		if err != nil {
			logrus.Warnf("Readability fallback failed for %s: %v", pageURL, err)
		} else {
			if result.Title == "" {
				result.Title = article.Title
			}
			if articleDoc, err := goquery.NewDocumentFromReader(strings.NewReader(article.Content)); err == nil {
				result.Content = s.snippets(articleDoc)
			}
		}
	}
	return result, nil
}

func (s *Scraper) snippets(doc *goquery.Document) []string {
	seen := make(map[string]bool)
	var out []string
	doc.Find(contentSelectors).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		text := cleanText(sel.Text())
		if len(text) > minSnippetLength && !isNavigation(text) && !seen[text] {
			seen[text] = true
			out = append(out, text)
		}
		return s.maxSnippets <= 0 || len(out) < s.maxSnippets
	})
	return out
}

func (s *Scraper) links(doc *goquery.Document, base *url.URL) []string {
	seen := make(map[string]bool)
	var out []string
	doc.Find("a[href]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		href, _ := sel.Attr("href")
		ref, err := url.Parse(strings.TrimSpace(href))
		if err != nil {
			return true
		}
		abs := base.ResolveReference(ref)
		abs.Fragment = ""
		if (abs.Scheme != "http" && abs.Scheme != "https") || !strings.EqualFold(abs.Host, base.Host) {
			return true
		}
		link := abs.String()
		if !seen[link] {
			seen[link] = true
			out = append(out, link)
		}
		return s.maxLinks <= 0 || len(out) < s.maxLinks
	})
	return out
}

func cleanText(text string) string {
	text = citationPattern.ReplaceAllString(text, "")
	return strings.TrimSpace(whitespacePattern.ReplaceAllString(text, " "))
}

func isNavigation(text string) bool {
	lower := strings.ToLower(text)
	for _, term := range navigationTerms {
		if strings.Contains(lower, term) {
			return true
		}
	}
	return false
}
