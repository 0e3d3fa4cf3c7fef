// Package ideas turns a crawl result into validated tutorial proposals.
package ideas

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/onegreenvn/tutorial-bundler-backend/internal/models"
	"github.com/onegreenvn/tutorial-bundler-backend/internal/services/failover"
	"github.com/onegreenvn/tutorial-bundler-backend/internal/services/llm"
	"github.com/sirupsen/logrus"
)

const (
	maxPromptSnippets = 5
	maxPromptLinks    = 40
	// used when a rate-limited backend gave no Retry-After hint
	defaultRetryAfterSeconds = 60
)

var errNoValidItems = errors.New("response contained no usable tutorial")

// Completer performs one bounded remote call against a backend id
type Completer interface {
	Complete(ctx context.Context, backend string, prompt llm.Prompt) (string, error)
}

// Service proposes tutorial outlines for crawled documentation
type Service struct {
	completer Completer
	backends  []string
}

func NewService(completer Completer, backends []string) *Service {
	return &Service{
		completer: completer,
		backends:  backends,
	}
}

// Propose never fails: it returns validated items, a rate limit notice with nil
// items, or a single fallback item.
func (s *Service) Propose(ctx context.Context, crawl models.CrawlResult) *models.IdeaProposal {
	allowed := allowList(crawl)
	prompt := buildPrompt(crawl)

	items, err := failover.Run(ctx, s.backends, func(ctx context.Context, backend string) ([]models.OutlineItem, error) {
		response, err := s.completer.Complete(ctx, backend, prompt)
		if err != nil {
			return nil, err
		}
		raw, strategy, err := parseResponse(response)
		if err != nil {
			return nil, fmt.Errorf("backend %s: %w", backend, err)
		}
		items := normalize(raw, crawl.URL, allowed)
		if len(items) == 0 {
			return nil, fmt.Errorf("backend %s: %w", backend, errNoValidItems)
		}
		logrus.Infof("Backend %s proposed %d tutorials for %s (parsed with %s strategy)", backend, len(items), crawl.URL, strategy)
		return items, nil
	})
	if err == nil {
		return &models.IdeaProposal{Items: items}
	}

	if info := rateLimitInfo(err); info != nil {
		logrus.Warnf("Idea generation for %s is rate limited, retry in %ds", crawl.URL, info.RetryAfterSeconds)
		return &models.IdeaProposal{RateLimit: info}
	}

	logrus.Errorf("Idea generation for %s failed, using fallback tutorial: %v", crawl.URL, err)
	return &models.IdeaProposal{Items: []models.OutlineItem{Fallback(crawl.URL)}}
}

// Fallback is the deterministic proposal used when no backend produced ideas
func Fallback(sourceURL string) models.OutlineItem {
	return models.OutlineItem{
		ID:           uuid.NewSHA1(uuid.NameSpaceURL, []byte("fallback:"+sourceURL)).String(),
		Title:        "Understanding Basic Concepts",
		Summary:      "Learn the fundamental concepts from this documentation",
		Steps:        []string{"Introduction", "Core Concepts", "Practical Examples", "Next Steps"},
		Difficulty:   models.DifficultyBeginner,
		CostEstimate: models.CostEstimate{Min: 150, Max: 350},
		SourceURL:    sourceURL,
	}
}

// rateLimitInfo returns nil unless at least one attempt was rate limited.
// The smallest positive retry hint wins.
func rateLimitInfo(err error) *models.RateLimitInfo {
	var exhausted *failover.ExhaustedError
	if !errors.As(err, &exhausted) {
		return nil
	}
	limited := false
	retry := 0
	for _, attempt := range exhausted.Attempts {
		if !llm.IsRateLimit(attempt.Err) {
			continue
		}
		limited = true
		if d, ok := llm.RetryAfter(attempt.Err); ok {
			secs := int(math.Ceil(d.Seconds()))
			if retry == 0 || secs < retry {
				retry = secs
			}
		}
	}
	if !limited {
		return nil
	}
	if retry == 0 {
		retry = defaultRetryAfterSeconds
	}
	return &models.RateLimitInfo{
		RetryAfterSeconds: retry,
		Message:           fmt.Sprintf("Rate limit reached. Please try again in %d seconds.", retry),
	}
}

func normalize(raw []rawItem, crawlURL string, allowed map[string]string) []models.OutlineItem {
	items := make([]models.OutlineItem, 0, len(raw))
	seen := make(map[string]bool, len(raw))

	for i, r := range raw {
		title := strings.TrimSpace(r.Title)
		steps := r.steps()
		if title == "" || len(steps) == 0 {
			logrus.Warnf("Dropping proposed tutorial %d: missing title or outline", i)
			continue
		}

		id := r.id()
		if id == "" || seen[id] {
			id = uuid.NewString()
		}
		seen[id] = true

		cost := r.cost()
		if cost.Min < 0 {
			cost.Min = 0
		}
		if cost.Max < 0 {
			cost.Max = 0
		}
		if cost.Min > cost.Max {
			cost.Min, cost.Max = cost.Max, cost.Min
		}

		source, ok := allowed[canonicalURL(r.sourceURL())]
		if !ok {
			logrus.Warnf("Tutorial %q referenced %q which was not discovered by the crawl, using %s", title, r.sourceURL(), crawlURL)
			source = crawlURL
		}

		items = append(items, models.OutlineItem{
			ID:           id,
			Title:        title,
			Summary:      strings.TrimSpace(r.Summary),
			Steps:        steps,
			Difficulty:   models.ParseDifficulty(r.Difficulty),
			CostEstimate: models.CostEstimate{Min: cost.Min, Max: cost.Max},
			SourceURL:    source,
		})
	}
	return items
}

// allowList maps the canonical form of every discovered URL to the URL as it
// was discovered. Proposals are matched loosely but only ever return the latter.
func allowList(crawl models.CrawlResult) map[string]string {
	allowed := make(map[string]string, len(crawl.Links)+1)
	for _, u := range append([]string{crawl.URL}, crawl.Links...) {
		key := canonicalURL(u)
		if _, ok := allowed[key]; !ok && key != "" {
			allowed[key] = u
		}
	}
	return allowed
}

// canonicalURL drops the fragment and a trailing slash and lowercases the host
func canonicalURL(raw string) string {
	raw = strings.TrimSpace(raw)
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return strings.TrimSuffix(raw, "/")
	}
	u.Fragment = ""
	u.Host = strings.ToLower(u.Host)
	u.Scheme = strings.ToLower(u.Scheme)
	return strings.TrimSuffix(u.String(), "/")
}

const systemPrompt = "You are a technical content expert. Always respond with valid JSON."

func buildPrompt(crawl models.CrawlResult) llm.Prompt {
	snippets := crawl.Content
	if len(snippets) > maxPromptSnippets {
		snippets = snippets[:maxPromptSnippets]
	}
	links := append([]string{crawl.URL}, crawl.Links...)
	if len(links) > maxPromptLinks {
		links = links[:maxPromptLinks]
	}

	var b strings.Builder
	b.WriteString("You are an expert technical content strategist. Analyze this documentation content and suggest 3-5 tutorial ideas.\n\n")
	if crawl.Title != "" {
		fmt.Fprintf(&b, "DOCUMENTATION TITLE: %s\n\n", crawl.Title)
	}
	fmt.Fprintf(&b, "DOCUMENTATION CONTENT:\n%s\n\n", strings.Join(snippets, "\n\n"))
	fmt.Fprintf(&b, "AVAILABLE SOURCE URLS (use only these for sourceUrl):\n- %s\n\n", strings.Join(links, "\n- "))
	b.WriteString(`Generate tutorial scaffolds with:
- Clear, action-oriented titles
- Brief summaries that explain the value
- Logical learning progression in the outline
- Appropriate difficulty level (beginner/intermediate/advanced)
- Realistic cost estimates for tutorial creation ($100-500 range)
- The most specific source URL from the list above

Respond with valid JSON only:
{
  "tutorials": [
    {
      "id": "unique-id",
      "title": "Tutorial Title",
      "summary": "Brief description",
      "outline": ["Section 1", "Section 2", "Section 3"],
      "difficulty": "beginner|intermediate|advanced",
      "estimatedCost": {"min": 100, "max": 300},
      "sourceUrl": "one of the source URLs above"
    }
  ]
}
`)
	return llm.Prompt{System: systemPrompt, User: b.String()}
}
