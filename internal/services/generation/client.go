// Package generation produces tutorial content for one outline item through
// the configured remote backends.
package generation

import (
	"context"
	"fmt"
	"strings"

	"github.com/onegreenvn/tutorial-bundler-backend/internal/models"
	"github.com/onegreenvn/tutorial-bundler-backend/internal/services/failover"
	"github.com/onegreenvn/tutorial-bundler-backend/internal/services/llm"
	"github.com/sirupsen/logrus"
)

const maxContextSnippets = 10

// Completer performs one bounded remote call against a backend id
type Completer interface {
	Complete(ctx context.Context, backend string, prompt llm.Prompt) (string, error)
}

// Crawler fetches documentation text used as generation context
type Crawler interface {
	Crawl(ctx context.Context, url string) (*models.CrawlResult, error)
}

// Client generates content for one (item, content type) unit
type Client struct {
	completer Completer
	crawler   Crawler
	backends  []string
}

func NewClient(completer Completer, crawler Crawler, backends []string) *Client {
	return &Client{
		completer: completer,
		crawler:   crawler,
		backends:  backends,
	}
}

// Backends returns the generation backends tried in order
func (c *Client) Backends() []string {
	return c.backends
}

// GenerateContent prepares the prompt once and runs it through the backends in order.
// It fails with *failover.ExhaustedError when every backend failed.
func (c *Client) GenerateContent(ctx context.Context, req models.GenerateRequest) (*models.GenerateResponse, error) {
	if !req.ContentType.Valid() {
		return nil, fmt.Errorf("unknown content type %q", req.ContentType)
	}

	prompt, meta := c.Prepare(ctx, req)

	type result struct {
		content string
		backend string
	}
	res, err := failover.Run(ctx, c.backends, func(ctx context.Context, backend string) (result, error) {
		content, err := c.Generate(ctx, backend, prompt)
		return result{content: content, backend: backend}, err
	})
	if err != nil {
		return nil, err
	}

	meta.Backend = res.backend
	return &models.GenerateResponse{Content: res.content, Metadata: meta}, nil
}

// Generate performs one remote call with no retries
func (c *Client) Generate(ctx context.Context, backend string, prompt llm.Prompt) (string, error) {
	return c.completer.Complete(ctx, backend, prompt)
}

// Prepare builds the prompt for req. Fresh documentation context is crawled from the
// item's own source, falling back to the request's source URL; enhancement requests
// work from the existing content and skip crawling. Crawl failures never fail the call.
func (c *Client) Prepare(ctx context.Context, req models.GenerateRequest) (llm.Prompt, models.GenerateMetadata) {
	var meta models.GenerateMetadata

	if req.EnhancementPrompt != "" {
		return enhancementPrompt(req), meta
	}

	var snippets []string
	snippets, meta.CrawledURL = c.crawlContext(ctx, req.Item.SourceURL)
	if len(snippets) == 0 && req.SourceURL != "" && req.SourceURL != req.Item.SourceURL {
		snippets, meta.CrawledURL = c.crawlContext(ctx, req.SourceURL)
		meta.UsedFallbackURL = len(snippets) > 0
		if meta.UsedFallbackURL {
			logrus.Infof("Used fallback URL %s for content generation of %q", req.SourceURL, req.Item.Title)
		}
	}

	if req.ContentType == models.ContentTypeVideo {
		return videoPrompt(req.Item, snippets, meta.UsedFallbackURL), meta
	}
	return textPrompt(req.Item, snippets, meta.UsedFallbackURL), meta
}

func (c *Client) crawlContext(ctx context.Context, url string) ([]string, string) {
	if c.crawler == nil || url == "" {
		return nil, ""
	}
	result, err := c.crawler.Crawl(ctx, url)
	if err != nil {
		logrus.Warnf("Crawling %s failed, continuing without fresh content: %v", url, err)
		return nil, ""
	}
	if result == nil || len(result.Content) == 0 {
		return nil, ""
	}
	snippets := result.Content
	if len(snippets) > maxContextSnippets {
		snippets = snippets[:maxContextSnippets]
	}
	return snippets, url
}

const systemPrompt = "You are an expert technical content creator. Create comprehensive, engaging content that helps people learn effectively."

const fallbackNotice = "NOTE: The specific documentation page was unavailable, so general documentation content was used instead."

func itemHeader(item models.OutlineItem, snippets []string, usedFallback bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Tutorial Title: %s\n", item.Title)
	fmt.Fprintf(&b, "Summary: %s\n", item.Summary)
	fmt.Fprintf(&b, "Difficulty: %s\n", item.Difficulty)
	fmt.Fprintf(&b, "Outline: %s\n\n", strings.Join(item.Steps, " -> "))
	if usedFallback {
		b.WriteString(fallbackNotice + "\n\n")
	}
	b.WriteString("Documentation Content:\n")
	if len(snippets) == 0 {
		b.WriteString("(no documentation content available)\n")
	} else {
		b.WriteString(strings.Join(snippets, "\n\n"))
		b.WriteString("\n")
	}
	return b.String()
}

func textPrompt(item models.OutlineItem, snippets []string, usedFallback bool) llm.Prompt {
	var b strings.Builder
	b.WriteString("Create a comprehensive text tutorial based on this outline and documentation.\n\n")
	b.WriteString(itemHeader(item, snippets, usedFallback))
	b.WriteString(`
Create a complete tutorial in Markdown format with:
- Engaging introduction
- Step-by-step instructions for each outline item
- Code examples where relevant
- Practical tips and best practices
- Common pitfalls to avoid
- Conclusion with next steps
`)
	fmt.Fprintf(&b, "\nMake it practical, actionable, and suitable for the %s level.\n", item.Difficulty)
	return llm.Prompt{System: systemPrompt, User: b.String()}
}

func videoPrompt(item models.OutlineItem, snippets []string, usedFallback bool) llm.Prompt {
	var b strings.Builder
	b.WriteString("Create a video script for a tutorial based on this outline and documentation.\n\n")
	b.WriteString(itemHeader(item, snippets, usedFallback))
	b.WriteString(`
Create a video script with:
- Scene descriptions and visual cues
- Narration/dialogue
- Timing estimates
- On-screen text suggestions
- Transitions between sections
- Call-to-action at the end
`)
	fmt.Fprintf(&b, "\nMake it engaging, visual, and suitable for the %s level. Include time markers and keep it around 5-10 minutes total.\n", item.Difficulty)
	return llm.Prompt{System: systemPrompt, User: b.String()}
}

func enhancementPrompt(req models.GenerateRequest) llm.Prompt {
	kind, format := "tutorial content", "Markdown"
	if req.ContentType == models.ContentTypeVideo {
		kind, format = "video script", "script format"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Please enhance the following %s based on the user's request.\n\n", kind)
	fmt.Fprintf(&b, "USER'S ENHANCEMENT REQUEST: %s\n\n", req.EnhancementPrompt)
	fmt.Fprintf(&b, "EXISTING CONTENT:\n%s\n\n", req.ExistingContent)
	b.WriteString("Please apply the requested enhancements while maintaining:\n")
	b.WriteString("- The core structure and information\n")
	b.WriteString("- Technical accuracy\n")
	b.WriteString("- Completeness of the content\n")
	fmt.Fprintf(&b, "- Appropriate format (%s)\n\n", format)
	b.WriteString("Return the enhanced content in the same format as the original.\n")
	return llm.Prompt{System: systemPrompt, User: b.String()}
}
