package models

// CrawlResult is what the scraper extracted from one documentation page
type CrawlResult struct {
	URL     string   `json:"url" example:"https://docs.example.com"`
	Title   string   `json:"title" example:"Example Docs"`
	Content []string `json:"content"`
	Links   []string `json:"links"`
}

// GenerateRequest is the payload of one remote content generation call
type GenerateRequest struct {
	Item              OutlineItem `json:"item"`
	ContentType       ContentType `json:"content_type"`
	SourceURL         string      `json:"source_url,omitempty"`
	EnhancementPrompt string      `json:"enhancement_prompt,omitempty"`
	ExistingContent   string      `json:"existing_content,omitempty"`
}

// GenerateMetadata describes how a generation call was performed
type GenerateMetadata struct {
	UsedFallbackURL bool   `json:"used_fallback_url"`
	CrawledURL      string `json:"crawled_url,omitempty"`
	Backend         string `json:"backend,omitempty" example:"openai/gpt-4o-mini"`
}

// GenerateResponse is the result of one remote content generation call
type GenerateResponse struct {
	Content  string           `json:"content"`
	Metadata GenerateMetadata `json:"metadata"`
}

// IdeaProposal is the validated result of an idea-generation call.
// Items is nil exactly when RateLimit is set.
type IdeaProposal struct {
	Items     []OutlineItem  `json:"items"`
	RateLimit *RateLimitInfo `json:"rate_limit,omitempty"`
}
