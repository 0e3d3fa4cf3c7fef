package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"gorm.io/datatypes"
)

// ContentType is one generatable rendition of a tutorial
type ContentType string

const (
	ContentTypeText  ContentType = "text"
	ContentTypeVideo ContentType = "video"
)

// Valid reports whether c is a known content type
func (c ContentType) Valid() bool {
	return c == ContentTypeText || c == ContentTypeVideo
}

// Difficulty of an outline item
type Difficulty string

const (
	DifficultyBeginner     Difficulty = "beginner"
	DifficultyIntermediate Difficulty = "intermediate"
	DifficultyAdvanced     Difficulty = "advanced"
)

// ParseDifficulty maps free text to a difficulty, defaulting to beginner
func ParseDifficulty(s string) Difficulty {
	switch Difficulty(strings.ToLower(strings.TrimSpace(s))) {
	case DifficultyIntermediate:
		return DifficultyIntermediate
	case DifficultyAdvanced:
		return DifficultyAdvanced
	default:
		return DifficultyBeginner
	}
}

// ContentOrigin records who produced a piece of content
type ContentOrigin string

const (
	OriginAI       ContentOrigin = "ai"
	OriginTemplate ContentOrigin = "template"
	OriginUser     ContentOrigin = "user"
)

// CostEstimate is the estimated production cost range of a tutorial
type CostEstimate struct {
	Min float64 `json:"min" validate:"gte=0" example:"150"`
	Max float64 `json:"max" validate:"gtefield=Min" example:"350"`
}

// ContentEntry is one stored rendition of a tutorial
type ContentEntry struct {
	Body      string        `json:"body"`
	Origin    ContentOrigin `json:"origin" example:"ai"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// GeneratedContent holds the generated renditions of an outline item keyed by content type.
// A missing key means the rendition has not been generated yet.
type GeneratedContent struct {
	Entries     map[ContentType]ContentEntry `json:"entries"`
	LastUpdated time.Time                    `json:"last_updated"`
}

// Has reports whether a non-blank rendition exists for t
func (g *GeneratedContent) Has(t ContentType) bool {
	if g == nil {
		return false
	}
	entry, ok := g.Entries[t]
	return ok && strings.TrimSpace(entry.Body) != ""
}

// Get returns the rendition for t
func (g *GeneratedContent) Get(t ContentType) (ContentEntry, bool) {
	if !g.Has(t) {
		return ContentEntry{}, false
	}
	return g.Entries[t], true
}

// Set stores a rendition and bumps LastUpdated
func (g *GeneratedContent) Set(t ContentType, body string, origin ContentOrigin, at time.Time) {
	if g.Entries == nil {
		g.Entries = make(map[ContentType]ContentEntry)
	}
	g.Entries[t] = ContentEntry{Body: body, Origin: origin, UpdatedAt: at}
	g.LastUpdated = at
}

// Clone returns a deep copy
func (g *GeneratedContent) Clone() *GeneratedContent {
	if g == nil {
		return nil
	}
	out := &GeneratedContent{LastUpdated: g.LastUpdated}
	if g.Entries != nil {
		out.Entries = make(map[ContentType]ContentEntry, len(g.Entries))
		for k, v := range g.Entries {
			out.Entries[k] = v
		}
	}
	return out
}

// OutlineItem is a proposed tutorial: the unit of work of the bundling pipeline
type OutlineItem struct {
	ID               string            `json:"id" validate:"required" example:"550e8400-e29b-41d4-a716-446655440000"`
	Title            string            `json:"title" validate:"required" example:"Getting Started with the CLI"`
	Summary          string            `json:"summary" example:"Install the CLI and run your first command"`
	Steps            []string          `json:"steps" validate:"min=1,dive,required"`
	Difficulty       Difficulty        `json:"difficulty" validate:"omitempty,oneof=beginner intermediate advanced" example:"beginner"`
	CostEstimate     CostEstimate      `json:"cost_estimate"`
	SourceURL        string            `json:"source_url" example:"https://docs.example.com/cli"`
	GeneratedContent *GeneratedContent `json:"generated_content,omitempty"`
}

// HasContent reports whether the item already has a rendition for t
func (o *OutlineItem) HasContent(t ContentType) bool {
	return o.GeneratedContent.Has(t)
}

// SetContent stores a rendition on the item
func (o *OutlineItem) SetContent(t ContentType, body string, origin ContentOrigin, at time.Time) {
	if o.GeneratedContent == nil {
		o.GeneratedContent = &GeneratedContent{}
	}
	o.GeneratedContent.Set(t, body, origin, at)
}

// Clone returns a deep copy of the item
func (o OutlineItem) Clone() OutlineItem {
	out := o
	out.Steps = append([]string(nil), o.Steps...)
	out.GeneratedContent = o.GeneratedContent.Clone()
	return out
}

// CloneItems deep-copies a slice of items
func CloneItems(items []OutlineItem) []OutlineItem {
	out := make([]OutlineItem, len(items))
	for i := range items {
		out[i] = items[i].Clone()
	}
	return out
}

// TutorialBatch groups the outline items proposed from one crawl
type TutorialBatch struct {
	ID string `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`

	// Crawl origin
	URL            string         `json:"url" gorm:"type:varchar(2048);not null"`
	Title          string         `json:"title" gorm:"type:varchar(500)"`
	ContentSamples datatypes.JSON `json:"content_samples,omitempty" gorm:"type:jsonb"`
	Links          datatypes.JSON `json:"links,omitempty" gorm:"type:jsonb"`

	// Set when the batch was produced by a regenerate request
	ParentBatchID *string `json:"parent_batch_id,omitempty" gorm:"type:uuid;index"`

	CreatedAt time.Time `json:"created_at"`

	Tutorials []Tutorial `json:"tutorials,omitempty" gorm:"foreignKey:BatchID;constraint:OnDelete:CASCADE"`
}

// TableName specifies the table name for the TutorialBatch model
func (TutorialBatch) TableName() string {
	return "tutorial_batches"
}

// Tutorial is the persisted form of an OutlineItem
type Tutorial struct {
	ID       string `json:"id" gorm:"primaryKey;type:uuid"`
	BatchID  string `json:"batch_id" gorm:"type:uuid;not null;index"`
	Position int    `json:"position" gorm:"not null"`

	Title      string         `json:"title" gorm:"type:varchar(500);not null"`
	Summary    string         `json:"summary" gorm:"type:text"`
	Steps      datatypes.JSON `json:"steps" gorm:"type:jsonb;not null"`
	Difficulty string         `json:"difficulty" gorm:"type:varchar(20);not null"`
	CostMin    float64        `json:"cost_min"`
	CostMax    float64        `json:"cost_max"`
	SourceURL  string         `json:"source_url" gorm:"type:varchar(2048)"`

	// Generated renditions, serialized GeneratedContent
	Content datatypes.JSON `json:"content,omitempty" gorm:"type:jsonb"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for the Tutorial model
func (Tutorial) TableName() string {
	return "tutorials"
}

// ToOutlineItem decodes the row into an OutlineItem
func (t *Tutorial) ToOutlineItem() (OutlineItem, error) {
	item := OutlineItem{
		ID:           t.ID,
		Title:        t.Title,
		Summary:      t.Summary,
		Difficulty:   Difficulty(t.Difficulty),
		CostEstimate: CostEstimate{Min: t.CostMin, Max: t.CostMax},
		SourceURL:    t.SourceURL,
	}
	if len(t.Steps) > 0 {
		if err := json.Unmarshal(t.Steps, &item.Steps); err != nil {
			return item, fmt.Errorf("failed to decode steps of tutorial %s: %w", t.ID, err)
		}
	}
	if len(t.Content) > 0 && string(t.Content) != "null" {
		var content GeneratedContent
		if err := json.Unmarshal(t.Content, &content); err != nil {
			return item, fmt.Errorf("failed to decode content of tutorial %s: %w", t.ID, err)
		}
		item.GeneratedContent = &content
	}
	return item, nil
}

// NewTutorialRow encodes an OutlineItem for persistence
func NewTutorialRow(batchID string, position int, item OutlineItem) (*Tutorial, error) {
	steps, err := json.Marshal(item.Steps)
	if err != nil {
		return nil, fmt.Errorf("failed to encode steps: %w", err)
	}
	row := &Tutorial{
		ID:         item.ID,
		BatchID:    batchID,
		Position:   position,
		Title:      item.Title,
		Summary:    item.Summary,
		Steps:      datatypes.JSON(steps),
		Difficulty: string(item.Difficulty),
		CostMin:    item.CostEstimate.Min,
		CostMax:    item.CostEstimate.Max,
		SourceURL:  item.SourceURL,
	}
	if err := row.SetContent(item.GeneratedContent); err != nil {
		return nil, err
	}
	return row, nil
}

// SetContent replaces the serialized renditions
func (t *Tutorial) SetContent(content *GeneratedContent) error {
	if content == nil {
		t.Content = nil
		return nil
	}
	raw, err := json.Marshal(content)
	if err != nil {
		return fmt.Errorf("failed to encode content: %w", err)
	}
	t.Content = datatypes.JSON(raw)
	return nil
}

// CreateBatchRequest starts a crawl and idea proposal
type CreateBatchRequest struct {
	URL string `json:"url" binding:"required" example:"https://docs.example.com"`
}

// BatchResponse is the API view of a batch
type BatchResponse struct {
	ID             string         `json:"id" example:"550e8400-e29b-41d4-a716-446655440000"`
	URL            string         `json:"url" example:"https://docs.example.com"`
	Title          string         `json:"title" example:"Example Docs"`
	ContentSamples []string       `json:"content_samples,omitempty"`
	Tutorials      []OutlineItem  `json:"tutorials"`
	RateLimit      *RateLimitInfo `json:"rate_limit,omitempty"`
	CreatedAt      string         `json:"created_at" example:"2025-01-21T10:00:00Z"`
}

// BatchSummary is a batch in the batch listing
type BatchSummary struct {
	ID            string  `json:"id" example:"550e8400-e29b-41d4-a716-446655440000"`
	URL           string  `json:"url" example:"https://docs.example.com"`
	Title         string  `json:"title" example:"Example Docs"`
	ParentBatchID *string `json:"parent_batch_id,omitempty"`
	CreatedAt     string  `json:"created_at" example:"2025-01-21T10:00:00Z"`
}

// GenerateContentRequest asks for one rendition of a single tutorial
type GenerateContentRequest struct {
	ContentType       ContentType `json:"content_type" binding:"required,oneof=text video" example:"text"`
	EnhancementPrompt string      `json:"enhancement_prompt,omitempty" example:"Add more code examples"`
}

// UpdateContentRequest stores a user edit
type UpdateContentRequest struct {
	ContentType ContentType `json:"content_type" binding:"required,oneof=text video" example:"text"`
	Body        string      `json:"body" binding:"required"`
}

// GenerateContentResponse is the tutorial after one rendition was generated
type GenerateContentResponse struct {
	Tutorial OutlineItem      `json:"tutorial"`
	Metadata GenerateMetadata `json:"metadata"`
}
