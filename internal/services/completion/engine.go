// Package completion fills in the missing content of a batch of outline items.
// Each missing (item, content type) unit is generated remotely; a unit whose
// generation fails gets template content instead, so a run never aborts on a
// unit failure.
package completion

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/onegreenvn/tutorial-bundler-backend/internal/models"
	"github.com/onegreenvn/tutorial-bundler-backend/internal/services/fallback"
	"github.com/onegreenvn/tutorial-bundler-backend/internal/services/llm"
	"github.com/onegreenvn/tutorial-bundler-backend/internal/services/progress"
	"github.com/sirupsen/logrus"
)

// ContentGenerator generates one unit, failing over between backends internally
type ContentGenerator interface {
	GenerateContent(ctx context.Context, req models.GenerateRequest) (*models.GenerateResponse, error)
}

// ValidationError rejects a run before any unit is attempted
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Unit is one (item, content type) pair that needs content
type Unit struct {
	Index       int
	ItemID      string
	ItemTitle   string
	ContentType models.ContentType
}

// RunInput is the request of one completion run
type RunInput struct {
	Items       []models.OutlineItem
	ContentType models.BundleContentType
	// SourceURL is the crawl origin, used when an item's own source is unavailable
	SourceURL string
}

// Result is the outcome of a run. Items are copies; the input is never modified.
type Result struct {
	Items []models.OutlineItem
	Stats models.GenerationStats
	// Units is the number of units that were missing at run start
	Units int
	// FallbackTitles lists items that received template content, in order, without duplicates
	FallbackTitles []string
	Cancelled      bool
}

// Engine runs completion passes
type Engine struct {
	generator ContentGenerator
	pacer     *Pacer
	validate  *validator.Validate
	now       func() time.Time
}

func NewEngine(generator ContentGenerator, pacer *Pacer) *Engine {
	if pacer == nil {
		pacer = &Pacer{}
	}
	return &Engine{
		generator: generator,
		pacer:     pacer,
		validate:  validator.New(),
		now:       time.Now,
	}
}

// MissingUnits lists the units without content in item order, text before video
func MissingUnits(items []models.OutlineItem, types []models.ContentType) []Unit {
	var units []Unit
	for i := range items {
		for _, ct := range types {
			if !items[i].HasContent(ct) {
				units = append(units, Unit{Index: i, ItemID: items[i].ID, ItemTitle: items[i].Title, ContentType: ct})
			}
		}
	}
	return units
}

// Validate checks the input of a run
func (e *Engine) Validate(in RunInput) error {
	if in.ContentType.Expand() == nil {
		return &ValidationError{Field: "content_type", Reason: fmt.Sprintf("unknown content type %q", in.ContentType)}
	}
	seen := make(map[string]bool, len(in.Items))
	for i := range in.Items {
		if err := e.validate.Struct(in.Items[i]); err != nil {
			return &ValidationError{Field: fmt.Sprintf("items[%d]", i), Reason: err.Error()}
		}
		if seen[in.Items[i].ID] {
			return &ValidationError{Field: fmt.Sprintf("items[%d].id", i), Reason: fmt.Sprintf("duplicate id %q", in.Items[i].ID)}
		}
		seen[in.Items[i].ID] = true
	}
	return nil
}

// Run generates every missing unit, emitting progress scaled into r.
//
// Cancellation is honored only between units: an in-flight remote call is not
// interrupted, and a unit is fully committed (generated or templated) before
// ctx is checked. A cancelled run returns the partial result together with an
// error wrapping ctx.Err().
func (e *Engine) Run(ctx context.Context, in RunInput, reporter progress.Reporter, r progress.Range) (*Result, error) {
	if reporter == nil {
		reporter = progress.Discard
	}
	if err := e.Validate(in); err != nil {
		return nil, err
	}

	items := models.CloneItems(in.Items)
	units := MissingUnits(items, in.ContentType.Expand())
	result := &Result{Items: items, Units: len(units)}

	reporter.Emit(models.ProgressEvent{
		Type:     models.EventGenerating,
		Message:  fmt.Sprintf("Generating content for %d missing units across %d tutorials", len(units), len(items)),
		Progress: r.Start,
	})

	if len(units) == 0 {
		reporter.Emit(models.ProgressEvent{
			Type:     models.EventCompleted,
			Message:  "All requested content is already present",
			Progress: r.End,
		})
		return result, nil
	}

	result.Stats.Total = len(items)
	fallbackSeen := make(map[int]bool)
	// The cancel signal of ctx must not abort a call that already started
	callCtx := context.WithoutCancel(ctx)
	streak := 0

	for i, unit := range units {
		item := &items[unit.Index]

		reporter.Emit(models.ProgressEvent{
			Type:        models.EventGenerating,
			ItemID:      unit.ItemID,
			ItemTitle:   unit.ItemTitle,
			ContentType: unit.ContentType,
			Message:     fmt.Sprintf("Generating %s content for %s (%d/%d)", unit.ContentType, unit.ItemTitle, i+1, len(units)),
			Progress:    r.At(i, len(units)),
		})

		resp, err := e.generator.GenerateContent(callCtx, models.GenerateRequest{
			Item:        *item,
			ContentType: unit.ContentType,
			SourceURL:   in.SourceURL,
		})
		now := e.now()

		if err == nil {
			item.SetContent(unit.ContentType, resp.Content, models.OriginAI, now)
			result.Stats.Success++
			streak = 0
			reporter.Emit(models.ProgressEvent{
				Type:        models.EventCompleted,
				ItemID:      unit.ItemID,
				ItemTitle:   unit.ItemTitle,
				ContentType: unit.ContentType,
				Message:     fmt.Sprintf("Generated %s content for %s", unit.ContentType, unit.ItemTitle),
				Progress:    r.At(i+1, len(units)),
			})
		} else {
			item.SetContent(unit.ContentType, fallback.Render(*item, unit.ContentType), models.OriginTemplate, now)
			result.Stats.Failed++
			if !fallbackSeen[unit.Index] {
				fallbackSeen[unit.Index] = true
				result.FallbackTitles = append(result.FallbackTitles, unit.ItemTitle)
			}
			if llm.IsRateLimit(err) {
				streak++
			} else {
				streak = 0
			}
			logrus.Warnf("Generation of %s content for %q failed, using template: %v", unit.ContentType, unit.ItemTitle, err)
			reporter.Emit(models.ProgressEvent{
				Type:        models.EventError,
				ItemID:      unit.ItemID,
				ItemTitle:   unit.ItemTitle,
				ContentType: unit.ContentType,
				Message:     fmt.Sprintf("Could not generate %s content for %s; template content was used instead", unit.ContentType, unit.ItemTitle),
				Progress:    r.At(i+1, len(units)),
			})
		}

		if i == len(units)-1 {
			break
		}
		if ctx.Err() == nil {
			// A cancel during the wait is picked up by the check below
			_ = e.pacer.Wait(ctx, unit.ContentType, streak, err)
		}
		if ctx.Err() != nil {
			result.Cancelled = true
			reporter.Emit(models.ProgressEvent{
				Type:     models.EventError,
				Message:  fmt.Sprintf("Generation cancelled after %d of %d units", i+1, len(units)),
				Progress: r.At(i+1, len(units)),
			})
			return result, fmt.Errorf("content completion cancelled after %d of %d units: %w", i+1, len(units), ctx.Err())
		}
	}

	reporter.Emit(models.ProgressEvent{
		Type:     models.EventCompleted,
		Message:  fmt.Sprintf("Content generation finished: %d generated, %d used templates", result.Stats.Success, result.Stats.Failed),
		Progress: r.End,
	})
	return result, nil
}
