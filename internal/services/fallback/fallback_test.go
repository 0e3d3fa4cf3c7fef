package fallback

import (
	"strings"
	"testing"

	"github.com/onegreenvn/tutorial-bundler-backend/internal/models"
	"github.com/stretchr/testify/assert"
)

func sampleItem() models.OutlineItem {
	return models.OutlineItem{
		ID:         "1",
		Title:      "Configuring Webhooks",
		Summary:    "Receive events from the platform",
		Steps:      []string{"Create an Endpoint", "Verify Signatures", "Handle Retries", "Monitor Deliveries"},
		Difficulty: models.DifficultyIntermediate,
	}
}

func TestRenderContainsEveryStep(t *testing.T) {
	item := sampleItem()
	for _, ct := range []models.ContentType{models.ContentTypeText, models.ContentTypeVideo} {
		out := Render(item, ct)
		assert.NotEmpty(t, out)
		assert.Contains(t, out, item.Title)
		for _, step := range item.Steps {
			assert.Contains(t, out, step, "content type %s", ct)
		}
	}
}

func TestTextNumbersSteps(t *testing.T) {
	out := Text(sampleItem())
	assert.Contains(t, out, "### 1. Create an Endpoint")
	assert.Contains(t, out, "### 4. Monitor Deliveries")
	assert.Contains(t, out, "## Conclusion")
}

func TestVideoTimesSections(t *testing.T) {
	out := Video(sampleItem())
	assert.Contains(t, out, "INTRODUCTION (0:00 - 0:30)")
	assert.Contains(t, out, "SECTION 1: Create an Endpoint (1:00 - 2:00)")
	assert.Contains(t, out, "SECTION 4: Monitor Deliveries (4:00 - 5:00)")
	assert.Contains(t, out, "CONCLUSION (5:00 - end)")
	assert.Contains(t, out, "DIFFICULTY: intermediate")
}

func TestRenderIsDeterministic(t *testing.T) {
	item := sampleItem()
	assert.Equal(t, Render(item, models.ContentTypeVideo), Render(item, models.ContentTypeVideo))
}

func TestRenderHandlesSparseItems(t *testing.T) {
	item := models.OutlineItem{Title: "", Steps: []string{"Only step"}}
	for _, ct := range []models.ContentType{models.ContentTypeText, models.ContentTypeVideo, "unknown"} {
		out := Render(item, ct)
		assert.True(t, strings.Contains(out, "Only step"))
	}
}
