package bundle

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"html"
	"strconv"
	"strings"
	"time"

	"github.com/onegreenvn/tutorial-bundler-backend/internal/models"
	"github.com/onegreenvn/tutorial-bundler-backend/internal/services/excel"
)

var indexColumns = []string{"Title", "Summary", "Difficulty", "Estimated Cost Min", "Estimated Cost Max", "Outline", "Source URL"}

func formatCost(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func indexRow(item models.OutlineItem) []string {
	return []string{
		item.Title,
		item.Summary,
		string(item.Difficulty),
		formatCost(item.CostEstimate.Min),
		formatCost(item.CostEstimate.Max),
		strings.Join(item.Steps, "; "),
		item.SourceURL,
	}
}

// IndexCSV renders the index document, one row per item
func IndexCSV(items []models.OutlineItem) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(indexColumns); err != nil {
		return nil, err
	}
	for _, item := range items {
		if err := w.Write(indexRow(item)); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// IndexXLSX renders the index document as a workbook
func IndexXLSX(items []models.OutlineItem) ([]byte, error) {
	rows := make([][]any, len(items))
	for i, item := range items {
		rows[i] = []any{
			item.Title,
			item.Summary,
			string(item.Difficulty),
			item.CostEstimate.Min,
			item.CostEstimate.Max,
			strings.Join(item.Steps, "; "),
			item.SourceURL,
		}
	}
	return excel.Render(excel.Table{
		Sheet:   "Tutorials",
		Columns: indexColumns,
		Widths: map[string]float64{
			"Title":   40,
			"Summary": 60,
			"Outline": 80,
		},
		Rows: rows,
	})
}

// Readme renders the human readable report of the bundle
func Readme(in Input, generatedAt time.Time) string {
	total := len(in.Items)
	kind, format := "tutorials", "Full Content"
	if in.Spec.Format == models.FormatScaffold {
		kind, format = "scaffolds", "Scaffolds Only"
	}
	contentType := string(in.Spec.ContentType)
	if in.Spec.ContentType == models.BundleBoth {
		contentType = "Text + Video"
	}
	full := in.Spec.Format == models.FormatFull

	var b strings.Builder
	b.WriteString("# Tutorial Scaffolds Bundle\n\n")
	fmt.Fprintf(&b, "This bundle contains %d tutorial %s generated from documentation.\n\n", total, kind)

	b.WriteString("## Summary\n")
	fmt.Fprintf(&b, "- **Total Tutorials**: %d\n", total)
	fmt.Fprintf(&b, "- **Format**: %s\n", format)
	fmt.Fprintf(&b, "- **Content Type**: %s\n", contentType)
	fmt.Fprintf(&b, "- **Pre-generated Content**: %d/%d tutorials\n", in.PreExisting, total)
	fmt.Fprintf(&b, "- **Generated During Bundling**: %d succeeded, %d used templates\n", in.Stats.Success, in.Stats.Failed)
	fmt.Fprintf(&b, "- **Generated**: %s\n\n", generatedAt.Format(time.RFC3339))

	b.WriteString("## Contents\n")
	b.WriteString("- `tutorial-scaffolds-index.csv`: Index file with all tutorial metadata\n")
	b.WriteString("- `tutorial-scaffolds-index.xlsx`: The same index as a spreadsheet\n")
	b.WriteString("- Individual tutorial folders with scaffold files and metadata\n")
	if full {
		fmt.Fprintf(&b, "- Full tutorial content in %s format\n", contentType)
	}
	b.WriteString("\n")

	b.WriteString("## Usage\n")
	b.WriteString("1. Review the CSV index to see all available tutorials\n")
	b.WriteString("2. Open individual tutorial folders to see the content\n")
	if full {
		b.WriteString("3. Full content is ready for review and refinement\n\n")
	} else {
		b.WriteString("3. Use scaffold files as starting points for creating full tutorials\n\n")
	}

	b.WriteString("## File Structure\n")
	b.WriteString("Each tutorial folder contains:\n")
	b.WriteString("- `scaffold.md`: The main scaffold file with outline and metadata\n")
	b.WriteString("- `metadata.json`: Additional tutorial metadata\n")
	if full && in.Spec.ContentType.Includes(models.ContentTypeText) {
		b.WriteString("- `full-tutorial.md`: Complete text tutorial\n")
		b.WriteString("- `full-tutorial.html`: The text tutorial rendered as HTML\n")
	}
	if full && in.Spec.ContentType.Includes(models.ContentTypeVideo) {
		b.WriteString("- `video-script.txt`: Video script\n")
	}
	b.WriteString("\n")

	b.WriteString("## Notes\n")
	switch {
	case len(in.FallbackTitles) > 0:
		b.WriteString("Some tutorials could not be generated and use template content instead. ")
		b.WriteString("For best quality, regenerate them individually:\n")
		for _, title := range in.FallbackTitles {
			fmt.Fprintf(&b, "- %s\n", title)
		}
	case full && in.PreExisting < total:
		b.WriteString("Some tutorials were automatically generated for this bundle. For best quality, review each tutorial individually.\n")
	default:
		b.WriteString("All content has been individually generated and reviewed.\n")
	}
	return b.String()
}

// Scaffold renders the contributor scaffold of an item
func Scaffold(item models.OutlineItem, generatedAt time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", item.Title)
	fmt.Fprintf(&b, "%s\n\n", item.Summary)
	b.WriteString("## Outline\n")
	for i, step := range item.Steps {
		fmt.Fprintf(&b, "%d. %s\n", i+1, step)
	}
	b.WriteString("\n## Metadata\n")
	fmt.Fprintf(&b, "- **Difficulty**: %s\n", item.Difficulty)
	fmt.Fprintf(&b, "- **Estimated Cost**: $%s - $%s\n", formatCost(item.CostEstimate.Min), formatCost(item.CostEstimate.Max))
	fmt.Fprintf(&b, "- **Source**: %s\n", item.SourceURL)
	fmt.Fprintf(&b, "- **Generated**: %s\n\n", generatedAt.Format("2006-01-02"))
	b.WriteString("## Notes for Contributors\n")
	b.WriteString("<!-- Add your tutorial content below this line. Use the outline above as your guide. -->\n")
	return b.String()
}

type contentFlags struct {
	Text  bool `json:"text"`
	Video bool `json:"video"`
}

type contentOrigins struct {
	Text  models.ContentOrigin `json:"text,omitempty"`
	Video models.ContentOrigin `json:"video,omitempty"`
}

type metadataRecord struct {
	Title          string              `json:"title"`
	Summary        string              `json:"summary"`
	Difficulty     models.Difficulty   `json:"difficulty"`
	EstimatedCost  models.CostEstimate `json:"estimatedCost"`
	Outline        []string            `json:"outline"`
	SourceURL      string              `json:"sourceUrl"`
	LastUpdated    string              `json:"lastUpdated"`
	HasFullContent bool                `json:"hasFullContent"`
	ContentTypes   contentFlags        `json:"contentTypes"`
	ContentOrigins contentOrigins      `json:"contentOrigins"`
}

// Metadata renders the per-item metadata record
func Metadata(item models.OutlineItem, generatedAt time.Time) ([]byte, error) {
	lastUpdated := generatedAt
	if item.GeneratedContent != nil && !item.GeneratedContent.LastUpdated.IsZero() {
		lastUpdated = item.GeneratedContent.LastUpdated
	}

	record := metadataRecord{
		Title:         item.Title,
		Summary:       item.Summary,
		Difficulty:    item.Difficulty,
		EstimatedCost: item.CostEstimate,
		Outline:       item.Steps,
		SourceURL:     item.SourceURL,
		LastUpdated:   lastUpdated.UTC().Format(time.RFC3339),
		ContentTypes: contentFlags{
			Text:  item.HasContent(models.ContentTypeText),
			Video: item.HasContent(models.ContentTypeVideo),
		},
	}
	record.HasFullContent = record.ContentTypes.Text || record.ContentTypes.Video
	if entry, ok := item.GeneratedContent.Get(models.ContentTypeText); ok {
		record.ContentOrigins.Text = entry.Origin
	}
	if entry, ok := item.GeneratedContent.Get(models.ContentTypeVideo); ok {
		record.ContentOrigins.Video = entry.Origin
	}
	if record.Outline == nil {
		record.Outline = []string{}
	}
	return json.MarshalIndent(record, "", "  ")
}

// htmlPage wraps rendered markdown in a standalone document
func htmlPage(title string, body []byte) []byte {
	var b bytes.Buffer
	b.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n")
	fmt.Fprintf(&b, "<title>%s</title>\n", html.EscapeString(title))
	b.WriteString("</head>\n<body>\n")
	b.Write(body)
	b.WriteString("</body>\n</html>\n")
	return b.Bytes()
}
