// Package bundle assembles outline items into a downloadable zip archive.
package bundle

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"path"
	"time"

	"github.com/onegreenvn/tutorial-bundler-backend/internal/models"
	"github.com/onegreenvn/tutorial-bundler-backend/internal/services/progress"
	"github.com/onegreenvn/tutorial-bundler-backend/internal/utils"
	"github.com/sirupsen/logrus"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

const (
	IndexCSVName  = "tutorial-scaffolds-index.csv"
	IndexXLSXName = "tutorial-scaffolds-index.xlsx"
	ReadmeName    = "README.md"
	ScaffoldName  = "scaffold.md"
	TextName      = "full-tutorial.md"
	HTMLName      = "full-tutorial.html"
	VideoName     = "video-script.txt"
	MetadataName  = "metadata.json"
)

// Input is everything needed to build one bundle
type Input struct {
	Items []models.OutlineItem
	Spec  models.BundleSpec
	Stats models.GenerationStats
	// PreExisting counts items that already had content before the run
	PreExisting int
	// FallbackTitles lists items whose content came from templates
	FallbackTitles []string
}

// Result is a finished archive
type Result struct {
	Archive  []byte
	FileName string
	Stats    models.GenerationStats
	// Entries lists the archive paths in write order
	Entries []string
}

// AssemblyError aborts a whole bundle
type AssemblyError struct {
	Step string
	Err  error
}

func (e *AssemblyError) Error() string {
	return fmt.Sprintf("bundle assembly failed at %s: %v", e.Step, e.Err)
}

func (e *AssemblyError) Unwrap() error {
	return e.Err
}

type entry struct {
	name string
	data []byte
}

// Assembler builds bundle archives
type Assembler struct {
	now      func() time.Time
	markdown goldmark.Markdown
	// compress is replaced in tests to simulate archive failures
	compress func(entries []entry, modified time.Time) ([]byte, error)
}

func NewAssembler() *Assembler {
	return &Assembler{
		now:      time.Now,
		markdown: goldmark.New(goldmark.WithExtensions(extension.GFM)),
		compress: zipEntries,
	}
}

// FileName returns the archive name for a format and date
func FileName(format models.BundleFormat, at time.Time) string {
	kind := "full-content"
	if format == models.FormatScaffold {
		kind = "scaffolds"
	}
	return fmt.Sprintf("tutorial-%s-%s.zip", kind, at.Format("2006-01-02"))
}

// Assemble renders every document and compresses them, emitting one progress
// event per step within r. Any failure emits a single error event and returns
// an *AssemblyError.
func (a *Assembler) Assemble(ctx context.Context, in Input, reporter progress.Reporter, r progress.Range) (*Result, error) {
	if reporter == nil {
		reporter = progress.Discard
	}
	generatedAt := a.now().UTC().Truncate(time.Second)

	// index, readme, one step per item, compression
	totalSteps := len(in.Items) + 3
	done := 0
	var entries []entry

	fail := func(step string, err error) (*Result, error) {
		aerr := &AssemblyError{Step: step, Err: err}
		logrus.Errorf("%v", aerr)
		reporter.Emit(models.ProgressEvent{
			Type:     models.EventError,
			Message:  fmt.Sprintf("Bundle creation failed: %v", err),
			Progress: r.At(done, totalSteps),
		})
		return nil, aerr
	}
	step := func(message string) {
		done++
		reporter.Emit(models.ProgressEvent{
			Type:     models.EventCreating,
			Message:  message,
			Progress: r.At(done, totalSteps),
		})
	}

	if err := in.Spec.Validate(); err != nil {
		return fail("validate", err)
	}

	reporter.Emit(models.ProgressEvent{
		Type:     models.EventCreating,
		Message:  fmt.Sprintf("Creating bundle for %d tutorials", len(in.Items)),
		Progress: r.Start,
	})

	csvData, err := IndexCSV(in.Items)
	if err != nil {
		return fail("index", err)
	}
	xlsxData, err := IndexXLSX(in.Items)
	if err != nil {
		return fail("index", err)
	}
	entries = append(entries, entry{IndexCSVName, csvData}, entry{IndexXLSXName, xlsxData})
	step("Created tutorial index")

	entries = append(entries, entry{ReadmeName, []byte(Readme(in, generatedAt))})
	step("Created bundle report")

	titles := make([]string, len(in.Items))
	for i, item := range in.Items {
		titles[i] = item.Title
	}
	folders := utils.UniqueSlugs(titles)

	for i, item := range in.Items {
		if err := ctx.Err(); err != nil {
			return fail("items", err)
		}
		itemEntries, err := a.itemEntries(folders[i], item, in.Spec, generatedAt)
		if err != nil {
			return fail(fmt.Sprintf("item %q", item.Title), err)
		}
		entries = append(entries, itemEntries...)
		step(fmt.Sprintf("Added %s (%d/%d)", item.Title, i+1, len(in.Items)))
	}

	if err := ctx.Err(); err != nil {
		return fail("compress", err)
	}
	archive, err := a.compress(entries, generatedAt)
	if err != nil {
		return fail("compress", err)
	}
	step("Compressed bundle")

	result := &Result{
		Archive:  archive,
		FileName: FileName(in.Spec.Format, generatedAt),
		Stats:    in.Stats,
		Entries:  make([]string, len(entries)),
	}
	for i, e := range entries {
		result.Entries[i] = e.name
	}

	reporter.Emit(models.ProgressEvent{
		Type:     models.EventCompleted,
		Message:  fmt.Sprintf("Bundle %s is ready (%d files)", result.FileName, len(entries)),
		Progress: r.End,
	})
	return result, nil
}

func (a *Assembler) itemEntries(folder string, item models.OutlineItem, spec models.BundleSpec, generatedAt time.Time) ([]entry, error) {
	scaffold := Scaffold(item, generatedAt)
	entries := []entry{{path.Join(folder, ScaffoldName), []byte(scaffold)}}

	if spec.Format == models.FormatFull {
		if spec.ContentType.Includes(models.ContentTypeText) {
			text := scaffold
			if e, ok := item.GeneratedContent.Get(models.ContentTypeText); ok {
				text = e.Body
			}
			var rendered bytes.Buffer
			if err := a.markdown.Convert([]byte(text), &rendered); err != nil {
				return nil, fmt.Errorf("failed to render html: %w", err)
			}
			entries = append(entries,
				entry{path.Join(folder, TextName), []byte(text)},
				entry{path.Join(folder, HTMLName), htmlPage(item.Title, rendered.Bytes())},
			)
		}
		if spec.ContentType.Includes(models.ContentTypeVideo) {
			video := scaffold
			if e, ok := item.GeneratedContent.Get(models.ContentTypeVideo); ok {
				video = e.Body
			}
			entries = append(entries, entry{path.Join(folder, VideoName), []byte(video)})
		}
	}

	meta, err := Metadata(item, generatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to encode metadata: %w", err)
	}
	return append(entries, entry{path.Join(folder, MetadataName), meta}), nil
}

func zipEntries(entries []entry, modified time.Time) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, e := range entries {
		w, err := zw.CreateHeader(&zip.FileHeader{
			Name:     e.name,
			Method:   zip.Deflate,
			Modified: modified,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to add %s: %w", e.name, err)
		}
		if _, err := w.Write(e.data); err != nil {
			return nil, fmt.Errorf("failed to write %s: %w", e.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize archive: %w", err)
	}
	return buf.Bytes(), nil
}
