package dataprocessing

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"macrocli/internal/config"
	"macrocli/internal/files"
	"macrocli/internal/timeseries"
)

// NewsTotalColumn holds the per month sum of every keyword column.
const NewsTotalColumn = "News_Total_Counting"

// NewsKeywords are matched as literal, case-insensitive substrings.
var NewsKeywords = []string{"inflation", "recession", "crisis", "high price", "layoff", "unemployment"}

// KeywordColumn names the count column of a keyword: "high price" becomes News_Count_High_Price.
func KeywordColumn(keyword string) string {
	words := strings.Fields(keyword)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + strings.ToLower(w[1:])
	}
	return "News_Count_" + strings.Join(words, "_")
}

var documentDateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05-0700",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

type rawDocument struct {
	Date     string   `json:"date"`
	PubDate  string   `json:"pub_date"`
	Headline headline `json:"headline"`
	Snippet  string   `json:"snippet"`
}

// headline is either plain text or the archive form {"main": "..."}.
type headline string

func (h *headline) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*h = ""
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*h = headline(s)
	case len(data) > 0 && data[0] == '{':
		var obj struct {
			Main string `json:"main"`
		}
		if err := json.Unmarshal(data, &obj); err != nil {
			return err
		}
		*h = headline(obj.Main)
	default:
		*h = ""
	}
	return nil
}

// article is a dated document reduced to its lowercase text.
type article struct {
	Date time.Time
	Text string
}

// TextAggregator counts keyword mentions in the NYT archive documents per month.
type TextAggregator struct {
	opts      Options
	discovery *files.Discovery
}

// NewTextAggregator creates an aggregator over source_d_*.json in the raw directory.
func NewTextAggregator(opts Options) *TextAggregator {
	return &TextAggregator{opts: opts, discovery: files.NewDiscovery("")}
}

// Source implements Parser.
func (p *TextAggregator) Source() Source { return SourceNews }

// Parse implements Parser.
func (p *TextAggregator) Parse(ctx context.Context) (*timeseries.Table, *SourceReport, error) {
	report := newSourceReport(SourceNews, p.opts.logger())

	paths, err := p.locate(ctx, report)
	if err != nil {
		report.fail(err)
		return finish(nil, report)
	}
	report.Files = paths

	var articles []article
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return timeseries.NewTable(), report, err
		}
		docs, err := readDocuments(path)
		if err != nil {
			report.fail(err)
			continue
		}
		for _, doc := range docs {
			if a, ok := accept(report, decodeRecord(doc, p.opts.Window)); ok {
				articles = append(articles, a)
			}
		}
	}

	table, err := keywordCounts(articles)
	if err != nil {
		return timeseries.NewTable(), report, err
	}
	return finish(table, report)
}

// locate finds the document chunks, extracting the archive when none are unpacked yet.
func (p *TextAggregator) locate(ctx context.Context, report *SourceReport) ([]string, error) {
	found, err := p.discovery.FindFilesByPattern(p.opts.RawDir, config.NewsRawPattern)
	if err != nil {
		return nil, err
	}
	if len(found) > 0 {
		return files.Paths(found), nil
	}

	archive := filepath.Join(p.opts.RawDir, config.NewsRawArchive)
	if _, err := os.Stat(archive); err != nil {
		return nil, fmt.Errorf("%w: no %s and no %s in %s",
			ErrSourceAbsent, config.NewsRawPattern, config.NewsRawArchive, p.opts.RawDir)
	}

	report.logger.Info("news_archive_extracting", slog.String("archive", archive))
	if _, err := files.ExtractZip(ctx, archive, p.opts.RawDir); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}

	found, err = p.discovery.FindFilesByPattern(p.opts.RawDir, config.NewsRawPattern)
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, fmt.Errorf("%w: %s holds no %s", ErrSourceAbsent, archive, config.NewsRawPattern)
	}
	return files.Paths(found), nil
}

// readDocuments splits a chunk into its documents. Only a chunk that is not a
// JSON array is malformed; each element is decoded on its own.
func readDocuments(path string) ([]json.RawMessage, error) {
	data, err := readSource(path)
	if err != nil {
		return nil, err
	}
	var docs []json.RawMessage
	if err := json.Unmarshal(data, &docs); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformedPayload, path, err)
	}
	return docs, nil
}

func decodeRecord(raw json.RawMessage, window timeseries.Window) RecordResult[article] {
	var doc rawDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return Skip[article]("invalid document: %v", err)
	}
	return decodeDocument(doc, window)
}

// decodeDocument dates a document and keeps it when it falls inside the window.
func decodeDocument(doc rawDocument, window timeseries.Window) RecordResult[article] {
	raw := strings.TrimSpace(doc.Date)
	if raw == "" {
		raw = strings.TrimSpace(doc.PubDate)
	}
	date, ok := parseFirst(raw, documentDateLayouts)
	if !ok {
		return Skip[article]("invalid document date %q", raw)
	}
	// keep the wall clock date, drop the zone
	date = time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	if !window.Contains(date) {
		return Skip[article]("document date %s outside %s", date.Format(timeseries.DateLayout), window)
	}

	text := strings.ToLower(string(doc.Headline) + " " + doc.Snippet)
	return Success(article{Date: date, Text: text})
}

// keywordCounts sums keyword indicators per month and appends the total column.
func keywordCounts(articles []article) (*timeseries.Table, error) {
	var columns []*timeseries.Table
	for _, kw := range NewsKeywords {
		points := make([]timeseries.Point, len(articles))
		for i, a := range articles {
			points[i] = timeseries.Point{Date: a.Date, Value: indicator(a.Text, kw)}
		}
		columns = append(columns, timeseries.Resample(KeywordColumn(kw), points, timeseries.Sum))
	}

	table, err := timeseries.OuterJoin(columns...)
	if err != nil {
		return nil, err
	}
	if table.IsEmpty() {
		return table, nil
	}

	total := make([]float64, table.Len())
	for _, kw := range NewsKeywords {
		values, _ := table.Column(KeywordColumn(kw))
		for i, v := range values {
			total[i] += v
		}
	}
	if err := table.AddColumn(NewsTotalColumn, total); err != nil {
		return nil, err
	}
	return table, nil
}

func indicator(text, keyword string) float64 {
	if strings.Contains(text, strings.ToLower(keyword)) {
		return 1
	}
	return 0
}
