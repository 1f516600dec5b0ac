package corpus

import (
	"context"
	"encoding/csv"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/m-mizutani/goerr/v2"
	"github.com/seisaku-lab/yosan/pkg/domain/interfaces"
	"github.com/seisaku-lab/yosan/pkg/domain/model"
	"github.com/seisaku-lab/yosan/pkg/domain/types"
	"github.com/seisaku-lab/yosan/pkg/utils/logging"
	"github.com/seisaku-lab/yosan/pkg/utils/safe"
)

// Column headers of the review-sheet CSV published by the government
// budget screening process.
const (
	colProjectID     = "予算事業ID"
	colMinistry      = "府省庁"
	colBureau        = "局・庁"
	colOverview      = "事業の概要"
	colInitialBudget = "当初予算"
	colProjectName   = "事業名"
	colIssues        = "現状・課題"
	colRelativeError = "相対誤差%"

	colScaleCategory = "規模区分"
	colFiscalYear    = "事業年度"
	colEmbedding     = "embedding_sum"
)

var requiredColumns = []string{
	colProjectID, colMinistry, colBureau, colOverview,
	colInitialBudget, colProjectName, colIssues, colRelativeError,
}

const (
	defaultFiscalYear = 2024
	minTextRunes      = 10
	minEmbeddingNums  = 100
)

// Config controls how the corpus is built from its CSV source
type Config struct {
	CSVPath    string
	CachePath  string // empty disables the embedding cache
	Embedder   interfaces.EmbeddingClient
	FiscalYear int
}

type loadedRow struct {
	project     *model.HistoricalProject
	text        string
	precomputed []float32
}

// Load builds the corpus store from the CSV source. Rows that fail
// validation are skipped and counted. A missing required column or a
// corpus with zero usable rows is an error so the service never starts
// half-initialized.
func Load(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.CSVPath == "" {
		return nil, goerr.New("corpus CSV path is required")
	}
	if cfg.Embedder == nil {
		return nil, goerr.New("embedding client is required")
	}

	f, err := os.Open(cfg.CSVPath)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open corpus CSV", goerr.V("path", cfg.CSVPath))
	}
	defer safe.Close(ctx, f)

	rows, skipped, err := readRows(f, cfg.FiscalYear)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, goerr.New("corpus has no usable rows", goerr.V("path", cfg.CSVPath), goerr.V("skipped", skipped))
	}

	stats, err := resolveEmbeddings(ctx, cfg, rows)
	if err != nil {
		return nil, err
	}

	projects := make([]*model.HistoricalProject, len(rows))
	for i, row := range rows {
		projects[i] = row.project
	}

	logging.From(ctx).Info("corpus loaded",
		"path", cfg.CSVPath,
		"projects", len(projects),
		"skippedRows", skipped,
		"precomputed", stats.precomputed,
		"cached", stats.cached,
		"embedded", stats.embedded,
		"dimension", cfg.Embedder.Dimension())

	return newStore(projects, cfg.Embedder.Dimension()), nil
}

func readRows(r io.Reader, fiscalYear int) ([]*loadedRow, int, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, 0, goerr.Wrap(err, "failed to read CSV header")
	}

	colIdx := make(map[string]int, len(header))
	for i, name := range header {
		colIdx[strings.TrimSpace(name)] = i
	}

	var missing []string
	for _, name := range requiredColumns {
		if _, ok := colIdx[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, 0, goerr.New("corpus CSV is missing required columns", goerr.V("columns", missing))
	}

	if fiscalYear == 0 {
		fiscalYear = defaultFiscalYear
	}

	var rows []*loadedRow
	skipped := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			skipped++
			continue
		}

		row, ok := parseRow(record, colIdx, fiscalYear)
		if !ok {
			skipped++
			continue
		}
		rows = append(rows, row)
	}

	return rows, skipped, nil
}

func parseRow(record []string, colIdx map[string]int, fiscalYear int) (*loadedRow, bool) {
	field := func(name string) string {
		idx, ok := colIdx[name]
		if !ok || idx >= len(record) {
			return ""
		}
		return record[idx]
	}

	id, err := strconv.ParseInt(strings.TrimSpace(field(colProjectID)), 10, 64)
	if err != nil || id <= 0 {
		return nil, false
	}

	budget, err := parseNumber(field(colInitialBudget))
	if err != nil || budget <= 0 {
		return nil, false
	}

	overview := cleanText(field(colOverview))
	issues := cleanText(field(colIssues))
	if utf8.RuneCountInString(overview) <= minTextRunes && utf8.RuneCountInString(issues) <= minTextRunes {
		return nil, false
	}

	relErr, err := parseNumber(field(colRelativeError))
	if err != nil {
		relErr = 0
	}

	if yearStr := strings.TrimSpace(field(colFiscalYear)); yearStr != "" {
		if y, err := strconv.Atoi(yearStr); err == nil && y > 0 {
			fiscalYear = y
		}
	}

	project := &model.HistoricalProject{
		ID:               id,
		Ministry:         cleanText(field(colMinistry)),
		Bureau:           cleanText(field(colBureau)),
		Name:             cleanText(field(colProjectName)),
		Overview:         overview,
		Issues:           issues,
		InitialBudget:    budget,
		Rank:             types.RankFromRelativeError(relErr),
		FiscalYear:       fiscalYear,
		ScaleCategory:    cleanText(field(colScaleCategory)),
		RelativeErrorPct: relErr,
	}

	return &loadedRow{
		project:     project,
		text:        issues + " " + overview,
		precomputed: parseEmbeddingField(field(colEmbedding)),
	}, true
}

type embeddingStats struct {
	precomputed int
	cached      int
	embedded    int
}

func resolveEmbeddings(ctx context.Context, cfg Config, rows []*loadedRow) (*embeddingStats, error) {
	dim := cfg.Embedder.Dimension()
	stats := &embeddingStats{}

	var cache *embeddingCache
	if cfg.CachePath != "" {
		c, err := openEmbeddingCache(cfg.CachePath)
		if err != nil {
			return nil, err
		}
		defer safe.Close(ctx, c)
		cache = c
	}

	var pending []*loadedRow
	for _, row := range rows {
		if len(row.precomputed) == dim {
			row.project.Embedding = row.precomputed
			stats.precomputed++
			continue
		}
		if cache != nil {
			if vec := cache.get(row.project.ID, row.text); len(vec) == dim {
				row.project.Embedding = vec
				stats.cached++
				continue
			}
		}
		pending = append(pending, row)
	}

	if len(pending) > 0 {
		texts := make([]string, len(pending))
		for i, row := range pending {
			texts[i] = row.text
		}

		vectors, err := cfg.Embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to embed corpus texts", goerr.V("count", len(texts)))
		}

		entries := make([]cacheEntry, 0, len(pending))
		for i, row := range pending {
			if len(vectors[i]) != dim {
				return nil, goerr.New("embedding dimension mismatch",
					goerr.V("projectID", row.project.ID),
					goerr.V("expected", dim),
					goerr.V("actual", len(vectors[i])))
			}
			row.project.Embedding = vectors[i]
			entries = append(entries, cacheEntry{
				projectID: row.project.ID,
				text:      row.text,
				vector:    vectors[i],
			})
		}
		stats.embedded = len(pending)

		if cache != nil {
			if err := cache.putAll(entries); err != nil {
				return nil, err
			}
		}
	}

	return stats, nil
}

// cleanText trims the field, collapses runs of whitespace into a single
// space, and drops control characters.
func cleanText(s string) string {
	s = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return ' '
		}
		return r
	}, s)
	return strings.Join(strings.Fields(s), " ")
}

func parseNumber(s string) (float64, error) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	if s == "" {
		return 0, goerr.New("empty numeric field")
	}
	return strconv.ParseFloat(s, 64)
}

var embeddingNumberRe = regexp.MustCompile(`-?\d+\.?\d*(?:[eE][+-]?\d+)?`)

// parseEmbeddingField extracts a vector from the precomputed embedding
// column. Fields with fewer than 100 numbers are treated as absent.
// The caller checks the exact dimension; vectors are never padded or
// truncated to fit.
func parseEmbeddingField(s string) []float32 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}

	numbers := embeddingNumberRe.FindAllString(s, -1)
	if len(numbers) < minEmbeddingNums {
		return nil
	}

	vector := make([]float32, len(numbers))
	for i, n := range numbers {
		v, err := strconv.ParseFloat(n, 32)
		if err != nil {
			return nil
		}
		vector[i] = float32(v)
	}
	return vector
}
