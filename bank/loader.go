package bank

import (
	"context"
	"encoding/csv"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"simulacro-server/models"
	"simulacro-server/pkg/logger"
)

const defaultBaseURL = "https://docs.google.com"

// requiredColumns is the schema contract with the sheet. The header row is
// matched by name, not position; a missing column fails the whole load.
var requiredColumns = []string{
	"id", "area", "type", "case_context", "prompt",
	"option_a", "option_b", "option_c", "option_d",
	"correct_option", "explanation",
}

// Loader fetches the question bank from a public Google Sheets CSV export
// and memoizes the result for a fixed TTL. Safe for concurrent use.
type Loader struct {
	sheetID   string
	worksheet string
	ttl       time.Duration
	baseURL   string
	client    *http.Client
	now       func() time.Time

	mu     sync.Mutex
	cached *QuestionBank
}

// NewLoader builds a Loader for the given spreadsheet identifier and
// worksheet name.
func NewLoader(sheetID, worksheet string, ttl, httpTimeout time.Duration) *Loader {
	return &Loader{
		sheetID:   sheetID,
		worksheet: worksheet,
		ttl:       ttl,
		baseURL:   defaultBaseURL,
		client:    &http.Client{Timeout: httpTimeout},
		now:       time.Now,
	}
}

// Load returns the question bank, refetching it from the sheet only when the
// cached copy is older than the TTL. A failed refetch is returned to the
// caller; it does not fall back to the expired copy, and the next call
// retries independently.
func (l *Loader) Load(ctx context.Context) (*QuestionBank, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.cached != nil && l.now().Sub(l.cached.fetchedAt) < l.ttl {
		return l.cached, nil
	}

	b, err := l.fetch(ctx)
	if err != nil {
		return nil, err
	}
	l.cached = b
	logger.Log.Info("question bank loaded",
		zap.Int("questions", b.Len()),
		zap.String("worksheet", l.worksheet))
	return b, nil
}

// Invalidate drops the cached bank so the next Load refetches. Used by the
// admin reload action.
func (l *Loader) Invalidate() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cached = nil
}

func (l *Loader) fetch(ctx context.Context) (*QuestionBank, error) {
	reqURL := fmt.Sprintf("%s/spreadsheets/d/%s/gviz/tq?tqx=out:csv&sheet=%s",
		l.baseURL, l.sheetID, url.QueryEscape(l.worksheet))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build sheet request: %w", err)
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to reach sheet source: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("sheet source returned status %d: check that the sheet is publicly readable", resp.StatusCode)
	}

	reader := csv.NewReader(resp.Body)
	reader.FieldsPerRecord = -1 // rows may be shorter than the header
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse sheet CSV: %w", err)
	}

	records, err := parseRows(rows)
	if err != nil {
		return nil, err
	}
	return FromRecords(records, l.now()), nil
}

// parseRows turns the raw CSV rows into question records. The first row is
// the header and is resolved into named column indexes once; missing or
// short cells become "".
func parseRows(rows [][]string) ([]models.QuestionRecord, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("sheet export is empty: expected a header row")
	}

	columns, err := resolveColumns(rows[0])
	if err != nil {
		return nil, err
	}

	records := make([]models.QuestionRecord, 0, len(rows)-1)
	for _, row := range rows[1:] {
		cell := func(name string) string {
			idx := columns[name]
			if idx >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[idx])
		}
		records = append(records, models.QuestionRecord{
			ID:            cell("id"),
			Area:          cell("area"),
			Type:          cell("type"),
			CaseContext:   cell("case_context"),
			Prompt:        cell("prompt"),
			OptionA:       cell("option_a"),
			OptionB:       cell("option_b"),
			OptionC:       cell("option_c"),
			OptionD:       cell("option_d"),
			CorrectOption: cell("correct_option"),
			Explanation:   cell("explanation"),
		})
	}
	return records, nil
}

// resolveColumns matches header names to indexes. Names are compared after
// trimming, lower-casing and collapsing spaces to underscores, so the sheet
// may title them "Correct Option" or "correct_option" interchangeably.
func resolveColumns(header []string) (map[string]int, error) {
	indexes := make(map[string]int, len(header))
	for i, name := range header {
		indexes[normalizeHeader(name)] = i
	}

	columns := make(map[string]int, len(requiredColumns))
	var missing []string
	for _, name := range requiredColumns {
		idx, ok := indexes[name]
		if !ok {
			missing = append(missing, name)
			continue
		}
		columns[name] = idx
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("sheet header is missing required columns: %s", strings.Join(missing, ", "))
	}
	return columns, nil
}

func normalizeHeader(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	return strings.ReplaceAll(name, " ", "_")
}
