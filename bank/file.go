package bank

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"simulacro-server/models"
)

// Source abstracts where the question bank comes from: the Google Sheets
// export in production, a local YAML file in development and offline use.
type Source interface {
	Load(ctx context.Context) (*QuestionBank, error)
	Invalidate()
}

// FileSource serves a question bank from a local YAML file. The file is read
// on first Load and cached until Invalidate; there is no TTL.
type FileSource struct {
	path string

	mu     sync.Mutex
	cached *QuestionBank
}

// NewFileSource builds a FileSource for the given path.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// Load returns the parsed bank, reading the file only when no cached copy
// exists.
func (f *FileSource) Load(_ context.Context) (*QuestionBank, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.cached != nil {
		return f.cached, nil
	}

	data, err := os.ReadFile(f.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read bank file %s: %w", f.path, err)
	}

	var doc struct {
		Questions []models.QuestionRecord `yaml:"questions"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse bank file %s: %w", f.path, err)
	}
	if len(doc.Questions) == 0 {
		return nil, fmt.Errorf("bank file %s contains no questions", f.path)
	}

	f.cached = FromRecords(doc.Questions, time.Now())
	return f.cached, nil
}

// Invalidate drops the cached bank so the next Load re-reads the file.
func (f *FileSource) Invalidate() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cached = nil
}
