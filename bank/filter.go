package bank

import (
	"errors"
	"fmt"
	"math/rand"
	"time"

	"simulacro-server/models"
)

// FilterAll is the sentinel value that disables a filter.
const FilterAll = "all"

// ErrEmptyPool is returned when the filters match no questions. It is
// recoverable: the caller stays on the configuration phase.
var ErrEmptyPool = errors.New("no questions match the selected filters")

// ErrInvalidCount is returned for a non-positive requested question count.
var ErrInvalidCount = errors.New("question count must be at least 1")

// SampleNote records a warn-and-reduce event: the filtered pool was smaller
// than the requested count, so the simulacro was built with fewer questions.
type SampleNote struct {
	Requested int
	Granted   int
}

// String renders the notice shown to the user.
func (n SampleNote) String() string {
	return fmt.Sprintf("only %d questions match the selected filters; the simulacro was reduced from %d to %d", n.Granted, n.Requested, n.Granted)
}

// Filter applies the area and type filters to the bank. The FilterAll
// sentinel skips the corresponding filter; matches are exact string
// comparisons on the respective fields.
func Filter(b *QuestionBank, areaFilter, typeFilter string) []models.QuestionRecord {
	pool := make([]models.QuestionRecord, 0, b.Len())
	for _, q := range b.Records() {
		if areaFilter != FilterAll && q.Area != areaFilter {
			continue
		}
		if typeFilter != FilterAll && q.Type != typeFilter {
			continue
		}
		pool = append(pool, q)
	}
	return pool
}

// FilterAndSample filters the bank and draws min(count, poolSize) records
// uniformly at random without replacement. The randomness is seeded freshly
// per call; determinism is not wanted here. When the pool is smaller than
// the requested count the draw is reduced, never silently: the returned
// SampleNote is non-nil so callers can surface the reduction.
func FilterAndSample(b *QuestionBank, areaFilter, typeFilter string, count int) ([]models.QuestionRecord, *SampleNote, error) {
	if count < 1 {
		return nil, nil, ErrInvalidCount
	}

	pool := Filter(b, areaFilter, typeFilter)
	if len(pool) == 0 {
		return nil, nil, ErrEmptyPool
	}

	var note *SampleNote
	n := count
	if len(pool) < n {
		n = len(pool)
		note = &SampleNote{Requested: count, Granted: n}
	}

	r := rand.New(rand.NewSource(time.Now().UnixNano()))
	shuffled := make([]models.QuestionRecord, len(pool))
	copy(shuffled, pool)
	r.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	return shuffled[:n], note, nil
}
