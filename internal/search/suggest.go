package search

import (
	"context"
	"strings"
	"sync"
	"time"

	suggestuc "github.com/abyuwono/bagasi/internal/usecase/suggest"
)

const (
	DebounceDelay = 300 * time.Millisecond
	// shorter queries clear the list without asking the server
	MinQueryLen = 2
)

type SuggestAPI interface {
	Suggestions(ctx context.Context, q string) ([]suggestuc.Suggestion, error)
}

type Result struct {
	Query       string
	Suggestions []suggestuc.Suggestion
	Err         error
}

// Suggester turns keystrokes into suggestion lookups. Only the latest query is
// fetched once input has been quiet for the delay; a lookup still running when
// the user types again is cancelled and its result dropped.
type Suggester struct {
	api   SuggestAPI
	delay time.Duration
	out   chan Result

	mu     sync.Mutex
	seq    uint64
	timer  *time.Timer
	cancel context.CancelFunc
	closed bool
}

func NewSuggester(api SuggestAPI, delay time.Duration) *Suggester {
	return &Suggester{api: api, delay: delay, out: make(chan Result, 1)}
}

func (s *Suggester) Results() <-chan Result { return s.out }

// Type records the current contents of the search box.
func (s *Suggester) Type(q string) {
	q = strings.TrimSpace(q)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.seq++
	seq := s.seq
	s.stopLocked()

	if len([]rune(q)) < MinQueryLen {
		s.deliverLocked(Result{Query: q})
		return
	}
	s.timer = time.AfterFunc(s.delay, func() { s.fetch(seq, q) })
}

func (s *Suggester) stopLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

func (s *Suggester) fetch(seq uint64, q string) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s.mu.Lock()
	if seq != s.seq || s.closed {
		s.mu.Unlock()
		return
	}
	s.cancel = cancel
	s.mu.Unlock()

	items, err := s.api.Suggestions(ctx, q)

	s.mu.Lock()
	defer s.mu.Unlock()
	if seq != s.seq || s.closed {
		return
	}
	s.cancel = nil
	s.deliverLocked(Result{Query: q, Suggestions: items, Err: err})
}

func (s *Suggester) deliverLocked(r Result) {
	select {
	case <-s.out:
	default:
	}
	s.out <- r
}

// Close stops pending work and closes Results.
func (s *Suggester) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.stopLocked()
	close(s.out)
}
