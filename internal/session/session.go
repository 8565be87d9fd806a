// Package session tracks the state of leaf analyses as the user uploads images.
package session

import (
	"context"
	"sync"

	"github.com/bryanwahyu/plant-md/internal/capture"
	"github.com/bryanwahyu/plant-md/internal/domain/diagnosis"
)

const unknownError = "An unknown error occurred."

type State int

const (
	StateIdle State = iota
	StateLoading
	StateError
	StateResult
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateError:
		return "error"
	case StateResult:
		return "result"
	default:
		return "unknown"
	}
}

// Snapshot is the session state at one point in time. Analysis is set only in
// StateResult and Err only in StateError. Generation counts uploads.
type Snapshot struct {
	State      State
	Generation uint64
	Analysis   diagnosis.Analysis
	Err        string
}

// Analyzer performs one analysis request.
type Analyzer interface {
	Analyze(ctx context.Context, img capture.Image) (diagnosis.Analysis, error)
}

// Session moves idle -> loading -> (result | error) and back to loading on
// every new upload. A response is applied only if no newer upload started
// after it was requested.
type Session struct {
	analyzer Analyzer

	mu        sync.Mutex
	snap      Snapshot
	cancel    context.CancelFunc
	listeners []func(Snapshot)
}

func New(a Analyzer) *Session {
	return &Session{analyzer: a}
}

// Subscribe registers fn to receive every state transition. Listeners run
// synchronously, in order, and must not call back into the Session.
func (s *Session) Subscribe(fn func(Snapshot)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap
}

// Upload starts an analysis of img, cancelling any request still in flight,
// and blocks until it finishes. It returns the session state afterwards; if a
// newer upload superseded this one, that is the newer upload's state.
func (s *Session) Upload(ctx context.Context, img capture.Image) Snapshot {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	s.cancel = cancel
	gen := s.snap.Generation + 1
	s.set(Snapshot{State: StateLoading, Generation: gen})
	s.mu.Unlock()

	a, err := s.analyzer.Analyze(ctx, img)

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.snap.Generation {
		return s.snap
	}
	s.cancel = nil
	if err != nil {
		msg := err.Error()
		if msg == "" {
			msg = unknownError
		}
		s.set(Snapshot{State: StateError, Generation: gen, Err: msg})
	} else {
		s.set(Snapshot{State: StateResult, Generation: gen, Analysis: a})
	}
	return s.snap
}

// set must be called with mu held.
func (s *Session) set(snap Snapshot) {
	s.snap = snap
	for _, fn := range s.listeners {
		fn(snap)
	}
}
