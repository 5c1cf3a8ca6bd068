package search

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/fmosquera77/Numeros-Quiniela/internal/domain"
)

// LoadErrorMessage is shown when the result set could not be loaded
const LoadErrorMessage = "Error al cargar los datos. Por favor, intenta nuevamente."

// Phase is the request lifecycle of a Session
type Phase string

const (
	PhaseLoading Phase = "loading"
	PhaseError   Phase = "error"
	PhaseReady   Phase = "ready"
)

// Fetcher loads a result set; *Client implements it
type Fetcher interface {
	Fetch(ctx context.Context) (domain.ResultSet, error)
}

// State is a snapshot of a Session
type State struct {
	Phase    Phase
	Results  []domain.Result
	Filtered []domain.Result
	Term     string
	Mock     bool
	Error    string
}

// Session holds the last loaded result set and the active search term.
// It is safe for concurrent use.
type Session struct {
	fetcher Fetcher
	logger  *zap.Logger

	mu         sync.RWMutex
	generation uint64
	state      State
}

// NewSession creates a session in the loading phase. Call Refresh to load.
func NewSession(fetcher Fetcher, logger *zap.Logger) *Session {
	return &Session{
		fetcher: fetcher,
		logger:  logger,
		state:   State{Phase: PhaseLoading},
	}
}

// Refresh reloads the result set. On success the filtered view is recomputed
// for the active term; on failure the previous records are dropped and the phase
// becomes PhaseError. When refreshes overlap only the latest one is applied.
func (s *Session) Refresh(ctx context.Context) error {
	s.mu.Lock()
	s.generation++
	gen := s.generation
	s.state.Phase = PhaseLoading
	s.state.Error = ""
	s.mu.Unlock()

	set, err := s.fetcher.Fetch(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.generation {
		return err
	}

	if err != nil {
		s.logger.Warn("Failed to load lottery results", zap.Error(err))
		s.state = State{
			Phase: PhaseError,
			Term:  s.state.Term,
			Error: LoadErrorMessage,
		}
		return err
	}

	s.state = State{
		Phase:    PhaseReady,
		Results:  set.Results,
		Filtered: Filter(set.Results, s.state.Term),
		Term:     s.state.Term,
		Mock:     IsMock(set),
	}
	return nil
}

// SetTerm updates the search term and recomputes the filtered view
func (s *Session) SetTerm(term string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.Term = term
	s.state.Filtered = Filter(s.state.Results, term)
}

// State returns a copy of the current state
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := s.state
	st.Results = append([]domain.Result(nil), s.state.Results...)
	st.Filtered = append([]domain.Result(nil), s.state.Filtered...)
	return st
}
