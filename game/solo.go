package game

import (
	"errors"
	"sync"
)

var (
	ErrNotCalled    = errors.New("number has not been called yet")
	ErrGameFinished = errors.New("game is finished")
)

// Solo is the single-player game loop: one ticket, a private caller, and
// local claim adjudication. Unlike a room, the marks here are owned by the
// game itself, so Mark refuses numbers that were never called.
type Solo struct {
	mu     sync.Mutex
	ticket *Ticket
	seq    *CallSequence
	called []int
	claims Claims
	state  State
}

func NewSolo() (*Solo, error) {
	return newSolo(NewGenerator(), NewCallSequence())
}

// NewSeededSolo builds a reproducible game for a given seed.
func NewSeededSolo(seed int64) (*Solo, error) {
	return newSolo(NewSeededGenerator(seed), NewSeededCallSequence(seed+1))
}

func newSolo(gen *Generator, seq *CallSequence) (*Solo, error) {
	t, err := gen.Generate()
	if err != nil {
		return nil, err
	}
	return &Solo{
		ticket: t,
		seq:    seq,
		claims: NewClaims(),
		state:  StateIdle,
	}, nil
}

// Start moves an idle game to running. Finished games need a Reset first.
func (s *Solo) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateFinished {
		return ErrGameFinished
	}
	s.state = StateRunning
	return nil
}

// CallNext draws one number. Exhausting the sequence finishes the game and
// returns ErrSequenceExhausted; that is the normal end, not a fault.
func (s *Solo) CallNext() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateFinished {
		return 0, ErrGameFinished
	}
	n, err := s.seq.Next()
	if err != nil {
		s.state = StateFinished
		return 0, err
	}
	s.called = append(s.called, n)
	return n, nil
}

// Mark toggles the mark on a called number's cell.
func (s *Solo) Mark(number int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	called := false
	for _, n := range s.called {
		if n == number {
			called = true
			break
		}
	}
	if !called {
		return ErrNotCalled
	}
	if !s.ticket.Mark(number) {
		return ErrNotCalled
	}
	return nil
}

// Claim adjudicates a pattern against the game's own ticket. A successful
// Full Housie finishes the game.
func (s *Solo) Claim(pattern string) (*Claim, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	claim, err := s.claims.Adjudicate(s.ticket, pattern, "You")
	if err != nil {
		return nil, err
	}
	if pattern == PatternFullHousie {
		s.state = StateFinished
	}
	return claim, nil
}

// Reset discards everything and deals a fresh ticket and sequence.
func (s *Solo) Reset() error {
	t, err := NewGenerator().Generate()
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ticket = t
	s.seq = NewCallSequence()
	s.called = nil
	s.claims = NewClaims()
	s.state = StateIdle
	return nil
}

func (s *Solo) Ticket() *Ticket {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ticket
}

func (s *Solo) Called() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int(nil), s.called...)
}

func (s *Solo) Claims() Claims {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.claims.Copy()
}

func (s *Solo) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Remaining reports how many numbers are still in the caller's pool.
func (s *Solo) Remaining() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seq.Remaining()
}
