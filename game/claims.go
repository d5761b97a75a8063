package game

import (
	"errors"
	"time"
)

var (
	ErrInvalidClaim   = errors.New("claim does not satisfy the pattern")
	ErrAlreadyClaimed = errors.New("pattern already claimed")
)

// State is the run state shared by rooms and solo games.
type State string

const (
	StateIdle     State = "idle"
	StateRunning  State = "running"
	StateFinished State = "finished"
)

// Claim records who locked a pattern and when.
type Claim struct {
	By   string    `json:"by"`
	Time time.Time `json:"time"`
}

// Claims tracks one claim slot per pattern. A nil entry means unclaimed.
// Serializes to {"First Five": null, ...} so late joiners see the full board.
type Claims map[string]*Claim

func NewClaims() Claims {
	c := make(Claims, len(Patterns))
	for _, p := range Patterns {
		c[p] = nil
	}
	return c
}

// Adjudicate applies the first-claim-wins rule: a locked pattern rejects
// every later claim, valid or not, with ErrAlreadyClaimed; an unsatisfied
// pattern rejects with ErrInvalidClaim; otherwise the claim is recorded and
// the pattern is locked for the rest of the game.
func (c Claims) Adjudicate(t *Ticket, pattern, by string) (*Claim, error) {
	if c[pattern] != nil {
		return nil, ErrAlreadyClaimed
	}
	if !VerifyPattern(t, pattern) {
		return nil, ErrInvalidClaim
	}
	claim := &Claim{By: by, Time: time.Now()}
	c[pattern] = claim
	return claim, nil
}

// Copy returns a snapshot safe to hand to another goroutine.
func (c Claims) Copy() Claims {
	out := make(Claims, len(c))
	for k, v := range c {
		if v == nil {
			out[k] = nil
			continue
		}
		cl := *v
		out[k] = &cl
	}
	return out
}
