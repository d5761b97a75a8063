package game

import (
	"errors"
	"math/rand"
)

var ErrSequenceExhausted = errors.New("call sequence exhausted")

// CallSequence yields a non-repeating random permutation of 1..90, one
// number per Next call.
type CallSequence struct {
	order []int
	pos   int
}

func NewCallSequence() *CallSequence {
	return newCallSequence(rand.New(rand.NewSource(rand.Int63())))
}

func NewSeededCallSequence(seed int64) *CallSequence {
	return newCallSequence(rand.New(rand.NewSource(seed)))
}

func newCallSequence(rng *rand.Rand) *CallSequence {
	nums := make([]int, 90)
	for i := range nums {
		nums[i] = i + 1
	}
	rng.Shuffle(len(nums), func(i, j int) { nums[i], nums[j] = nums[j], nums[i] })
	return &CallSequence{order: nums}
}

// Next returns the next uncalled number, or ErrSequenceExhausted after all
// 90 have been yielded. Callers must stop scheduling draws at that point.
func (s *CallSequence) Next() (int, error) {
	if s.pos >= len(s.order) {
		return 0, ErrSequenceExhausted
	}
	n := s.order[s.pos]
	s.pos++
	return n, nil
}

// Remaining reports how many numbers are still uncalled.
func (s *CallSequence) Remaining() int {
	return len(s.order) - s.pos
}
