package aisearch

import "sync/atomic"

// Sequencer hands out increasing tokens for queries so that a response
// to a superseded query can be discarded.
type Sequencer struct {
	last atomic.Uint64
}

// Next issues a new token, superseding every earlier one.
func (s *Sequencer) Next() uint64 {
	return s.last.Add(1)
}

// IsLatest reports whether tok is the most recently issued token.
func (s *Sequencer) IsLatest(tok uint64) bool {
	return tok != 0 && s.last.Load() == tok
}

// Latest returns the most recently issued token, or 0 if none.
func (s *Sequencer) Latest() uint64 {
	return s.last.Load()
}
