package services

import (
	"fmt"
	"sync"

	"kit-telegram/ai"
)

// HistoryBank keeps the bounded per-(actor, persona) conversation history
// for the AI proxy. The default window is maxPairs user+assistant pairs; a
// call may pass a smaller desired message count (demo mode) which trims the
// stored history without changing the default capacity used later.
type HistoryBank struct {
	mu       sync.Mutex
	maxPairs int
	turns    map[string][]ai.Message
}

func NewHistoryBank(maxPairs int) *HistoryBank {
	if maxPairs < 1 {
		maxPairs = 1
	}
	if maxPairs > 50 {
		maxPairs = 50
	}
	return &HistoryBank{maxPairs: maxPairs, turns: make(map[string][]ai.Message)}
}

// HistKey identifies one conversation window.
func HistKey(actorID int64, persona string) string {
	return fmt.Sprintf("%s:%d", persona, actorID)
}

func (h *HistoryBank) defaultMax() int { return h.maxPairs * 2 }

// Push appends one turn. desired limits the stored message count for this
// push (0 means the default window); it is clamped to [2, default].
func (h *HistoryBank) Push(key, role, content string, desired int) {
	h.mu.Lock()
	defer h.mu.Unlock()

	limit := h.defaultMax()
	if desired > 0 && desired < limit {
		limit = desired
	}
	if limit < 2 {
		limit = 2
	}

	turns := append(h.turns[key], ai.Message{Role: role, Content: content})
	if over := len(turns) - limit; over > 0 {
		turns = turns[over:]
	}
	h.turns[key] = turns
}

// History returns a copy of the stored window.
func (h *HistoryBank) History(key string) []ai.Message {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]ai.Message, len(h.turns[key]))
	copy(out, h.turns[key])
	return out
}

func (h *HistoryBank) Reset(key string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.turns, key)
}
