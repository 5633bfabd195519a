package chat

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHistory_AppendEvictsOldest(t *testing.T) {
	h := NewHistory(3)
	for i := 1; i <= 5; i++ {
		h.Append(fmt.Sprintf("q%d", i), fmt.Sprintf("a%d", i))
	}

	turns := h.Turns()
	assert.Len(t, turns, 3)
	assert.Equal(t, "q3", turns[0].User)
	assert.Equal(t, "q5", turns[2].User)
	assert.Equal(t, "a5", turns[2].Bot)
}

func TestHistory_TurnsReturnsCopy(t *testing.T) {
	h := NewHistory(5)
	h.Append("q", "a")

	turns := h.Turns()
	turns[0].User = "mutated"
	assert.Equal(t, "q", h.Turns()[0].User)
}

func TestHistory_Clear(t *testing.T) {
	h := NewHistory(5)
	h.Append("q", "a")
	h.Clear()
	assert.Zero(t, h.Len())
}

func TestHistory_ConcurrentAppends(t *testing.T) {
	h := NewHistory(4)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			h.Append(fmt.Sprintf("q%d", n), fmt.Sprintf("a%d", n))
		}(i)
	}
	wg.Wait()

	turns := h.Turns()
	assert.Len(t, turns, 4)
	for _, turn := range turns {
		// Every surviving turn is a complete exchange.
		assert.Equal(t, turn.User[1:], turn.Bot[1:])
	}
}
