package ids

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewIsSortable(t *testing.T) {
	prev := New()
	for i := 0; i < 100; i++ {
		next := New()
		assert.Less(t, prev, next)
		prev = next
	}
}

func TestNewAtUsesTimestamp(t *testing.T) {
	early := NewAt(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	late := NewAt(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	assert.Less(t, early, late)
	assert.Len(t, early, 26)
}
