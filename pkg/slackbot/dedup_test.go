package slackbot

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/google/uuid"
)

func TestDeduper(t *testing.T) {
	t.Run("first sighting is not a duplicate", func(t *testing.T) {
		d := NewDeduper(time.Minute)
		assert.False(t, d.Seen("Ev001"))
		assert.True(t, d.Seen("Ev001"))
	})

	t.Run("different ids are independent", func(t *testing.T) {
		d := NewDeduper(time.Minute)
		assert.False(t, d.Seen("Ev001"))
		assert.False(t, d.Seen("Ev002"))
	})

	t.Run("entries expire after ttl", func(t *testing.T) {
		current := time.Now()
		d := NewDeduper(time.Minute)
		d.now = func() time.Time { return current }

		assert.False(t, d.Seen("Ev001"))

		current = current.Add(61 * time.Second)
		assert.False(t, d.Seen("Ev001"))
	})
}

func TestReplyTracker(t *testing.T) {
	t.Run("records and looks up a reply", func(t *testing.T) {
		tr := newReplyTracker(time.Minute)
		id := uuid.New()
		tr.record("1724480000.000100", id)

		got, ok := tr.lookup("1724480000.000100")
		assert.True(t, ok)
		assert.Equal(t, id, got)
	})

	t.Run("unknown timestamp misses", func(t *testing.T) {
		tr := newReplyTracker(time.Minute)
		_, ok := tr.lookup("1724480000.000100")
		assert.False(t, ok)
	})

	t.Run("entries expire after ttl", func(t *testing.T) {
		current := time.Now()
		tr := newReplyTracker(time.Minute)
		tr.now = func() time.Time { return current }

		tr.record("1724480000.000100", uuid.New())
		current = current.Add(2 * time.Minute)

		_, ok := tr.lookup("1724480000.000100")
		assert.False(t, ok)
	})
}
