package slackbot

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// replyTracker maps the timestamps of posted bot replies to the persisted
// assistant message ids, so a later reaction on a reply can be attributed to
// its message. Entries expire after ttl.
type replyTracker struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]trackedReply
	now     func() time.Time
}

type trackedReply struct {
	messageID uuid.UUID
	at        time.Time
}

func newReplyTracker(ttl time.Duration) *replyTracker {
	return &replyTracker{
		ttl:     ttl,
		entries: make(map[string]trackedReply),
		now:     time.Now,
	}
}

func (t *replyTracker) record(ts string, messageID uuid.UUID) {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	for key, entry := range t.entries {
		if now.Sub(entry.at) > t.ttl {
			delete(t.entries, key)
		}
	}
	t.entries[ts] = trackedReply{messageID: messageID, at: now}
}

func (t *replyTracker) lookup(ts string) (uuid.UUID, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	entry, ok := t.entries[ts]
	if !ok {
		return uuid.Nil, false
	}
	if t.now().Sub(entry.at) > t.ttl {
		delete(t.entries, ts)
		return uuid.Nil, false
	}
	return entry.messageID, true
}
