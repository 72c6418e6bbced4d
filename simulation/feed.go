package simulation

import (
	"math/rand"
	"sync"
)

// Feed is the episode-local, mutually-exclusive append log Phase 2 reads
// and writes. It is created empty at the start of each episode and
// discarded at the end; episodes of distinct groups never share one (§4.5).
type Feed struct {
	mu      sync.Mutex
	entries []TranscriptEvent
}

// NewFeed returns an empty feed.
func NewFeed() *Feed {
	return &Feed{}
}

// Append adds e to the feed under lock, enabling replies-to-replies.
func (f *Feed) Append(e TranscriptEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, e)
}

// Snapshot returns a copy of the feed's current entries. Engage-decision
// reads observe the feed as of the current ordering step, so callers must
// take a fresh snapshot per engage decision rather than caching one.
func (f *Feed) Snapshot() []TranscriptEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]TranscriptEvent(nil), f.entries...)
}

// RandomExcluding picks one feed entry uniformly at random, excluding
// entries authored by author. Reports false if no eligible entry exists.
func RandomExcluding(entries []TranscriptEvent, author string, rng *rand.Rand) (TranscriptEvent, bool) {
	eligible := make([]TranscriptEvent, 0, len(entries))
	for _, e := range entries {
		if e.Author != author {
			eligible = append(eligible, e)
		}
	}
	if len(eligible) == 0 {
		return TranscriptEvent{}, false
	}
	return eligible[rng.Intn(len(eligible))], true
}
