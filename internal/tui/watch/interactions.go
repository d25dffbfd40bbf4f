package watch

import (
	"encoding/json"
	"sort"
	"time"

	"github.com/mrkirby153/todoist-bot/internal/events"
)

// Interaction status labels.
const (
	StatusResponded  = "responded"
	StatusDeferred   = "deferred"
	StatusFollowedUp = "followed up"
	StatusFailed     = "failed"
	StatusExpired    = "expired"
)

const maxTracked = 200

// InteractionState is the latest known state of one interaction.
type InteractionState struct {
	ID         string
	Label      string
	Status     string
	Deferred   bool
	DurationMS int64
	Error      string
	Updated    time.Time
}

// Counters totals lifecycle outcomes since the watch started.
type Counters struct {
	Responded  int
	Deferred   int
	FollowedUp int
	Failed     int
	Expired    int
}

// Tracker folds lifecycle events into per-interaction state.
type Tracker struct {
	byID   map[string]*InteractionState
	totals Counters
}

func NewTracker() *Tracker {
	return &Tracker{byID: make(map[string]*InteractionState)}
}

// Apply folds e in. Events that are not interaction lifecycle events are ignored.
func (t *Tracker) Apply(e events.Event) bool {
	status, ok := statusFor(e.Type)
	if !ok {
		return false
	}
	var data events.InteractionData
	if err := json.Unmarshal(e.Data, &data); err != nil || data.InteractionID == "" {
		return false
	}

	st, exists := t.byID[data.InteractionID]
	if !exists {
		st = &InteractionState{ID: data.InteractionID}
		t.byID[data.InteractionID] = st
	}
	if data.Label != "" {
		st.Label = data.Label
	}
	st.Status = status
	st.DurationMS = data.DurationMS
	st.Error = data.Error
	st.Updated = e.At

	switch status {
	case StatusResponded:
		t.totals.Responded++
	case StatusDeferred:
		st.Deferred = true
		t.totals.Deferred++
	case StatusFollowedUp:
		t.totals.FollowedUp++
	case StatusFailed:
		t.totals.Failed++
	case StatusExpired:
		t.totals.Expired++
	}

	t.evict()
	return true
}

func statusFor(eventType string) (string, bool) {
	switch eventType {
	case events.InteractionResponded:
		return StatusResponded, true
	case events.InteractionDeferred:
		return StatusDeferred, true
	case events.InteractionFollowedUp:
		return StatusFollowedUp, true
	case events.InteractionFollowUpFailed:
		return StatusFailed, true
	case events.InteractionGraceExpired:
		return StatusExpired, true
	default:
		return "", false
	}
}

// Recent returns up to n interactions, most recently updated first.
func (t *Tracker) Recent(n int) []InteractionState {
	out := make([]InteractionState, 0, len(t.byID))
	for _, st := range t.byID {
		out = append(out, *st)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Updated.Equal(out[j].Updated) {
			return out[i].ID > out[j].ID
		}
		return out[i].Updated.After(out[j].Updated)
	})
	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// Pending counts interactions deferred and still awaiting their follow-up.
func (t *Tracker) Pending() int {
	n := 0
	for _, st := range t.byID {
		if st.Status == StatusDeferred {
			n++
		}
	}
	return n
}

func (t *Tracker) Totals() Counters {
	return t.totals
}

func (t *Tracker) evict() {
	if len(t.byID) <= maxTracked {
		return
	}
	for _, st := range t.Recent(-1)[maxTracked:] {
		delete(t.byID, st.ID)
	}
}
