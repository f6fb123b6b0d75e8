package notify

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFanoutDeliversToEveryTransport(t *testing.T) {
	ws, sse := NewRecorder(), NewRecorder()
	var observed []string
	f := NewFanout(func(event string, targeted bool) {
		if targeted {
			event = "@" + event
		}
		observed = append(observed, event)
	}, ws, nil, sse)

	f.Broadcast(EventAlertCreated, "a1")
	f.Notify("u1", EventRequestAccepted, "r1")
	f.Notify("", EventRequestAccepted, "r2")

	for _, r := range []*Recorder{ws, sse} {
		assert.Equal(t, []Delivery{
			{Event: EventAlertCreated, Payload: "a1"},
			{To: "u1", Event: EventRequestAccepted, Payload: "r1"},
		}, r.All())
	}
	assert.Equal(t, []string{EventAlertCreated, "@" + EventRequestAccepted}, observed)
}

func TestRecorderEvents(t *testing.T) {
	r := NewRecorder()
	r.Broadcast(EventAlertCreated, nil)
	r.Notify("u1", EventMatchesFound, nil)
	r.Notify("u2", EventMatchesFound, nil)

	assert.Len(t, r.Events(EventMatchesFound), 2)
	r.Reset()
	assert.Empty(t, r.All())
}

func TestMatchesFoundCandidateIDs(t *testing.T) {
	m := MatchesFound{Candidates: []Candidate{{UserID: "v1"}, {UserID: "v2"}}}
	assert.Equal(t, []string{"v1", "v2"}, m.CandidateIDs())
}
