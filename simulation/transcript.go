// Package simulation runs the group episode protocol of §4.5: agents post
// to a topic, then repeatedly decide whether to engage with the feed,
// producing a transcript of posts, replies, and passes.
package simulation

import "encoding/json"

// EventType tags a TranscriptEvent's case.
type EventType string

const (
	EventPost  EventType = "post"
	EventReply EventType = "reply"
	EventPass  EventType = "pass"
)

// TranscriptEvent is the tagged-variant event of §3. All three cases share
// one flat struct with omitted fields per case, matching how the Store
// persists each transcript entry as a single JSON object with a "type" tag.
type TranscriptEvent struct {
	Type         EventType `json:"type"`
	Author       string    `json:"author"`
	TargetAuthor string    `json:"target_author,omitempty"`
	Content      string    `json:"content,omitempty"`
	ReplyTo      string    `json:"reply_to,omitempty"`
}

// Transcript is the ordered sequence of events for one group episode. It
// marshals as a bare JSON array of event objects, matching §6's
// "transcripts_gen_<N>.json: a JSON array of transcripts … each transcript
// is an array of event objects" rather than wrapping them in an {"events":
// […]} object.
type Transcript struct {
	Events []TranscriptEvent
}

// MarshalJSON implements json.Marshaler, emitting Events as a bare array.
func (t Transcript) MarshalJSON() ([]byte, error) {
	if t.Events == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(t.Events)
}

// UnmarshalJSON implements json.Unmarshaler, reading a bare array of event
// objects into Events.
func (t *Transcript) UnmarshalJSON(data []byte) error {
	return json.Unmarshal(data, &t.Events)
}

// TextsByAuthor groups post/reply content by author, for feeding the
// evaluator and the diversity measures.
func (t *Transcript) TextsByAuthor() map[string][]string {
	out := make(map[string][]string)
	for _, e := range t.Events {
		if e.Type == EventPost || e.Type == EventReply {
			out[e.Author] = append(out[e.Author], e.Content)
		}
	}
	return out
}

// CountByAuthor counts post/reply events authored by name.
func (t *Transcript) CountByAuthor(name string) int {
	n := 0
	for _, e := range t.Events {
		if e.Author == name && (e.Type == EventPost || e.Type == EventReply) {
			n++
		}
	}
	return n
}
