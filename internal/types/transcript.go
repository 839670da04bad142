package types

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Utterance is one speaker turn. Providers tag the speaker as either
// "speaker" or "role"; both are accepted on decode.
type Utterance struct {
	Speaker string `json:"speaker"`
	Message string `json:"message"`
}

func (u *Utterance) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		// non-object entries decode as an empty turn
		*u = Utterance{}
		return nil
	}
	u.Speaker, _ = raw["speaker"].(string)
	if u.Speaker == "" {
		u.Speaker, _ = raw["role"].(string)
	}
	u.Message, _ = raw["message"].(string)
	return nil
}

// Transcript is either a flat dialogue string or a list of utterances.
type Transcript struct {
	Raw        string
	Utterances []Utterance
}

func TextTranscript(s string) Transcript { return Transcript{Raw: s} }

func (t Transcript) IsEmpty() bool {
	return strings.TrimSpace(t.Text()) == ""
}

// Text joins the transcript into a single blob for scanning.
func (t Transcript) Text() string {
	if len(t.Utterances) == 0 {
		return t.Raw
	}
	parts := make([]string, 0, len(t.Utterances))
	for _, u := range t.Utterances {
		parts = append(parts, u.Message)
	}
	return strings.Join(parts, " ")
}

func (t Transcript) MarshalJSON() ([]byte, error) {
	if len(t.Utterances) > 0 {
		return json.Marshal(t.Utterances)
	}
	return json.Marshal(t.Raw)
}

// UnmarshalJSON never fails on shape: unknown shapes decode as empty.
func (t *Transcript) UnmarshalJSON(data []byte) error {
	*t = Transcript{}
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err == nil {
			t.Raw = s
		}
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(data, &items); err != nil {
			return nil
		}
		for _, item := range items {
			var u Utterance
			_ = u.UnmarshalJSON(item)
			t.Utterances = append(t.Utterances, u)
		}
	}
	return nil
}
