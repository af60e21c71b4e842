package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

type ValueKind string

const (
	KindNone   ValueKind = ""
	KindScalar ValueKind = "scalar"
	KindList   ValueKind = "list"
	KindSpeech ValueKind = "speech"
)

// SpeechPayload is a recorded spoken answer. Transcript is empty until the
// audio has been transcribed.
type SpeechPayload struct {
	AudioURL   string `json:"audioUrl,omitempty"`
	Transcript string `json:"transcript,omitempty"`
}

// ResponseValue is a candidate answer or a reference answer. Exactly one of
// Scalar, List or Speech is meaningful, selected by Kind.
type ResponseValue struct {
	Kind   ValueKind
	Scalar string
	List   []string
	Speech *SpeechPayload
}

func ScalarValue(s string) ResponseValue { return ResponseValue{Kind: KindScalar, Scalar: s} }

func ListValue(items ...string) ResponseValue { return ResponseValue{Kind: KindList, List: items} }

func SpeechValue(audioURL, transcript string) ResponseValue {
	return ResponseValue{Kind: KindSpeech, Speech: &SpeechPayload{AudioURL: audioURL, Transcript: transcript}}
}

func (v ResponseValue) IsEmpty() bool {
	switch v.Kind {
	case KindScalar:
		return strings.TrimSpace(v.Scalar) == ""
	case KindList:
		return len(v.List) == 0
	case KindSpeech:
		return v.Speech == nil || (v.Speech.AudioURL == "" && strings.TrimSpace(v.Speech.Transcript) == "")
	}
	return true
}

// Text flattens the value into the string a text judge reads.
func (v ResponseValue) Text() string {
	switch v.Kind {
	case KindScalar:
		return v.Scalar
	case KindList:
		return strings.Join(v.List, " ")
	case KindSpeech:
		if v.Speech != nil {
			return v.Speech.Transcript
		}
	}
	return ""
}

// Items returns the value as a list; a scalar becomes a one-element list.
func (v ResponseValue) Items() []string {
	switch v.Kind {
	case KindList:
		return v.List
	case KindScalar:
		return []string{v.Scalar}
	case KindSpeech:
		if v.Speech != nil && v.Speech.Transcript != "" {
			return []string{v.Speech.Transcript}
		}
	}
	return nil
}

// AwaitingTranscript reports a speech answer that only carries audio.
func (v ResponseValue) AwaitingTranscript() bool {
	return v.Kind == KindSpeech && v.Speech != nil && v.Speech.AudioURL != "" && strings.TrimSpace(v.Speech.Transcript) == ""
}

func (v ResponseValue) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case KindScalar:
		return json.Marshal(v.Scalar)
	case KindList:
		if v.List == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.List)
	case KindSpeech:
		if v.Speech == nil {
			return []byte("null"), nil
		}
		return json.Marshal(v.Speech)
	}
	return []byte("null"), nil
}

func (v *ResponseValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	*v = ResponseValue{}
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}

	switch data[0] {
	case '[':
		var raw []json.RawMessage
		if err := json.Unmarshal(data, &raw); err != nil {
			return fmt.Errorf("response list: %w", err)
		}
		items := make([]string, 0, len(raw))
		for _, r := range raw {
			s, err := scalarText(r)
			if err != nil {
				return fmt.Errorf("response list item: %w", err)
			}
			items = append(items, s)
		}
		v.Kind, v.List = KindList, items
	case '{':
		var sp SpeechPayload
		if err := json.Unmarshal(data, &sp); err != nil {
			return fmt.Errorf("speech payload: %w", err)
		}
		if sp.AudioURL == "" && sp.Transcript == "" {
			return fmt.Errorf("object responses must carry audioUrl or transcript")
		}
		v.Kind, v.Speech = KindSpeech, &sp
	default:
		s, err := scalarText(data)
		if err != nil {
			return err
		}
		v.Kind, v.Scalar = KindScalar, s
	}
	return nil
}

func scalarText(data json.RawMessage) (string, error) {
	var tok interface{}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&tok); err != nil {
		return "", fmt.Errorf("scalar response: %w", err)
	}
	switch t := tok.(type) {
	case string:
		return t, nil
	case json.Number:
		return t.String(), nil
	case bool:
		return strconv.FormatBool(t), nil
	case nil:
		return "", nil
	}
	return "", fmt.Errorf("unsupported scalar %s", string(data))
}
