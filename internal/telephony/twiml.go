package telephony

import (
	"bytes"
	"encoding/xml"
	"errors"
)

// TwiML is a minimal Twilio Markup Language response builder.
// It intentionally avoids any provider SDK dependency.
//
// Only include primitives we need at the adapter boundary.

type twimlResponse struct {
	XMLName xml.Name `xml:"Response"`
	Verbs   []any    `xml:",any"`
}

type twimlPlay struct {
	XMLName xml.Name `xml:"Play"`
	URL     string   `xml:",chardata"`
}

type twimlRecord struct {
	XMLName xml.Name `xml:"Record"`

	// RecordingStatusCallback receives recording lifecycle events; must be
	// scoped to the recording the call belongs to.
	RecordingStatusCallback       string `xml:"recordingStatusCallback,attr"`
	RecordingStatusCallbackMethod string `xml:"recordingStatusCallbackMethod,attr,omitempty"`

	Trim string `xml:"trim,attr,omitempty"`
}

// RenderRecordingInstructions builds the instruction document returned from
// the call-started webhook: play the greeting, then record the rest of the
// call with leading/trailing silence trimmed, reporting status to
// statusCallbackURL.
func RenderRecordingInstructions(greetingURL, statusCallbackURL string) (string, error) {
	if greetingURL == "" {
		return "", errors.New("telephony: greeting url required")
	}
	if statusCallbackURL == "" {
		return "", errors.New("telephony: status callback url required")
	}

	r := twimlResponse{
		Verbs: []any{
			twimlPlay{URL: greetingURL},
			twimlRecord{
				RecordingStatusCallback:       statusCallbackURL,
				RecordingStatusCallbackMethod: "POST",
				Trim:                          "trim-silence",
			},
		},
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(r); err != nil {
		return "", err
	}
	if err := enc.Flush(); err != nil {
		return "", err
	}
	return buf.String(), nil
}
