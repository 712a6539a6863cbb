package telephony

import (
	"net/http"
	"strings"
)

// RecordingStatusForm captures the subset of recording-status webhook fields
// we care about. Twilio sends application/x-www-form-urlencoded by default,
// but delivers some callbacks as GET with query parameters instead.
//
// Keep it minimal and provider-adapter-only.
// Business logic (the state machine) is not applied here.

type RecordingStatusForm struct {
	RecordingStatus string
	RecordingSid    string
	RecordingURL    string
	CallSid         string
	ErrorCode       string
}

// ParseRecordingStatus reads webhook parameters from either the query string
// (GET delivery) or the form body (POST delivery).
func ParseRecordingStatus(r *http.Request) (RecordingStatusForm, error) {
	if err := r.ParseForm(); err != nil {
		return RecordingStatusForm{}, err
	}
	// r.Form merges query and body values, covering both delivery methods.
	f := RecordingStatusForm{
		RecordingStatus: strings.TrimSpace(r.FormValue("RecordingStatus")),
		RecordingSid:    strings.TrimSpace(r.FormValue("RecordingSid")),
		RecordingURL:    strings.TrimSpace(r.FormValue("RecordingUrl")),
		CallSid:         strings.TrimSpace(r.FormValue("CallSid")),
		ErrorCode:       strings.TrimSpace(r.FormValue("ErrorCode")),
	}
	return f, nil
}
