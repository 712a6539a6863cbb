package httpapi

// LinkBuilder constructs the externally visible URLs for a recording. The
// webhook URLs are handed to the telephony provider and must be absolute and
// publicly reachable; scoping them to the recording id is how callbacks are
// routed back to the right entity.
type LinkBuilder struct {
	// BaseURL is the public base URL without a trailing slash.
	BaseURL string
}

func (l LinkBuilder) RecordingPage(id string) string {
	return l.BaseURL + "/recordings/" + id
}

func (l LinkBuilder) StatusPoll(id string) string {
	return l.BaseURL + "/recordings/" + id + "/status"
}

func (l LinkBuilder) CallStartedWebhook(id string) string {
	return l.BaseURL + "/recordings/" + id + "/webhooks/call-started"
}

func (l LinkBuilder) RecordingStatusWebhook(id string) string {
	return l.BaseURL + "/recordings/" + id + "/webhooks/recording-status"
}
