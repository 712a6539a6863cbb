package httpapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"voice-recorder/internal/dialer"
	"voice-recorder/internal/events"
	"voice-recorder/internal/recordings"
	"voice-recorder/internal/telephony"

	"github.com/gin-gonic/gin"
)

type fakeGateway struct {
	placed []telephony.PlaceCallRequest
	err    error
}

func (g *fakeGateway) Name() string { return "fake" }

func (g *fakeGateway) PlaceCall(ctx context.Context, req telephony.PlaceCallRequest) (telephony.PlaceCallResult, error) {
	g.placed = append(g.placed, req)
	if g.err != nil {
		return telephony.PlaceCallResult{}, g.err
	}
	return telephony.PlaceCallResult{ProviderCallID: "CA_FAKE"}, nil
}

func (g *fakeGateway) RecordingMediaURL(sid string) string {
	return "https://api.twilio.example/Recordings/" + sid + ".mp3"
}

// syncPlacer places the call inline instead of through the dialer worker,
// keeping handler tests deterministic.
type syncPlacer struct {
	gw  telephony.Gateway
	svc *recordings.Service
}

func (p syncPlacer) Enqueue(ctx context.Context, job dialer.Job) error {
	res, err := p.gw.PlaceCall(ctx, telephony.PlaceCallRequest{To: job.To, CallbackURL: job.CallbackURL})
	if err != nil {
		return err
	}
	return p.svc.RecordCallPlaced(ctx, job.RecordingID, res.ProviderCallID)
}

type testEnv struct {
	router *gin.Engine
	svc    *recordings.Service
	repo   *recordings.MemoryRepo
	gw     *fakeGateway
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	repo := recordings.NewMemoryRepo()
	gw := &fakeGateway{}
	svc := recordings.NewService(repo, events.NewService(events.NewMemoryRepo()), recordings.ServiceConfig{
		MediaURL: gw.RecordingMediaURL,
	})

	h := Handlers{
		Recordings:  svc,
		Dialer:      syncPlacer{gw: gw, svc: svc},
		Links:       LinkBuilder{BaseURL: "https://recorder.example.com"},
		GreetingURL: "https://recorder.example.com/static/greeting.aifc",
	}

	r := gin.New()
	r.GET("/", h.ShowForm)
	r.POST("/", h.SubmitForm)
	r.GET("/recordings/:id", h.ShowRecording)
	r.GET("/recordings/:id/status", h.Status)
	r.GET("/recordings/:id/webhooks/call-started", h.CallStartedWebhook)
	r.POST("/recordings/:id/webhooks/call-started", h.CallStartedWebhook)
	r.GET("/recordings/:id/webhooks/recording-status", h.RecordingStatusWebhook)
	r.POST("/recordings/:id/webhooks/recording-status", h.RecordingStatusWebhook)

	return &testEnv{router: r, svc: svc, repo: repo, gw: gw}
}

func (e *testEnv) do(method, target, body string) *httptest.ResponseRecorder {
	var r *http.Request
	if body != "" {
		r = httptest.NewRequest(method, target, strings.NewReader(body))
		r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		r = httptest.NewRequest(method, target, nil)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, r)
	return w
}

func (e *testEnv) submit(t *testing.T, tel string) string {
	t.Helper()
	w := e.do(http.MethodPost, "/", url.Values{"tel": {tel}}.Encode())
	if w.Code != http.StatusSeeOther {
		t.Fatalf("expected redirect, got %d: %s", w.Code, w.Body.String())
	}
	loc := w.Header().Get("Location")
	id := loc[strings.LastIndex(loc, "/")+1:]
	if id == "" {
		t.Fatalf("no recording id in redirect: %q", loc)
	}
	return id
}

func TestFormGet(t *testing.T) {
	e := newTestEnv(t)
	w := e.do(http.MethodGet, "/", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Call me now") {
		t.Fatalf("expected form page")
	}
}

func TestSubmitInvalidNumberCreatesNothing(t *testing.T) {
	e := newTestEnv(t)
	w := e.do(http.MethodPost, "/", url.Values{"tel": {"555-12"}}.Encode())
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", w.Code)
	}
	if len(e.gw.placed) != 0 {
		t.Fatalf("gateway must not be called for invalid input")
	}
}

func TestEndToEndHappyPath(t *testing.T) {
	e := newTestEnv(t)

	// Submit the form; the raw number is stored, the normalized one dialed.
	id := e.submit(t, "123-456-7890")

	rec, err := e.svc.Get(context.Background(), id)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if rec.PhoneNumber != "123-456-7890" {
		t.Fatalf("expected raw number stored, got %q", rec.PhoneNumber)
	}
	if rec.Status != recordings.StatusInProgress {
		t.Fatalf("expected IN_PROGRESS, got %q", rec.Status)
	}
	if len(e.gw.placed) != 1 || e.gw.placed[0].To != "+11234567890" {
		t.Fatalf("expected normalized dial, got %+v", e.gw.placed)
	}
	if !strings.Contains(e.gw.placed[0].CallbackURL, "/recordings/"+id+"/webhooks/call-started") {
		t.Fatalf("callback url not scoped to recording: %q", e.gw.placed[0].CallbackURL)
	}
	if rec.ProviderCallID != "CA_FAKE" {
		t.Fatalf("expected provider call id persisted, got %q", rec.ProviderCallID)
	}

	// Call connects; provider asks for instructions.
	w := e.do(http.MethodPost, "/recordings/"+id+"/webhooks/call-started", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/xml") {
		t.Fatalf("expected xml content type, got %q", ct)
	}
	body := w.Body.String()
	if !strings.Contains(body, "<Play>") || !strings.Contains(body, "<Record") {
		t.Fatalf("expected play and record directives: %s", body)
	}
	if !strings.Contains(body, "/recordings/"+id+"/webhooks/recording-status") {
		t.Fatalf("status callback not scoped to recording: %s", body)
	}

	// Recording finishes.
	w = e.do(http.MethodPost, "/recordings/"+id+"/webhooks/recording-status", "RecordingStatus=completed&RecordingSid=RS1")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	rec, _ = e.svc.Get(context.Background(), id)
	if rec.Status != recordings.StatusComplete || rec.ProviderRecordingID != "RS1" {
		t.Fatalf("unexpected state: %+v", rec)
	}

	// Client poll observes completion.
	w = e.do(http.MethodGet, "/recordings/"+id+"/status", "")
	if w.Code != http.StatusOK || w.Body.String() != "COMPLETE" {
		t.Fatalf("expected COMPLETE, got %d %q", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Fatalf("expected text/plain, got %q", ct)
	}

	// Page shows the playback link.
	w = e.do(http.MethodGet, "/recordings/"+id, "")
	if !strings.Contains(w.Body.String(), "Recording complete!") {
		t.Fatalf("expected completion page")
	}
	if !strings.Contains(w.Body.String(), "Recordings/RS1.mp3") {
		t.Fatalf("expected playback url on page")
	}
}

func TestStatusWebhookInProgressIsNoOp(t *testing.T) {
	e := newTestEnv(t)
	id := e.submit(t, "123-456-7890")

	w := e.do(http.MethodPost, "/recordings/"+id+"/webhooks/recording-status", "RecordingStatus=in-progress")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	rec, _ := e.svc.Get(context.Background(), id)
	if rec.Status != recordings.StatusInProgress || rec.ProviderRecordingID != "" {
		t.Fatalf("unexpected state: %+v", rec)
	}
}

func TestStatusWebhookAcceptsGetDelivery(t *testing.T) {
	e := newTestEnv(t)
	id := e.submit(t, "123-456-7890")

	w := e.do(http.MethodGet, "/recordings/"+id+"/webhooks/recording-status?RecordingStatus=completed&RecordingSid=RS7", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	rec, _ := e.svc.Get(context.Background(), id)
	if rec.Status != recordings.StatusComplete || rec.ProviderRecordingID != "RS7" {
		t.Fatalf("unexpected state: %+v", rec)
	}
}

func TestUnknownRecordingIs404(t *testing.T) {
	e := newTestEnv(t)
	for _, target := range []string{
		"/recordings/nope",
		"/recordings/nope/status",
		"/recordings/nope/webhooks/call-started",
	} {
		if w := e.do(http.MethodGet, target, ""); w.Code != http.StatusNotFound {
			t.Fatalf("expected 404 for %s, got %d", target, w.Code)
		}
	}
	w := e.do(http.MethodPost, "/recordings/nope/webhooks/recording-status", "RecordingStatus=completed&RecordingSid=RS1")
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestPlacementFailureMarksRecordingFailed(t *testing.T) {
	e := newTestEnv(t)
	e.gw.err = &telephony.GatewayError{Op: "place_call", Err: context.DeadlineExceeded}

	id := e.submit(t, "123-456-7890")

	rec, _ := e.svc.Get(context.Background(), id)
	if rec.Status != recordings.StatusFailed {
		t.Fatalf("expected FAILED after placement failure, got %q", rec.Status)
	}

	w := e.do(http.MethodGet, "/recordings/"+id+"/status", "")
	if w.Body.String() != "FAILED" {
		t.Fatalf("expected FAILED, got %q", w.Body.String())
	}
}
