package httpapi

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strings"
	"testing"

	"voice-recorder/internal/telephony"

	"github.com/gin-gonic/gin"
)

func TestRequireProviderSignature(t *testing.T) {
	gin.SetMode(gin.TestMode)
	const token = "auth-token"
	links := LinkBuilder{BaseURL: "https://recorder.example.com"}

	r := gin.New()
	r.POST("/recordings/:id/webhooks/recording-status",
		RequireProviderSignature(telephony.SignatureValidator{AuthToken: token}, links),
		func(c *gin.Context) { c.Status(http.StatusOK) },
	)

	form := url.Values{}
	form.Set("RecordingStatus", "completed")
	form.Set("RecordingSid", "RS1")

	path := "/recordings/r1/webhooks/recording-status"

	// Signed request passes.
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set(telephony.SignatureHeader, sign(token, links.BaseURL+path, form))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected signed request accepted, got %d", w.Code)
	}

	// Unsigned request is rejected.
	req = httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for unsigned request, got %d", w.Code)
	}
}

func sign(token, publicURL string, form url.Values) string {
	payload := publicURL
	keys := make([]string, 0, len(form))
	for k := range form {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		payload += k + form.Get(k)
	}
	mac := hmac.New(sha1.New, []byte(token))
	mac.Write([]byte(payload))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}
