package telephony

import (
	"crypto/hmac"
	"crypto/sha1"
	"crypto/subtle"
	"encoding/base64"
	"net/http"
	"sort"
	"strings"
)

// SignatureValidator verifies the X-Twilio-Signature header so webhook
// endpoints only accept callbacks that genuinely originate from the provider.
//
// Scheme (per Twilio's request validation):
//   base64(HMAC-SHA1(auth_token, full_url + sorted(post_param_name + value)...))
//
// GET deliveries sign only the full URL including the query string.
type SignatureValidator struct {
	AuthToken string
}

const SignatureHeader = "X-Twilio-Signature"

// Valid checks the request signature against the externally visible URL.
// publicURL must be the absolute URL the provider was given (the service may
// sit behind a proxy, so it cannot be reconstructed from the request alone).
func (v SignatureValidator) Valid(r *http.Request, publicURL string) bool {
	if v.AuthToken == "" {
		return false
	}
	got := r.Header.Get(SignatureHeader)
	if got == "" {
		return false
	}

	payload := publicURL
	if r.Method == http.MethodPost {
		if err := r.ParseForm(); err != nil {
			return false
		}
		keys := make([]string, 0, len(r.PostForm))
		for k := range r.PostForm {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		var b strings.Builder
		b.WriteString(publicURL)
		for _, k := range keys {
			b.WriteString(k)
			b.WriteString(r.PostForm.Get(k))
		}
		payload = b.String()
	}

	mac := hmac.New(sha1.New, []byte(v.AuthToken))
	mac.Write([]byte(payload))
	want := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	return subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}
