package httpapi

import (
	"net/http"

	"voice-recorder/internal/telephony"
	"voice-recorder/pkg/logger"

	"github.com/gin-gonic/gin"
)

// RequireProviderSignature rejects webhook requests whose X-Twilio-Signature
// does not match. The signed URL is reconstructed from the configured public
// base URL because the service typically sits behind a proxy.
func RequireProviderSignature(v telephony.SignatureValidator, links LinkBuilder) gin.HandlerFunc {
	return func(c *gin.Context) {
		publicURL := links.BaseURL + c.Request.URL.RequestURI()
		if !v.Valid(c.Request, publicURL) {
			logger.FromGin(c).Warn("webhook signature rejected", "path", c.Request.URL.Path)
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "invalid signature"})
			return
		}
		c.Next()
	}
}
