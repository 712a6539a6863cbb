package main

import (
	"voice-recorder/internal/config"
	"voice-recorder/internal/dialer"
	"voice-recorder/internal/httpapi"
	"voice-recorder/internal/recordings"
	"voice-recorder/internal/telephony"

	"github.com/gin-gonic/gin"
)

// registerRoutes wires HTTP routes to handlers.
// Keep this file free of business logic. Handlers should delegate to internal modules.
func registerRoutes(r *gin.Engine, cfg config.Config, recSvc *recordings.Service, dial *dialer.Dialer) {
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	h := httpapi.Handlers{
		Recordings:  recSvc,
		Dialer:      dial,
		Links:       httpapi.LinkBuilder{BaseURL: cfg.App.PublicBaseURL},
		GreetingURL: cfg.Twilio.GreetingURL,
	}

	r.GET("/", h.ShowForm)
	r.POST("/", h.SubmitForm)

	r.GET("/recordings/:id", h.ShowRecording)
	r.GET("/recordings/:id/status", h.Status)

	// Provider webhooks. The provider does not pick a consistent delivery
	// method, so both GET and POST are registered for each.
	webhooks := r.Group("/recordings/:id/webhooks")
	if cfg.Twilio.VerifySignatures {
		validator := telephony.SignatureValidator{AuthToken: cfg.Twilio.AuthToken}
		webhooks.Use(httpapi.RequireProviderSignature(validator, h.Links))
	}
	webhooks.GET("/call-started", h.CallStartedWebhook)
	webhooks.POST("/call-started", h.CallStartedWebhook)
	webhooks.GET("/recording-status", h.RecordingStatusWebhook)
	webhooks.POST("/recording-status", h.RecordingStatusWebhook)
}
