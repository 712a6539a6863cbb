package httpapi

import (
	"context"
	"errors"
	"net/http"

	"voice-recorder/internal/dialer"
	"voice-recorder/internal/recordings"
	"voice-recorder/internal/telephony"
	"voice-recorder/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Handlers groups HTTP handlers for dependency injection.
// Keep these thin: parse/validate input, call internal services, respond.

// CallPlacer is the dialer surface the form handler needs.
type CallPlacer interface {
	Enqueue(ctx context.Context, job dialer.Job) error
}

type Handlers struct {
	Recordings *recordings.Service
	Dialer     CallPlacer
	Links      LinkBuilder

	// GreetingURL is the audio asset played before recording starts.
	GreetingURL string
}

// ShowForm renders the phone number submission form.
func (h Handlers) ShowForm(c *gin.Context) {
	c.Status(http.StatusOK)
	c.Header("Content-Type", "text/html; charset=utf-8")
	_ = formPage.Execute(c.Writer, gin.H{"Tel": "", "Error": ""})
}

// SubmitForm validates the number, creates the recording, and enqueues call
// placement. The client is redirected to the status page immediately; the
// dialer worker owns the slow provider call.
func (h Handlers) SubmitForm(c *gin.Context) {
	log := logger.FromGin(c)
	tel := c.PostForm("tel")

	rec, err := h.Recordings.Create(c.Request.Context(), tel)
	if err != nil {
		if errors.Is(err, recordings.ErrInvalidPhoneNumber) {
			c.Status(http.StatusUnprocessableEntity)
			c.Header("Content-Type", "text/html; charset=utf-8")
			_ = formPage.Execute(c.Writer, gin.H{"Tel": tel, "Error": "Please enter a phone number like 123-456-7890."})
			return
		}
		log.Error("recording create failed", "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "could not create recording"})
		return
	}

	err = h.Dialer.Enqueue(c.Request.Context(), dialer.Job{
		RecordingID: rec.ID,
		To:          recordings.NormalizePhoneNumber(rec.PhoneNumber),
		CallbackURL: h.Links.CallStartedWebhook(rec.ID),
	})
	if err != nil {
		// The entity exists; report the failure on it instead of erroring
		// the client, who lands on the status page and sees FAILED.
		log.Error("call placement enqueue failed", "recording_id", rec.ID, "err", err)
		if ferr := h.Recordings.RecordPlacementFailure(c.Request.Context(), rec.ID, dialer.FailureReasonPlacement); ferr != nil {
			log.Error("failure transition failed", "recording_id", rec.ID, "err", ferr)
		}
	}

	c.Redirect(http.StatusSeeOther, h.Links.RecordingPage(rec.ID))
}

// ShowRecording renders the status page with the playback link once the
// recording is complete.
func (h Handlers) ShowRecording(c *gin.Context) {
	rec, ok := h.lookup(c)
	if !ok {
		return
	}

	playbackURL, _ := h.Recordings.PlaybackURL(rec)
	c.Status(http.StatusOK)
	c.Header("Content-Type", "text/html; charset=utf-8")
	_ = recordingPage.Execute(c.Writer, gin.H{
		"Complete":    rec.Status == recordings.StatusComplete,
		"Failed":      rec.Status == recordings.StatusFailed,
		"PlaybackURL": playbackURL,
		"StatusURL":   h.Links.StatusPoll(rec.ID),
	})
}

// Status is the plain-text polling endpoint. Pure read; safe to call
// arbitrarily often.
func (h Handlers) Status(c *gin.Context) {
	rec, ok := h.lookup(c)
	if !ok {
		return
	}
	c.Header("Content-Type", "text/plain; charset=utf-8")
	c.String(http.StatusOK, string(rec.Status))
}

// CallStartedWebhook answers the provider's call-connected callback with the
// instruction document: play the greeting, then record with status callbacks
// scoped to this recording. No state mutation happens here.
func (h Handlers) CallStartedWebhook(c *gin.Context) {
	log := logger.FromGin(c)
	rec, ok := h.lookup(c)
	if !ok {
		return
	}

	twiml, err := telephony.RenderRecordingInstructions(h.GreetingURL, h.Links.RecordingStatusWebhook(rec.ID))
	if err != nil {
		log.Error("twiml render failed", "recording_id", rec.ID, "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "twiml failed"})
		return
	}
	c.Header("Content-Type", "application/xml")
	c.String(http.StatusOK, twiml)
}

// RecordingStatusWebhook applies a recording-status callback to the state
// machine. Always acknowledges with an empty 200 whether or not a transition
// occurred; the provider delivers at-least-once and out of order.
func (h Handlers) RecordingStatusWebhook(c *gin.Context) {
	log := logger.FromGin(c)
	id := c.Param("id")

	form, err := telephony.ParseRecordingStatus(c.Request)
	if err != nil {
		log.Warn("recording status parse failed", "recording_id", id, "err", err)
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid form"})
		return
	}

	applied, err := h.Recordings.ApplyStatusEvent(c.Request.Context(), id, recordings.StatusEvent{
		ProviderStatus:      form.RecordingStatus,
		ProviderRecordingID: form.RecordingSid,
	})
	if err != nil {
		if errors.Is(err, recordings.ErrNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "unknown recording"})
			return
		}
		log.Error("status event failed", "recording_id", id, "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "status update failed"})
		return
	}
	if !applied {
		log.Debug("status callback ignored", "recording_id", id, "status", form.RecordingStatus)
	}
	c.Status(http.StatusOK)
}

func (h Handlers) lookup(c *gin.Context) (recordings.Recording, bool) {
	id := c.Param("id")
	rec, err := h.Recordings.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, recordings.ErrNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "unknown recording"})
		} else {
			logger.FromGin(c).Error("recording lookup failed", "recording_id", id, "err", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		}
		return recordings.Recording{}, false
	}
	return rec, true
}
