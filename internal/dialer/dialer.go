package dialer

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"voice-recorder/internal/events"
	"voice-recorder/internal/telephony"
)

// Dialer places outbound calls asynchronously. Request handlers enqueue a
// placement job and return immediately; a single worker owns the provider's
// per-account rate cap (~1 call/sec), per-attempt timeouts, and retries.
// Placement failure is reported back to the recording, not to the client.

const FailureReasonPlacement = "call_placement_failed"

// RecordingUpdater is the slice of the recordings service the worker needs.
type RecordingUpdater interface {
	RecordCallPlaced(ctx context.Context, id, providerCallID string) error
	RecordPlacementFailure(ctx context.Context, id, reason string) error
}

// RateLimiter gates placement attempts against the provider's outbound cap.
type RateLimiter interface {
	Allow(ctx context.Context) (bool, error)
}

// EventLog receives best-effort lifecycle events.
type EventLog interface {
	Append(ctx context.Context, e events.Event) error
}

type Config struct {
	// MaxAttempts bounds placement retries per job.
	MaxAttempts int
	// AttemptTimeout bounds one provider request.
	AttemptTimeout time.Duration
	// Backoff is the base delay between attempts; doubled per retry.
	Backoff time.Duration
	// QueueSize bounds the pending job queue. Enqueue fails when full.
	QueueSize int
}

func (c Config) withDefaults() Config {
	out := c
	if out.MaxAttempts <= 0 {
		out.MaxAttempts = 3
	}
	if out.AttemptTimeout <= 0 {
		out.AttemptTimeout = 10 * time.Second
	}
	if out.Backoff <= 0 {
		out.Backoff = time.Second
	}
	if out.QueueSize <= 0 {
		out.QueueSize = 256
	}
	return out
}

// Job is one pending call placement.
type Job struct {
	RecordingID string
	// To is the normalized destination number.
	To string
	// CallbackURL is the call-started webhook URL scoped to the recording.
	CallbackURL string
}

type Dialer struct {
	gw       telephony.Gateway
	recs     RecordingUpdater
	limiter  RateLimiter
	eventLog EventLog
	log      *slog.Logger
	cfg      Config

	jobs chan Job
}

var ErrQueueFull = errors.New("dialer: queue full")

func New(gw telephony.Gateway, recs RecordingUpdater, limiter RateLimiter, eventLog EventLog, log *slog.Logger, cfg Config) *Dialer {
	cfg = cfg.withDefaults()
	if log == nil {
		log = slog.Default()
	}
	return &Dialer{
		gw:       gw,
		recs:     recs,
		limiter:  limiter,
		eventLog: eventLog,
		log:      log,
		cfg:      cfg,
		jobs:     make(chan Job, cfg.QueueSize),
	}
}

// Enqueue submits a placement job without blocking the caller.
func (d *Dialer) Enqueue(ctx context.Context, job Job) error {
	if job.RecordingID == "" || job.To == "" || job.CallbackURL == "" {
		return errors.New("dialer: recording id, to and callback url required")
	}
	select {
	case d.jobs <- job:
		d.logEvent(ctx, job.RecordingID, events.TypeCallEnqueued, "call placement enqueued")
		return nil
	default:
		return ErrQueueFull
	}
}

// Run processes jobs until ctx is canceled, then fails whatever is still
// queued so no recording is left IN_PROGRESS waiting on a worker that is
// gone. Intended to run as a single goroutine; one worker is what keeps the
// provider rate cap trivially honored.
func (d *Dialer) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			d.drain()
			return
		case job := <-d.jobs:
			d.place(ctx, job)
		}
	}
}

// drain fails every job still queued at shutdown.
func (d *Dialer) drain() {
	for {
		select {
		case job := <-d.jobs:
			d.abandon(job)
		default:
			return
		}
	}
}

// abandon marks a job's recording FAILED when placement was cut short.
// Uses a detached context: the worker's own context is already canceled.
func (d *Dialer) abandon(job Job) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := d.recs.RecordPlacementFailure(ctx, job.RecordingID, FailureReasonPlacement); err != nil {
		d.log.Error("failure transition failed", "recording_id", job.RecordingID, "err", err)
	}
}

func (d *Dialer) place(ctx context.Context, job Job) {
	log := d.log.With("recording_id", job.RecordingID)

	var lastErr error
	backoff := d.cfg.Backoff
	for attempt := 1; attempt <= d.cfg.MaxAttempts; attempt++ {
		if err := d.waitForSlot(ctx); err != nil {
			d.abandon(job)
			return
		}

		attemptCtx, cancel := context.WithTimeout(ctx, d.cfg.AttemptTimeout)
		res, err := d.gw.PlaceCall(attemptCtx, telephony.PlaceCallRequest{
			To:          job.To,
			CallbackURL: job.CallbackURL,
		})
		cancel()

		if err == nil {
			if err := d.recs.RecordCallPlaced(ctx, job.RecordingID, res.ProviderCallID); err != nil {
				log.Error("recording update failed after placement", "err", err)
			}
			return
		}

		lastErr = err
		log.Warn("call placement attempt failed", "attempt", attempt, "err", err)

		if ctx.Err() != nil {
			d.abandon(job)
			return
		}
		if attempt < d.cfg.MaxAttempts {
			select {
			case <-ctx.Done():
				d.abandon(job)
				return
			case <-time.After(backoff):
			}
			backoff *= 2
		}
	}

	log.Error("call placement exhausted retries", "err", lastErr)
	if err := d.recs.RecordPlacementFailure(ctx, job.RecordingID, FailureReasonPlacement); err != nil {
		log.Error("failure transition failed", "err", err)
	}
}

// waitForSlot polls the rate limiter until a slot opens or ctx is canceled.
// A limiter error is treated as an open slot; the cap protects the provider
// relationship, it is not a correctness requirement.
func (d *Dialer) waitForSlot(ctx context.Context) error {
	if d.limiter == nil {
		return nil
	}
	for {
		ok, err := d.limiter.Allow(ctx)
		if err != nil {
			d.log.Warn("rate limiter unavailable, proceeding", "err", err)
			return nil
		}
		if ok {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(100 * time.Millisecond):
		}
	}
}

func (d *Dialer) logEvent(ctx context.Context, recordingID string, typ events.Type, message string) {
	if d.eventLog == nil {
		return
	}
	_ = d.eventLog.Append(ctx, events.Event{RecordingID: recordingID, Type: typ, Message: message})
}
