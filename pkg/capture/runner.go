package capture

import (
	"context"
	"fmt"
	"time"

	"github.com/gvdkamdar/GenUI-for-bookmarks/pkg/errors"
	"github.com/gvdkamdar/GenUI-for-bookmarks/pkg/logger"
	"github.com/gvdkamdar/GenUI-for-bookmarks/pkg/models"
)

const (
	DefaultIdleThreshold = 8 * time.Second
	DefaultNudgeInterval = 1500 * time.Millisecond
)

// Source produces captured responses and can be asked for more
type Source interface {
	Responses() <-chan Response
	// Nudge asks the source to load more data, e.g. by scrolling
	Nudge(ctx context.Context) error
}

// RecordSink receives new records; storage.Stream satisfies it
type RecordSink interface {
	Append(v any) error
	Close() error
}

// Options configures a Runner
type Options struct {
	IdleThreshold time.Duration
	NudgeInterval time.Duration
	MatchPatterns []string
	// OnSample receives the body of the first relevant response
	OnSample func(body []byte) error
	// OnRecord is called after each record is written
	OnRecord func(post models.Post)
	Now      func() time.Time
}

// Summary reports what a capture run did
type Summary struct {
	Records       int
	Responses     int
	Relevant      int
	ParseFailures int
	Duplicates    int
	WriteFailures int
	State         State
	Reason        string
	StartedAt     time.Time
	FinishedAt    time.Time
}

// Runner drives a Session from a Source on a single goroutine. Responses
// and nudge ticks are handled one at a time, so the session and the sink
// are never touched concurrently.
type Runner struct {
	source  Source
	sink    RecordSink
	opts    Options
	logger  logger.Logger
	sampled bool
}

// NewRunner creates a runner; zero options take the defaults
func NewRunner(source Source, sink RecordSink, opts Options, log logger.Logger) *Runner {
	if opts.IdleThreshold <= 0 {
		opts.IdleThreshold = DefaultIdleThreshold
	}
	if opts.NudgeInterval <= 0 {
		opts.NudgeInterval = DefaultNudgeInterval
	}
	if len(opts.MatchPatterns) == 0 {
		opts.MatchPatterns = []string{"/graphql", "bookmark"}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if log == nil {
		log = logger.GetLogger()
	}
	return &Runner{
		source: source,
		sink:   sink,
		opts:   opts,
		logger: log.WithField("component", "capture"),
	}
}

// Run captures until the session goes idle for the threshold or ctx is
// cancelled. The sink is closed on return either way.
func (r *Runner) Run(ctx context.Context) (summary Summary, err error) {
	summary.StartedAt = r.opts.Now()
	session := NewSession(r.opts.IdleThreshold, r.opts.MatchPatterns, summary.StartedAt)

	defer func() {
		summary.State = session.State()
		summary.FinishedAt = r.opts.Now()
		if closeErr := r.sink.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close output: %w", closeErr)
		}
	}()

	r.logger.InfoWithFields("Capture session started", map[string]interface{}{
		"idle_threshold": r.opts.IdleThreshold,
		"nudge_interval": r.opts.NudgeInterval,
		"patterns":       r.opts.MatchPatterns,
	})

	ticker := time.NewTicker(r.opts.NudgeInterval)
	defer ticker.Stop()

	responses := r.source.Responses()
	for {
		select {
		case <-ctx.Done():
			summary.Reason = "interrupted"
			r.logger.WarnWithFields("Capture interrupted", map[string]interface{}{
				"records": summary.Records,
			})
			return summary, ctx.Err()

		case resp, ok := <-responses:
			if !ok {
				// source is gone; ticks alone will run the session out
				responses = nil
				r.logger.Warn("Response source closed")
				continue
			}
			r.handle(session, resp, &summary)

		case <-ticker.C:
			if nudgeErr := r.source.Nudge(ctx); nudgeErr != nil {
				r.logger.WithError(nudgeErr).Warn("Nudge failed")
			}
			step := session.Tick(r.opts.Now())
			r.logger.DebugWithFields("Idle check", map[string]interface{}{
				"state": step.State.String(),
				"idle":  step.Idle,
				"seen":  session.SeenCount(),
			})
		}

		if session.State() == Terminated {
			summary.Reason = "idle"
			r.logger.InfoWithFields("Capture session terminated", map[string]interface{}{
				"records":   summary.Records,
				"responses": summary.Relevant,
				"idle":      session.Idle(),
			})
			return summary, nil
		}
	}
}

// handle processes one response. A failure here is logged and never ends
// the session.
func (r *Runner) handle(session *Session, resp Response, summary *Summary) {
	defer func() {
		if rec := recover(); rec != nil {
			err := errors.NewTransportError("response handler panicked", fmt.Errorf("%v", rec))
			r.logger.WithError(err).WithField("url", resp.URL).Error("Response handling failed")
		}
	}()

	summary.Responses++
	if resp.At.IsZero() {
		resp.At = r.opts.Now()
	}

	step := session.HandleResponse(resp)
	if step.Err != nil {
		summary.ParseFailures++
		r.logger.WithError(step.Err).WithField("url", resp.URL).Debug("Ignoring unparseable response")
		return
	}
	if !step.Relevant {
		return
	}

	summary.Relevant++
	summary.Duplicates += step.Duplicates
	r.sample(resp.Body)

	for _, post := range step.New {
		if err := r.sink.Append(post); err != nil {
			summary.WriteFailures++
			r.logger.WithError(err).WithField("id", post.ID).Error("Failed to write record")
			continue
		}
		summary.Records++
		if r.opts.OnRecord != nil {
			r.opts.OnRecord(post)
		}
	}

	if len(step.New) > 0 {
		r.logger.DebugWithFields("Captured records", map[string]interface{}{
			"new":   len(step.New),
			"dupes": step.Duplicates,
			"total": summary.Records,
		})
	}
}

func (r *Runner) sample(body []byte) {
	if r.sampled || r.opts.OnSample == nil {
		return
	}
	r.sampled = true
	if err := r.opts.OnSample(body); err != nil {
		r.logger.WithError(err).Warn("Failed to write response sample")
	}
}
