package capture

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/gvdkamdar/GenUI-for-bookmarks/pkg/errors"
	"github.com/gvdkamdar/GenUI-for-bookmarks/pkg/extract"
	"github.com/gvdkamdar/GenUI-for-bookmarks/pkg/models"
)

// State is the lifecycle position of a capture session
type State int

const (
	Active State = iota
	Idle
	Terminated
)

func (s State) String() string {
	switch s {
	case Active:
		return "active"
	case Idle:
		return "idle"
	case Terminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// Response is one network response observed by the browser
type Response struct {
	URL  string
	Body []byte
	At   time.Time
}

// Step describes the outcome of feeding one event to a Session
type Step struct {
	// Relevant is true when the response matched and its body parsed
	Relevant bool
	// New holds records not seen before in this session, in discovery order
	New []models.Post
	// Duplicates counts records dropped by the seen-set
	Duplicates int
	State      State
	Idle       time.Duration
	// Err is set when a matching response could not be parsed
	Err error
}

// Session deduplicates records across responses and tracks how long the
// stream has gone without producing anything new. It does no I/O and reads
// no clock: every event carries its own timestamp.
type Session struct {
	threshold time.Duration
	relevant  func(url string) bool
	seen      map[string]struct{}
	idle      time.Duration
	last      time.Time
	state     State
}

// NewSession starts an Active session at start. A response is relevant when
// its lower-cased URL contains every pattern.
func NewSession(threshold time.Duration, patterns []string, start time.Time) *Session {
	return &Session{
		threshold: threshold,
		relevant:  Matcher(patterns),
		seen:      make(map[string]struct{}),
		last:      start,
		state:     Active,
	}
}

// Matcher returns a case-insensitive test that a URL contains every pattern
func Matcher(patterns []string) func(url string) bool {
	lowered := make([]string, len(patterns))
	for i, p := range patterns {
		lowered[i] = strings.ToLower(p)
	}
	return func(url string) bool {
		lower := strings.ToLower(url)
		for _, p := range lowered {
			if !strings.Contains(lower, p) {
				return false
			}
		}
		return true
	}
}

// Relevant reports whether a response URL belongs to the capture target
func (s *Session) Relevant(url string) bool {
	return s.relevant(url)
}

// HandleResponse feeds one response to the session. Irrelevant and
// unparseable responses leave the session untouched.
func (s *Session) HandleResponse(r Response) Step {
	if s.state == Terminated || !s.Relevant(r.URL) {
		return s.step()
	}

	var payload any
	if err := json.Unmarshal(r.Body, &payload); err != nil {
		step := s.step()
		step.Err = errors.NewParseError("response body is not JSON", err)
		return step
	}

	var fresh []models.Post
	duplicates := 0
	for post := range extract.Posts(payload) {
		if _, ok := s.seen[post.ID]; ok {
			duplicates++
			continue
		}
		s.seen[post.ID] = struct{}{}
		fresh = append(fresh, post)
	}

	if len(fresh) > 0 {
		s.idle = 0
		s.state = Active
		if r.At.After(s.last) {
			s.last = r.At
		}
	} else {
		s.advance(r.At)
	}

	step := s.step()
	step.Relevant = true
	step.New = fresh
	step.Duplicates = duplicates
	return step
}

// Tick accounts for time passing without any response, and is how a
// session that receives nothing at all still reaches Terminated.
func (s *Session) Tick(at time.Time) Step {
	if s.state != Terminated {
		s.advance(at)
	}
	return s.step()
}

// advance adds the time elapsed since the previous event to the idle
// counter. Timestamps that go backwards add nothing.
func (s *Session) advance(at time.Time) {
	if at.After(s.last) {
		s.idle += at.Sub(s.last)
		s.last = at
	}
	switch {
	case s.idle >= s.threshold:
		s.state = Terminated
	case s.idle > 0:
		s.state = Idle
	}
}

func (s *Session) step() Step {
	return Step{State: s.state, Idle: s.idle}
}

// State returns the current state
func (s *Session) State() State { return s.state }

// Idle returns the accumulated idle duration
func (s *Session) Idle() time.Duration { return s.idle }

// SeenCount returns the number of distinct ids seen so far
func (s *Session) SeenCount() int { return len(s.seen) }

// Seen reports whether id has already been emitted
func (s *Session) Seen(id string) bool {
	_, ok := s.seen[id]
	return ok
}
