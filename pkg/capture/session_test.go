package capture

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gvdkamdar/GenUI-for-bookmarks/pkg/errors"
)

func newSession() *Session {
	return NewSession(8*time.Second, []string{"/graphql", "bookmark"}, epoch)
}

func TestRelevant(t *testing.T) {
	s := newSession()

	assert.True(t, s.Relevant(bookmarksURL))
	assert.True(t, s.Relevant("https://x.com/i/api/graphql/x/BookmarkFoldersSlice"))
	assert.False(t, s.Relevant("https://x.com/i/api/graphql/x/HomeTimeline"))
	assert.False(t, s.Relevant("https://x.com/i/api/2/bookmarks.json"))
}

func TestSessionAppendsNewRecordsInOrder(t *testing.T) {
	s := newSession()

	step := s.HandleResponse(Response{URL: bookmarksURL, Body: payload("1", "2", "3"), At: at(100)})

	require.True(t, step.Relevant)
	require.Len(t, step.New, 3)
	assert.Equal(t, "1", step.New[0].ID)
	assert.Equal(t, "3", step.New[2].ID)
	assert.Equal(t, "https://x.com/gopher/status/2", step.New[1].Permalink)
	assert.Equal(t, Active, step.State)
	assert.Equal(t, 3, s.SeenCount())
}

func TestSessionKeepsFirstOccurrence(t *testing.T) {
	s := newSession()

	first := s.HandleResponse(Response{URL: bookmarksURL, Body: payload("7=original"), At: at(100)})
	second := s.HandleResponse(Response{URL: bookmarksURL, Body: payload("7=edited", "8"), At: at(200)})

	require.Len(t, first.New, 1)
	assert.Equal(t, "original", first.New[0].Text)

	require.Len(t, second.New, 1)
	assert.Equal(t, "8", second.New[0].ID)
	assert.Equal(t, 1, second.Duplicates)
	assert.True(t, s.Seen("7"))
}

func TestSessionDuplicateWithinOneResponse(t *testing.T) {
	s := newSession()

	step := s.HandleResponse(Response{URL: bookmarksURL, Body: payload("5", "5"), At: at(10)})

	assert.Len(t, step.New, 1)
	assert.Equal(t, 1, step.Duplicates)
}

func TestSessionIdleAccumulatesToTermination(t *testing.T) {
	s := newSession()
	s.HandleResponse(Response{URL: bookmarksURL, Body: payload("1"), At: at(0)})

	for i, ms := range []int{2000, 4000, 6000} {
		step := s.HandleResponse(Response{URL: bookmarksURL, Body: payload("1"), At: at(ms)})
		assert.Empty(t, step.New)
		assert.Equal(t, Idle, step.State, "response %d", i)
		assert.Equal(t, time.Duration(ms)*time.Millisecond, step.Idle)
	}

	step := s.HandleResponse(Response{URL: bookmarksURL, Body: payload(), At: at(8000)})
	assert.Equal(t, Terminated, step.State)
	assert.Equal(t, Terminated, s.State())
}

func TestSessionNewRecordResetsIdle(t *testing.T) {
	s := newSession()

	s.HandleResponse(Response{URL: bookmarksURL, Body: payload("1"), At: at(0)})
	s.HandleResponse(Response{URL: bookmarksURL, Body: payload("1"), At: at(3000)})
	s.HandleResponse(Response{URL: bookmarksURL, Body: payload("1"), At: at(6000)})
	require.Equal(t, 6*time.Second, s.Idle())

	step := s.HandleResponse(Response{URL: bookmarksURL, Body: payload("1", "2"), At: at(7000)})

	assert.Len(t, step.New, 1)
	assert.Equal(t, time.Duration(0), s.Idle())
	assert.Equal(t, Active, s.State())

	// the next 8s window starts from the reset
	s.HandleResponse(Response{URL: bookmarksURL, Body: payload("2"), At: at(14000)})
	assert.Equal(t, Idle, s.State())
	s.Tick(at(15000))
	assert.Equal(t, Terminated, s.State())
}

func TestSessionTickWithoutResponses(t *testing.T) {
	s := newSession()

	for ms := 1500; ms < 8000; ms += 1500 {
		assert.Equal(t, Idle, s.Tick(at(ms)).State)
	}
	assert.Equal(t, 7500*time.Millisecond, s.Idle())
	assert.Equal(t, Terminated, s.Tick(at(9000)).State)
}

func TestSessionIgnoresIrrelevantResponses(t *testing.T) {
	s := newSession()
	s.Tick(at(1000))

	step := s.HandleResponse(Response{URL: "https://x.com/i/api/graphql/x/HomeTimeline", Body: payload("1"), At: at(50000)})

	assert.False(t, step.Relevant)
	assert.Empty(t, step.New)
	assert.Equal(t, time.Second, s.Idle())
	assert.Equal(t, 0, s.SeenCount())
	// irrelevant responses do not move the session clock
	s.Tick(at(2000))
	assert.Equal(t, 2*time.Second, s.Idle())
}

func TestSessionParseFailureHasNoEffect(t *testing.T) {
	s := newSession()
	s.HandleResponse(Response{URL: bookmarksURL, Body: payload("1"), At: at(0)})

	step := s.HandleResponse(Response{URL: bookmarksURL, Body: []byte("<html>rate limited</html>"), At: at(9000)})

	require.Error(t, step.Err)
	assert.True(t, errors.IsType(step.Err, errors.ErrorTypeParse))
	assert.False(t, step.Relevant)
	assert.Equal(t, Active, s.State())
	assert.Equal(t, time.Duration(0), s.Idle())
}

func TestSessionTerminatedIsAbsorbing(t *testing.T) {
	s := newSession()
	s.Tick(at(10000))
	require.Equal(t, Terminated, s.State())

	step := s.HandleResponse(Response{URL: bookmarksURL, Body: payload("1"), At: at(10001)})

	assert.Empty(t, step.New)
	assert.Equal(t, Terminated, step.State)
	assert.False(t, s.Seen("1"))
}

func TestSessionClockGoingBackwards(t *testing.T) {
	s := newSession()
	s.Tick(at(2000))

	s.Tick(at(1000))

	assert.Equal(t, 2*time.Second, s.Idle())
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "active", Active.String())
	assert.Equal(t, "idle", Idle.String())
	assert.Equal(t, "terminated", Terminated.String())
	assert.Equal(t, "unknown", State(9).String())
}
