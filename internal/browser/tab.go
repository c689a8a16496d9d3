package browser

import (
	"context"
	"encoding/base64"
	"fmt"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"

	"github.com/gvdkamdar/GenUI-for-bookmarks/pkg/capture"
	"github.com/gvdkamdar/GenUI-for-bookmarks/pkg/errors"
	"github.com/gvdkamdar/GenUI-for-bookmarks/pkg/logger"
)

const (
	navigateTimeout = 60 * time.Second
	responseBuffer  = 64
)

// Tab is a stealth page whose matching network responses are delivered
// as capture.Response values. It satisfies capture.Source once Listen has
// been called.
type Tab struct {
	page        *rod.Page
	scrollDelta float64
	log         logger.Logger

	out     chan capture.Response
	pending *pending
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	once    sync.Once
}

// OpenTab creates a stealth page and navigates it to pageURL. A slow load
// is logged and tolerated since the operator may still need to sign in.
func OpenTab(ctx context.Context, mgr *Manager, pageURL string, scrollDelta float64) (*Tab, error) {
	b := mgr.Browser()
	if b == nil {
		return nil, fmt.Errorf("open tab: browser not started")
	}

	page, err := stealth.Page(b)
	if err != nil {
		return nil, fmt.Errorf("open tab: %w", err)
	}

	navCtx, cancel := context.WithTimeout(ctx, navigateTimeout)
	defer cancel()

	if err := page.Context(navCtx).Navigate(pageURL); err != nil {
		page.Close()
		return nil, fmt.Errorf("navigate %s: %w", pageURL, err)
	}
	if err := page.Context(navCtx).WaitLoad(); err != nil {
		mgr.log.WithError(err).WithField("url", pageURL).Warn("Page load did not finish")
	}

	return &Tab{
		page:        page,
		scrollDelta: scrollDelta,
		log:         mgr.log.WithField("url", pageURL),
		out:         make(chan capture.Response, responseBuffer),
		pending:     newPending(),
	}, nil
}

// Listen starts delivering response bodies whose URL passes relevant.
// Bodies are fetched off the event goroutine so slow fetches never stall
// the event stream.
func (t *Tab) Listen(ctx context.Context, relevant func(url string) bool) error {
	ctx, t.cancel = context.WithCancel(ctx)

	if err := (proto.NetworkEnable{}).Call(t.page); err != nil {
		return fmt.Errorf("enable network events: %w", err)
	}

	wait := t.page.Context(ctx).EachEvent(
		func(e *proto.NetworkResponseReceived) {
			if e.Response != nil && relevant(e.Response.URL) {
				t.pending.track(e.RequestID, e.Response.URL)
			}
		},
		func(e *proto.NetworkLoadingFinished) {
			url, ok := t.pending.finish(e.RequestID)
			if !ok {
				return
			}
			t.wg.Add(1)
			go func() {
				defer t.wg.Done()
				t.fetch(ctx, e.RequestID, url)
			}()
		},
		func(e *proto.NetworkLoadingFailed) {
			t.pending.finish(e.RequestID)
		},
	)

	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		wait()
	}()

	t.log.Debug("Listening for responses")
	return nil
}

func (t *Tab) fetch(ctx context.Context, id proto.NetworkRequestID, url string) {
	res, err := proto.NetworkGetResponseBody{RequestID: id}.Call(t.page)
	if err != nil {
		// bodies evicted from the browser cache are expected now and then
		t.log.WithError(errors.NewTransportError("read response body", err)).
			WithField("response", url).Debug("Skipping response")
		return
	}

	body, err := decodeBody(res.Body, res.Base64Encoded)
	if err != nil {
		t.log.WithError(err).WithField("response", url).Debug("Skipping response")
		return
	}

	select {
	case t.out <- capture.Response{URL: url, Body: body}:
	case <-ctx.Done():
	}
}

// Responses delivers matching bodies until the tab is closed.
func (t *Tab) Responses() <-chan capture.Response {
	return t.out
}

// Nudge scrolls the page to trigger the next page of results.
func (t *Tab) Nudge(ctx context.Context) error {
	return t.page.Context(ctx).Mouse.Scroll(0, t.scrollDelta, 1)
}

// Close stops listening and closes the page. The response channel is
// closed once in-flight fetches have finished.
func (t *Tab) Close() error {
	var err error
	t.once.Do(func() {
		if t.cancel != nil {
			t.cancel()
		}
		err = t.page.Close()
		t.wg.Wait()
		close(t.out)
	})
	return err
}

func decodeBody(body string, base64Encoded bool) ([]byte, error) {
	if !base64Encoded {
		return []byte(body), nil
	}
	b, err := base64.StdEncoding.DecodeString(body)
	if err != nil {
		return nil, errors.NewParseError("decode base64 body", err)
	}
	return b, nil
}

// pending maps in-flight matching requests to their URL between the
// response headers and the end of the body.
type pending struct {
	mu   sync.Mutex
	urls map[proto.NetworkRequestID]string
}

func newPending() *pending {
	return &pending{urls: make(map[proto.NetworkRequestID]string)}
}

func (p *pending) track(id proto.NetworkRequestID, url string) {
	p.mu.Lock()
	p.urls[id] = url
	p.mu.Unlock()
}

func (p *pending) finish(id proto.NetworkRequestID) (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	url, ok := p.urls[id]
	delete(p.urls, id)
	return url, ok
}

func (p *pending) len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.urls)
}
