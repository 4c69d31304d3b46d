package lens

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"
)

// fakeTransport replays a scripted sequence of responses and records the
// requests it saw.
type fakeTransport struct {
	script   []fakeRound
	requests []*EncodedRequest
}

type fakeRound struct {
	resp *Response
	err  error
}

func (f *fakeTransport) RoundTrip(ctx context.Context, req *EncodedRequest) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.requests = append(f.requests, req)
	if len(f.script) == 0 {
		return nil, errors.New("fakeTransport: script exhausted")
	}
	round := f.script[0]
	f.script = f.script[1:]
	return round.resp, round.err
}

func testPolicy() Policy {
	return Policy{MaxAttempts: 3, InitialInterval: time.Millisecond, MaxInterval: time.Millisecond}
}

func okResponse(cookie string) *Response {
	header := http.Header{}
	if cookie != "" {
		header.Add("Set-Cookie", cookie+"; Path=/; HttpOnly")
	}
	return &Response{
		Status: http.StatusOK,
		Header: header,
		Body: body(`[null, null, null, [
			["Hello", "en", [[10,10],[60,10],[60,20],[10,20]], 0.9],
			["World", "en", [[70,10],[120,10],[120,20],[70,20]], 0.8]
		]]`),
	}
}

func TestSubmitSuccessAdoptsSession(t *testing.T) {
	ft := &fakeTransport{script: []fakeRound{{resp: okResponse("sid=abc")}}}
	c := NewClient(ft, testPolicy())

	res, err := c.Submit(context.Background(), testImage(), "")
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if res.FullText != "Hello World" {
		t.Fatalf("FullText = %q", res.FullText)
	}
	if res.Attempts != 1 {
		t.Fatalf("result attempts = %d, want 1", res.Attempts)
	}
	if len(ft.requests) != 1 {
		t.Fatalf("round trips = %d, want 1", len(ft.requests))
	}
	cookie, ok := c.session.Cookie()
	if !ok || cookie != "sid=abc" {
		t.Fatalf("issued cookie not adopted: %q %v", cookie, ok)
	}
	if c.session.Sequence() != 1 {
		t.Fatalf("sequence = %d, want 1 after one round trip", c.session.Sequence())
	}
}

func TestSubmitCarriesSessionAcrossCalls(t *testing.T) {
	ft := &fakeTransport{script: []fakeRound{
		{resp: okResponse("sid=abc")},
		{resp: okResponse("")},
	}}
	c := NewClient(ft, testPolicy())

	if _, err := c.Submit(context.Background(), testImage(), ""); err != nil {
		t.Fatalf("first Submit() error = %v", err)
	}
	if _, err := c.Submit(context.Background(), testImage(), ""); err != nil {
		t.Fatalf("second Submit() error = %v", err)
	}
	second := ft.requests[1]
	if second.Headers["Cookie"] != "sid=abc" {
		t.Fatalf("second request cookie = %q, want sid=abc", second.Headers["Cookie"])
	}
	if second.Headers[headerSequence] != "1" {
		t.Fatalf("second request sequence = %q, want 1", second.Headers[headerSequence])
	}
}

func TestSubmitRetriesRateLimitWithFreshCookie(t *testing.T) {
	ft := &fakeTransport{script: []fakeRound{
		{resp: &Response{Status: http.StatusTooManyRequests, Header: http.Header{}}},
		{resp: okResponse("sid=new")},
	}}
	c := NewClient(ft, testPolicy())
	// Simulate an earlier exchange that issued a cookie.
	c.session.cookie = "sid=stale"

	res, err := c.Submit(context.Background(), testImage(), "")
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if len(res.Segments) != 2 {
		t.Fatalf("segments = %d, want 2", len(res.Segments))
	}
	if res.Attempts != 2 {
		t.Fatalf("result attempts = %d, want 2", res.Attempts)
	}
	if len(ft.requests) != 2 {
		t.Fatalf("round trips = %d, want 2", len(ft.requests))
	}
	if _, ok := ft.requests[1].Headers["Cookie"]; ok {
		t.Fatalf("rate-limited retry must start from a fresh cookie")
	}
	if cookie, _ := c.session.Cookie(); cookie != "sid=new" {
		t.Fatalf("cookie = %q, want sid=new", cookie)
	}
}

func TestSubmitInterstitialBodyIsRateLimit(t *testing.T) {
	ft := &fakeTransport{script: []fakeRound{
		{resp: &Response{
			Status: http.StatusOK,
			Header: http.Header{},
			Body:   []byte("<html>anti-automation check</html>"),
		}},
		{resp: okResponse("")},
	}}
	c := NewClient(ft, testPolicy())

	if _, err := c.Submit(context.Background(), testImage(), ""); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if len(ft.requests) != 2 {
		t.Fatalf("round trips = %d, want retry after interstitial", len(ft.requests))
	}
}

func TestSubmitSessionExpiredRetries(t *testing.T) {
	ft := &fakeTransport{script: []fakeRound{
		{resp: &Response{Status: http.StatusUnauthorized, Header: http.Header{}}},
		{resp: okResponse("sid=fresh")},
	}}
	c := NewClient(ft, testPolicy())
	c.session.cookie = "sid=expired"

	if _, err := c.Submit(context.Background(), testImage(), ""); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if _, ok := ft.requests[1].Headers["Cookie"]; ok {
		t.Fatalf("expired cookie must not be resent")
	}
}

func TestSubmitEncodeFailureIsPermanent(t *testing.T) {
	ft := &fakeTransport{}
	c := NewClient(ft, testPolicy())

	bad := testImage()
	bad.Width = 0
	_, err := c.Submit(context.Background(), bad, "")
	var perr *ProtocolError
	if !errors.As(err, &perr) {
		t.Fatalf("error = %v, want *ProtocolError", err)
	}
	if perr.Kind != FailureEncode {
		t.Fatalf("kind = %v, want encode", perr.Kind)
	}
	if perr.Attempts != 1 {
		t.Fatalf("attempts = %d, encode failures must not be retried", perr.Attempts)
	}
	if len(ft.requests) != 0 {
		t.Fatalf("transport must never see an unencodable request")
	}
}

func TestSubmitDecodeFailureIsPermanent(t *testing.T) {
	ft := &fakeTransport{script: []fakeRound{
		{resp: &Response{Status: http.StatusOK, Header: http.Header{}, Body: body(`{"unexpected": true}`)}},
	}}
	c := NewClient(ft, testPolicy())

	_, err := c.Submit(context.Background(), testImage(), "")
	var perr *ProtocolError
	if !errors.As(err, &perr) {
		t.Fatalf("error = %v, want *ProtocolError", err)
	}
	if perr.Kind != FailureDecode {
		t.Fatalf("kind = %v, want decode", perr.Kind)
	}
	if perr.Attempts != 1 || len(ft.requests) != 1 {
		t.Fatalf("decode failures must not be retried: attempts=%d trips=%d", perr.Attempts, len(ft.requests))
	}
	var shapeErr *UnrecognizedShapeError
	if !errors.As(err, &shapeErr) {
		t.Fatalf("decode failure must unwrap to the shape error, got %v", err)
	}
}

func TestSubmitRateLimitExhaustion(t *testing.T) {
	limited := fakeRound{resp: &Response{Status: http.StatusTooManyRequests, Header: http.Header{}}}
	ft := &fakeTransport{script: []fakeRound{limited, limited, limited}}
	c := NewClient(ft, testPolicy())

	_, err := c.Submit(context.Background(), testImage(), "")
	var perr *ProtocolError
	if !errors.As(err, &perr) {
		t.Fatalf("error = %v, want *ProtocolError", err)
	}
	if perr.Kind != FailureRateLimited {
		t.Fatalf("kind = %v, want rate limited", perr.Kind)
	}
	if perr.Attempts != 3 || len(ft.requests) != 3 {
		t.Fatalf("attempts=%d trips=%d, want policy maximum of 3", perr.Attempts, len(ft.requests))
	}
}

func TestSubmitTransportErrorRetries(t *testing.T) {
	ft := &fakeTransport{script: []fakeRound{
		{err: errors.New("connection reset")},
		{resp: okResponse("")},
	}}
	c := NewClient(ft, testPolicy())

	if _, err := c.Submit(context.Background(), testImage(), ""); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if len(ft.requests) != 2 {
		t.Fatalf("round trips = %d, want 2", len(ft.requests))
	}
	// The failed attempt returned no response, so the sequence was consumed
	// only by the successful one.
	if c.session.Sequence() != 1 {
		t.Fatalf("sequence = %d, want 1", c.session.Sequence())
	}
}

func TestSubmitCancellationLeavesSessionUntouched(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	ft := &cancellingTransport{cancel: cancel}
	c := NewClient(ft, testPolicy())

	_, err := c.Submit(ctx, testImage(), "")
	if err == nil {
		t.Fatalf("expected error from cancelled submit")
	}
	if c.session.Sequence() != 0 {
		t.Fatalf("sequence consumed despite cancellation: %d", c.session.Sequence())
	}
	if _, ok := c.session.Cookie(); ok {
		t.Fatalf("cookie mutated despite cancellation")
	}
}

// cancellingTransport cancels its own context mid-flight and reports the
// cancellation, the way an aborted HTTP round trip would.
type cancellingTransport struct {
	cancel context.CancelFunc
}

func (ct *cancellingTransport) RoundTrip(ctx context.Context, _ *EncodedRequest) (*Response, error) {
	ct.cancel()
	return nil, ctx.Err()
}
