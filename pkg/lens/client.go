package lens

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Policy bounds the retry loop for transient failures.
type Policy struct {
	// MaxAttempts is the total number of round trips, first try included.
	MaxAttempts uint64
	// InitialInterval seeds the exponential backoff between attempts; the
	// actual delay is jittered.
	InitialInterval time.Duration
	// MaxInterval caps the backoff growth.
	MaxInterval time.Duration
}

// DefaultPolicy matches the pacing the service tolerates without tripping
// its anti-automation heuristics.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:     4,
		InitialInterval: 500 * time.Millisecond,
		MaxInterval:     8 * time.Second,
	}
}

// Client drives OCR round trips against the service. It owns its Session
// and serializes its own calls; run a pool of independent clients for
// concurrent throughput, since cookie continuity and sequence ordering are
// only meaningful for a strictly sequential request stream.
type Client struct {
	transport Transport
	policy    Policy

	mu      sync.Mutex
	session *Session
}

// NewClient returns a client submitting through the given transport.
func NewClient(transport Transport, policy Policy) *Client {
	if policy.MaxAttempts == 0 {
		policy = DefaultPolicy()
	}
	return &Client{
		transport: transport,
		policy:    policy,
		session:   NewSession(),
	}
}

// NewDefaultClient returns a client for the production endpoint with the
// default retry policy.
func NewDefaultClient() *Client {
	return NewClient(&HTTPTransport{}, DefaultPolicy())
}

// Submit performs one OCR round trip for the image, retrying transient
// failures per the client's policy. It resolves to exactly one of an
// OcrResult or a *ProtocolError. A response that is well-formed but carries
// no text is a success with an empty segment sequence.
//
// languageHint, when non-empty, is passed to the service as advisory; the
// detected language in the result may still diverge.
func (c *Client) Submit(ctx context.Context, image ImagePayload, languageHint string) (*OcrResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	attempts := 0
	op := func() (*OcrResult, error) {
		attempts++
		res, err := c.attempt(ctx, image, languageHint)
		if err != nil {
			var perr *ProtocolError
			if errors.As(err, &perr) && !perr.retryable() {
				return nil, backoff.Permanent(err)
			}
			return nil, err
		}
		return res, nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.policy.InitialInterval
	bo.MaxInterval = c.policy.MaxInterval

	result, err := backoff.RetryWithData(op,
		backoff.WithContext(backoff.WithMaxRetries(bo, c.policy.MaxAttempts-1), ctx))
	if err != nil {
		var perr *ProtocolError
		if errors.As(err, &perr) {
			perr.Attempts = attempts
			return nil, perr
		}
		return nil, &ProtocolError{Kind: FailureTransport, Attempts: attempts, Err: err}
	}
	result.Attempts = attempts
	return result, nil
}

// attempt runs a single encode/transport/decode/normalize cycle. Session
// mutations happen strictly after the transport call returns, so a call
// cancelled mid-transport leaves the session exactly as it was.
func (c *Client) attempt(ctx context.Context, image ImagePayload, languageHint string) (*OcrResult, error) {
	enc, err := EncodeRequest(image, c.session, languageHint)
	if err != nil {
		return nil, &ProtocolError{Kind: FailureEncode, Err: err}
	}

	resp, err := c.transport.RoundTrip(ctx, enc)
	if err != nil {
		return nil, &ProtocolError{Kind: FailureTransport, Err: classifyTransport(err)}
	}

	// A response arrived: the sequence id is consumed and any freshly
	// issued cookie adopted, regardless of status.
	c.session.NextSequence()
	c.session.Refresh(resp.Header)

	switch {
	case resp.Status == http.StatusTooManyRequests || resp.Status == http.StatusForbidden:
		c.session.Reset()
		return nil, &ProtocolError{Kind: FailureRateLimited, Err: &TransportError{Status: resp.Status}}
	case resp.Status == http.StatusUnauthorized:
		c.session.Reset()
		return nil, &ProtocolError{Kind: FailureSessionExpired, Err: &TransportError{Status: resp.Status}}
	case resp.Status < 200 || resp.Status > 299:
		return nil, &ProtocolError{Kind: FailureTransport, Err: &TransportError{Status: resp.Status}}
	}

	if rateLimited(resp.Body) {
		c.session.Reset()
		return nil, &ProtocolError{Kind: FailureRateLimited, Err: fmt.Errorf("anti-automation interstitial served with status %d", resp.Status)}
	}

	tree, err := DecodeResponse(resp.Body)
	if err != nil {
		return nil, &ProtocolError{Kind: FailureDecode, Err: err}
	}
	return Normalize(tree, image.Width, image.Height), nil
}

// classifyTransport sorts transport failures into timeout and network
// classes for the error taxonomy.
func classifyTransport(err error) *TransportError {
	var terr *TransportError
	if errors.As(err, &terr) {
		return terr
	}
	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		return &TransportError{Timeout: true, Err: err}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &TransportError{Timeout: true, Err: err}
	}
	return &TransportError{Err: err}
}
