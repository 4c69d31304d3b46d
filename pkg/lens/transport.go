package lens

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
)

// Response is what a Transport hands back from one exchange: the HTTP
// status, the raw body bytes, and the response headers the session reads
// its cookie from. The body is transient and owned by the decode step.
type Response struct {
	Status int
	Body   []byte
	Header http.Header
}

// Transport performs one request/response exchange with the service.
// Implementations must honor context cancellation; the client mutates no
// session state until RoundTrip has returned.
type Transport interface {
	RoundTrip(ctx context.Context, req *EncodedRequest) (*Response, error)
}

// maxResponseBody caps how much of a response is read; real results are a
// few hundred KB at most.
const maxResponseBody = 8 << 20

// HTTPTransport is the default Transport, POSTing to the upload endpoint
// over net/http.
type HTTPTransport struct {
	// Endpoint is the full upload URL. Empty means DefaultEndpoint.
	Endpoint string
	// Client is the underlying HTTP client. Nil means a client with
	// DefaultTimeout.
	Client *http.Client
	// UserAgent, when non-empty, replaces the encoder's default client
	// string on outgoing requests.
	UserAgent string
}

func (t *HTTPTransport) RoundTrip(ctx context.Context, req *EncodedRequest) (*Response, error) {
	endpoint := t.Endpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	client := t.Client
	if client == nil {
		client = &http.Client{Timeout: DefaultTimeout}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(req.Body))
	if err != nil {
		return nil, fmt.Errorf("building upload request: %w", err)
	}
	httpReq.Header.Set("Content-Type", req.ContentType)
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}
	if t.UserAgent != "" {
		httpReq.Header.Set("User-Agent", t.UserAgent)
	}

	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}
	return &Response{
		Status: resp.StatusCode,
		Body:   body,
		Header: resp.Header,
	}, nil
}
