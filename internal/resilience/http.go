package resilience

import (
	"context"
	"io"
	"net/http"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

// Fetch sends the request built by newReq with Call's retry semantics. A new
// request is built per attempt so bodies are never reused. When limiter is
// non-nil every attempt waits for a token first. The response body is read
// fully and closed.
func Fetch(ctx context.Context, hc *http.Client, policy RetryPolicy, limiter *rate.Limiter,
	newReq func(ctx context.Context) (*http.Request, error)) (*Response, error) {
	return Call(ctx, policy, func(ctx context.Context) (*Response, error) {
		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				return nil, eris.Wrap(err, "rate limiter wait")
			}
		}
		req, err := newReq(ctx)
		if err != nil {
			return nil, eris.Wrap(err, "create request")
		}
		resp, err := hc.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close() //nolint:errcheck

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, eris.Wrap(err, "read response body")
		}
		return &Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: body}, nil
	})
}
