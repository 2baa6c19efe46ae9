// Package external holds the clients for third-party HTTP APIs: the weather
// provider, the remote advice generator and outbound webhooks. Every request
// goes through BaseClient, which adds circuit breaking, retries with backoff,
// request-id propagation and mapping of failures to types.AppError.
package external

import (
	"bytes"
	"context"
	"errors"
	"io"
	"math"
	"math/rand/v2"
	"net/http"
	"strconv"
	"time"

	"github.com/sony/gobreaker/v2"

	"meteo/internal/types"
)

// RetryPolicy bounds the attempts made for one request. MaxRetries counts
// attempts after the first.
type RetryPolicy struct {
	MaxRetries int
	MinWait    time.Duration
	MaxWait    time.Duration
}

// DefaultRetryPolicy is two retries waiting between 0.5s and 5s.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries: 2,
		MinWait:    500 * time.Millisecond,
		MaxWait:    5 * time.Second,
	}
}

// NewHTTPClient returns an *http.Client with the given overall timeout.
func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}

// BaseClient sends requests for one upstream. Weather, advisor and webhook
// each get their own, so one failing upstream trips only its own breaker.
// It satisfies the Do(*http.Request) contract of go-openai and the webhook
// presenter.
type BaseClient struct {
	client      *http.Client
	breaker     *gobreaker.CircuitBreaker[*http.Response]
	retryPolicy RetryPolicy
	userAgent   string
	sleepFn     func(time.Duration)
}

type BaseClientOption func(*BaseClient)

// WithSleepFunc replaces time.Sleep between attempts.
func WithSleepFunc(fn func(time.Duration)) BaseClientOption {
	return func(c *BaseClient) { c.sleepFn = fn }
}

// WithBreaker replaces the breaker built by NewBreaker.
func WithBreaker(cb *gobreaker.CircuitBreaker[*http.Response]) BaseClientOption {
	return func(c *BaseClient) { c.breaker = cb }
}

// NewBreaker opens after more than five consecutive failed attempts and lets
// one probe through after 30 seconds.
func NewBreaker(name string) *gobreaker.CircuitBreaker[*http.Response] {
	return gobreaker.NewCircuitBreaker[*http.Response](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
	})
}

// NewBaseClient creates a BaseClient whose breaker is named upstream. A nil
// httpClient gets a 30s timeout.
func NewBaseClient(
	httpClient *http.Client,
	upstream string,
	retryPolicy RetryPolicy,
	userAgent string,
	opts ...BaseClientOption,
) *BaseClient {
	if httpClient == nil {
		httpClient = NewHTTPClient(30 * time.Second)
	}
	c := &BaseClient{
		client:      httpClient,
		breaker:     NewBreaker(upstream),
		retryPolicy: retryPolicy,
		userAgent:   userAgent,
		sleepFn:     time.Sleep,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// statusFailure is what the breaker sees when the upstream answers 429 or 5xx.
type statusFailure int

func (s statusFailure) Error() string {
	return "upstream answered " + strconv.Itoa(int(s))
}

func retryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

func breakerRejected(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}

// Do sends req, retrying transport errors, 429 and 5xx until the policy is
// exhausted, the breaker rejects the call or the request context ends.
//
// Any other status is returned to the caller, who closes the body. Every
// failure is a *types.AppError with an upstream_* code.
func (c *BaseClient) Do(req *http.Request) (*http.Response, error) {
	if id := types.GetRequestID(req.Context()); id != "" {
		req.Header.Set("X-Request-Id", id)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	body, err := drainBody(req)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalUnexpected, "failed to buffer request body", err)
	}

	var resp *http.Response
	for attempt := 0; ; attempt++ {
		resp, err = c.attempt(req, body)
		if err == nil {
			return resp, nil
		}
		if attempt >= c.retryPolicy.MaxRetries || breakerRejected(err) || req.Context().Err() != nil {
			break
		}
		wait := c.computeBackoff(attempt, resp)
		closeBody(resp)
		c.sleepFn(wait)
	}

	appErr := c.mapError(req.Context(), resp, err)
	closeBody(resp)
	return nil, appErr
}

func (c *BaseClient) attempt(req *http.Request, body []byte) (*http.Response, error) {
	if body != nil {
		req.Body = io.NopCloser(bytes.NewReader(body))
		req.ContentLength = int64(len(body))
	}
	return c.breaker.Execute(func() (*http.Response, error) {
		resp, err := c.client.Do(req)
		if err != nil {
			return nil, err
		}
		if retryableStatus(resp.StatusCode) {
			return resp, statusFailure(resp.StatusCode)
		}
		return resp, nil
	})
}

// drainBody reads the request body so every attempt can replay it.
func drainBody(req *http.Request) ([]byte, error) {
	if req.Body == nil || req.Body == http.NoBody {
		return nil, nil
	}
	defer req.Body.Close()
	return io.ReadAll(req.Body)
}

func closeBody(resp *http.Response) {
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
}

// computeBackoff follows Retry-After when the upstream sent one, otherwise
// waits a jittered exponential delay. Both are clamped to the policy.
func (c *BaseClient) computeBackoff(attempt int, resp *http.Response) time.Duration {
	p := c.retryPolicy
	if wait, ok := retryAfter(resp); ok {
		return min(max(wait, p.MinWait), p.MaxWait)
	}

	ceiling := math.Min(float64(p.MinWait)*math.Pow(2, float64(attempt)), float64(p.MaxWait))
	floor := float64(p.MinWait)
	if ceiling <= floor {
		return p.MinWait
	}
	return time.Duration(floor + rand.Float64()*(ceiling-floor))
}

// retryAfter parses the header as seconds or as an HTTP date.
func retryAfter(resp *http.Response) (time.Duration, bool) {
	if resp == nil {
		return 0, false
	}
	v := resp.Header.Get("Retry-After")
	if v == "" {
		return 0, false
	}
	if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second, true
	}
	if at, err := http.ParseTime(v); err == nil {
		return time.Until(at), true
	}
	return 0, false
}

// mapError classifies the last failure. A rejected breaker, a transport
// error or an abandoned request means the upstream was not reached; 429 and
// 5xx mean it answered with an error.
func (c *BaseClient) mapError(ctx context.Context, resp *http.Response, err error) *types.AppError {
	if breakerRejected(err) {
		return types.NewAppError(types.ErrCodeUpstreamCircuitOpen, "upstream circuit is open", err)
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return types.NewAppError(types.ErrCodeUpstreamUnreachable, "upstream request abandoned", errors.Join(err, ctxErr))
	}

	var status statusFailure
	if resp != nil && errors.As(err, &status) {
		details := map[string]any{"status": int(status)}
		if int(status) == http.StatusTooManyRequests {
			return types.NewAppErrorWithDetails(types.ErrCodeUpstreamRateLimited, "upstream rate limit exceeded", err, details)
		}
		return types.NewAppErrorWithDetails(types.ErrCodeUpstreamBadStatus, "upstream kept failing: "+status.Error(), err, details)
	}

	return types.NewAppError(types.ErrCodeUpstreamUnreachable, "upstream request failed", err)
}

// asAppError returns the AppError in err's chain, if any.
func asAppError(err error) (*types.AppError, bool) {
	var ae *types.AppError
	ok := errors.As(err, &ae)
	return ae, ok
}
