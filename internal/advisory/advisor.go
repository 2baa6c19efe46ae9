package advisory

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"strings"

	"meteo/internal/types"
)

// RemoteClient generates advice text from a prompt. Implementations report
// failures as *types.AppError so the Advisor can tell an unreachable service
// from one that answered badly.
type RemoteClient interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Recorder receives one event per produced advice, inline on the advice path.
type Recorder interface {
	RecordAdvice(ctx context.Context, source types.AdviceSource, fallback bool)
}

// FailureKind classifies why the remote advisor could not be used.
type FailureKind string

const (
	FailureNone        FailureKind = ""
	FailureUnreachable FailureKind = "unreachable"
	FailureBadResponse FailureKind = "bad_response"
)

// Advice is the outcome of one Advise call.
type Advice struct {
	Text      string             `json:"text"`
	Source    types.AdviceSource `json:"source"`
	Fallback  bool               `json:"fallback"`
	Failure   FailureKind        `json:"failure,omitempty"`
	Outdoor   bool               `json:"outdoor"`
	WindChill float64            `json:"wind_chill"`
}

// Advisor produces clothing advice, preferring the remote client and falling
// back to the rule engine. It is safe for concurrent use.
type Advisor struct {
	remote   RemoteClient
	recorder Recorder
	logger   *slog.Logger
}

// AdvisorOption configures an Advisor.
type AdvisorOption func(*Advisor)

// WithRecorder attaches a metrics recorder.
func WithRecorder(r Recorder) AdvisorOption {
	return func(a *Advisor) {
		a.recorder = r
	}
}

// NewAdvisor creates an Advisor. A nil remote makes every call local, without
// a fallback notice.
func NewAdvisor(remote RemoteClient, logger *slog.Logger, opts ...AdvisorOption) *Advisor {
	if logger == nil {
		logger = slog.Default()
	}
	a := &Advisor{
		remote: remote,
		logger: logger,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Local returns rule-engine advice for the snapshot with no remote call.
func Local(s types.WeatherSnapshot) Advice {
	return Advice{
		Text:      ClothingAdviceFor(s),
		Source:    types.AdviceSourceLocal,
		Outdoor:   OutdoorSuitable(s),
		WindChill: WindChill(s.TemperatureC, s.WindSpeedMs),
	}
}

// Advise returns advice for city. It never fails: when the remote client
// errors, the rule-engine text is returned behind a notice naming the kind
// of failure. The snapshot's daytime flag is used as given.
func (a *Advisor) Advise(ctx context.Context, city string, s types.WeatherSnapshot) Advice {
	local := Local(s)
	if a.remote == nil {
		a.record(ctx, local)
		return local
	}

	text, err := a.remote.Complete(ctx, BuildPrompt(city, s))
	if err == nil && strings.TrimSpace(text) != "" {
		remote := local
		remote.Text = strings.TrimSpace(text)
		remote.Source = types.AdviceSourceRemote
		a.record(ctx, remote)
		return remote
	}

	kind := FailureBadResponse
	if err != nil {
		kind = ClassifyFailure(err)
	}

	a.logger.WarnContext(ctx, "remote advice unavailable, using local rules",
		"city", city,
		"failure", string(kind),
		"error", err,
	)

	out := local
	out.Fallback = true
	out.Failure = kind
	out.Text = noticeFor(kind) + local.Text
	a.record(ctx, out)
	return out
}

func (a *Advisor) record(ctx context.Context, adv Advice) {
	if a.recorder != nil {
		a.recorder.RecordAdvice(ctx, adv.Source, adv.Fallback)
	}
}

// ClassifyFailure maps a remote-client error to a FailureKind. Transport-level
// failures (no connection, timeout, open circuit) are unreachable; everything
// else, including non-2xx statuses and undecodable bodies, is a bad response.
func ClassifyFailure(err error) FailureKind {
	if err == nil {
		return FailureNone
	}
	if code, ok := types.CodeOf(err); ok {
		if code.IsUnreachable() {
			return FailureUnreachable
		}
		return FailureBadResponse
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return FailureUnreachable
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return FailureUnreachable
	}
	return FailureBadResponse
}

func noticeFor(kind FailureKind) string {
	if kind == FailureUnreachable {
		return NoticeUnreachable
	}
	return NoticeBadResponse
}
