// Package push sends out-of-app notifications for published alerts. It is
// strictly best-effort: the live websocket channel is the primary delivery
// path, and nothing here may fail a publish.
package push

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/vigilhq/vigil/internal/domain/alert"
	"github.com/vigilhq/vigil/internal/domain/pushtoken"
)

// Gateway is the external push service. Implementations send one multicast
// request and report per-token outcomes.
type Gateway interface {
	SendMulticast(ctx context.Context, tokens []string, title, body string, data map[string]string) (*GatewayResult, error)
}

type GatewayResult struct {
	Succeeded int
	// FailedTokens had transient failures; they stay registered and get
	// another attempt on the next publish.
	FailedTokens []string
	// InvalidTokens were rejected as permanently dead and should be
	// unregistered.
	InvalidTokens []string
}

type Report struct {
	Attempted     int
	Succeeded     int
	FailedTokens  []string
	InvalidTokens []string
}

type Dispatcher struct {
	registry pushtoken.Registry
	gateway  Gateway
	timeout  time.Duration
	log      *zap.Logger

	noGatewayOnce sync.Once
}

func NewDispatcher(registry pushtoken.Registry, gateway Gateway, timeout time.Duration, log *zap.Logger) *Dispatcher {
	if log == nil {
		log = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Dispatcher{
		registry: registry,
		gateway:  gateway,
		timeout:  timeout,
		log:      log.With(zap.String("component", "push")),
	}
}

// Dispatch makes exactly one delivery attempt per distinct registered token.
// Transient failures are retried only by the next publish; permanently
// invalid tokens are removed from the registry so the dead set cannot grow
// without bound.
func (d *Dispatcher) Dispatch(ctx context.Context, a *alert.Alert) (*Report, error) {
	if d.gateway == nil {
		d.noGatewayOnce.Do(func() {
			d.log.Warn("push gateway not configured; notifications disabled")
		})
		return &Report{}, nil
	}

	tokens, err := d.registry.AllTokens(ctx)
	if err != nil {
		return nil, fmt.Errorf("load push tokens: %w", err)
	}
	tokens = dedupe(tokens)
	if len(tokens) == 0 {
		d.log.Debug("no push tokens registered")
		return &Report{}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	res, err := d.gateway.SendMulticast(ctx, tokens, a.Title, a.Message, map[string]string{
		"priority": string(a.Priority),
	})
	if err != nil {
		return nil, fmt.Errorf("push gateway: %w", err)
	}

	if len(res.InvalidTokens) > 0 {
		if rmErr := d.registry.Remove(ctx, res.InvalidTokens); rmErr != nil {
			d.log.Warn("remove invalid push tokens", zap.Error(rmErr))
		} else {
			d.log.Info("removed invalid push tokens", zap.Int("count", len(res.InvalidTokens)))
		}
	}

	report := &Report{
		Attempted:     len(tokens),
		Succeeded:     res.Succeeded,
		FailedTokens:  res.FailedTokens,
		InvalidTokens: res.InvalidTokens,
	}
	d.log.Info("push dispatched",
		zap.Int("attempted", report.Attempted),
		zap.Int("succeeded", report.Succeeded),
		zap.Int("failed", len(report.FailedTokens)),
		zap.Int("invalid", len(report.InvalidTokens)),
	)
	return report, nil
}

// The registry already returns a distinct set; this guards against a future
// registry implementation that does not.
func dedupe(tokens []string) []string {
	seen := make(map[string]struct{}, len(tokens))
	out := tokens[:0]
	for _, t := range tokens {
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
