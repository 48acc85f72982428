package push

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vigilhq/vigil/internal/domain/alert"
)

type fakeRegistry struct {
	tokens    []string
	tokensErr error
	removed   [][]string
	removeErr error
}

func (f *fakeRegistry) Register(context.Context, int64, string) error { return nil }

func (f *fakeRegistry) AllTokens(context.Context) ([]string, error) {
	return f.tokens, f.tokensErr
}

func (f *fakeRegistry) Remove(_ context.Context, tokens []string) error {
	f.removed = append(f.removed, tokens)
	return f.removeErr
}

type fakeGateway struct {
	calls  int
	tokens []string
	result *GatewayResult
	err    error
}

func (f *fakeGateway) SendMulticast(_ context.Context, tokens []string, _, _ string, _ map[string]string) (*GatewayResult, error) {
	f.calls++
	f.tokens = tokens
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func testAlert() *alert.Alert {
	return &alert.Alert{ID: 7, Title: "Alert", Message: "motion detected", Priority: alert.PriorityHigh, CreatedAt: time.Now()}
}

func TestDispatchNoGatewayIsNoop(t *testing.T) {
	reg := &fakeRegistry{tokens: []string{"t1"}}
	d := NewDispatcher(reg, nil, time.Second, nil)

	report, err := d.Dispatch(context.Background(), testAlert())
	require.NoError(t, err)
	assert.Equal(t, 0, report.Attempted)
}

func TestDispatchNoTokens(t *testing.T) {
	gw := &fakeGateway{result: &GatewayResult{}}
	d := NewDispatcher(&fakeRegistry{}, gw, time.Second, nil)

	report, err := d.Dispatch(context.Background(), testAlert())
	require.NoError(t, err)
	assert.Equal(t, 0, report.Attempted)
	assert.Equal(t, 0, gw.calls, "gateway must not be called with an empty token set")
}

func TestDispatchDeduplicatesTokens(t *testing.T) {
	reg := &fakeRegistry{tokens: []string{"a", "b", "a", "", "b"}}
	gw := &fakeGateway{result: &GatewayResult{Succeeded: 2}}
	d := NewDispatcher(reg, gw, time.Second, nil)

	report, err := d.Dispatch(context.Background(), testAlert())
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, gw.tokens)
	assert.Equal(t, 2, report.Attempted)
	assert.Equal(t, 2, report.Succeeded)
}

func TestDispatchRemovesInvalidTokens(t *testing.T) {
	reg := &fakeRegistry{tokens: []string{"live", "dead"}}
	gw := &fakeGateway{result: &GatewayResult{
		Succeeded:     1,
		InvalidTokens: []string{"dead"},
	}}
	d := NewDispatcher(reg, gw, time.Second, nil)

	report, err := d.Dispatch(context.Background(), testAlert())
	require.NoError(t, err)
	require.Len(t, reg.removed, 1)
	assert.Equal(t, []string{"dead"}, reg.removed[0])
	assert.Equal(t, []string{"dead"}, report.InvalidTokens)
}

func TestDispatchKeepsTransientFailures(t *testing.T) {
	reg := &fakeRegistry{tokens: []string{"flaky"}}
	gw := &fakeGateway{result: &GatewayResult{FailedTokens: []string{"flaky"}}}
	d := NewDispatcher(reg, gw, time.Second, nil)

	report, err := d.Dispatch(context.Background(), testAlert())
	require.NoError(t, err)
	assert.Empty(t, reg.removed, "transient failures stay registered")
	assert.Equal(t, []string{"flaky"}, report.FailedTokens)
}

func TestDispatchGatewayError(t *testing.T) {
	reg := &fakeRegistry{tokens: []string{"t1"}}
	gw := &fakeGateway{err: errors.New("fcm unavailable")}
	d := NewDispatcher(reg, gw, time.Second, nil)

	_, err := d.Dispatch(context.Background(), testAlert())
	assert.Error(t, err)
}

func TestDispatchRegistryError(t *testing.T) {
	reg := &fakeRegistry{tokensErr: errors.New("db down")}
	d := NewDispatcher(reg, &fakeGateway{}, time.Second, nil)

	_, err := d.Dispatch(context.Background(), testAlert())
	assert.Error(t, err)
}
