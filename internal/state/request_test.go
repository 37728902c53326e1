package state

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"thronemind/internal/api"
)

func succeed[T any](v T) func(context.Context) (T, error) {
	return func(context.Context) (T, error) { return v, nil }
}

func fail[T any](err error) func(context.Context) (T, error) {
	return func(context.Context) (T, error) {
		var zero T
		return zero, err
	}
}

func assertInvariant[T any](t *testing.T, r *Request[T]) {
	t.Helper()
	if r.Status() == Succeeded {
		assert.Empty(t, r.Err(), "succeeded request must not carry an error")
	}
	if _, ok := r.Data(); ok {
		assert.Equal(t, Succeeded, r.Status())
	}
	if r.Err() != "" {
		assert.Equal(t, Failed, r.Status())
	}
}

func TestRequest_SuccessMerges(t *testing.T) {
	r := New[string]("improve", "fallback")
	var merged []string

	run, err := Start(r, succeed("ok"), func(v string) { merged = append(merged, v) })
	require.NoError(t, err)
	assert.Equal(t, Pending, r.Status())
	assertInvariant(t, r)

	require.NoError(t, Do(context.Background(), run))
	assert.Equal(t, Succeeded, r.Status())
	v, ok := r.Data()
	assert.True(t, ok)
	assert.Equal(t, "ok", v)
	assert.Equal(t, []string{"ok"}, merged)
	assertInvariant(t, r)
}

func TestRequest_SecondStartWhilePendingRefused(t *testing.T) {
	r := New[int]("act", "fallback")
	_, err := Start(r, succeed(1), nil)
	require.NoError(t, err)

	_, err = Start(r, succeed(2), nil)
	assert.ErrorIs(t, err, ErrPending)
}

func TestRequest_FailureKeepsLastGoodAndSkipsMerge(t *testing.T) {
	r := New[string]("summary", "could not load summary")
	run, _ := Start(r, succeed("first"), nil)
	require.NoError(t, Do(context.Background(), run))

	merges := 0
	run, err := Start(r, fail[string](errors.New("boom")), func(string) { merges++ })
	require.NoError(t, err)
	assert.Empty(t, r.Err(), "starting clears the previous error")

	assert.Error(t, Do(context.Background(), run))
	assert.Equal(t, Failed, r.Status())
	assert.Equal(t, "could not load summary", r.Err())
	assert.Equal(t, 0, merges)

	_, ok := r.Data()
	assert.False(t, ok)
	last, ok := r.LastGood()
	assert.True(t, ok)
	assert.Equal(t, "first", last)
	assertInvariant(t, r)
}

func TestRequest_ServerMessageWins(t *testing.T) {
	r := New[string]("login", "login failed")
	run, _ := Start(r, fail[string](&api.Error{Kind: api.KindServer, Status: 400, Message: "bad credentials"}), nil)
	_ = Do(context.Background(), run)
	assert.Equal(t, "bad credentials", r.Err())
}

func TestRequest_UnauthorizedIsPreempted(t *testing.T) {
	r := New[string]("act", "act failed")
	run, _ := Start(r, fail[string](&api.Error{Kind: api.KindAuth, Status: 401, Message: "expired"}), nil)
	err := Do(context.Background(), run)
	assert.True(t, api.IsUnauthorized(err))
	assert.Equal(t, Idle, r.Status())
	assert.Empty(t, r.Err())
}

func TestRequest_ResetDiscardsStaleResponse(t *testing.T) {
	r := New[string]("improve", "fallback")
	merged := 0
	run, _ := Start(r, succeed("slow"), func(string) { merged++ })
	settled := run.Run(context.Background())

	r.Reset()
	fresh, err := Start(r, succeed("fast"), func(string) { merged++ })
	require.NoError(t, err)
	require.NoError(t, Do(context.Background(), fresh))

	assert.False(t, settled.Apply(), "stale settlement must be discarded")
	v, _ := r.Data()
	assert.Equal(t, "fast", v)
	assert.Equal(t, 1, merged)
}

func TestRequest_ApplyTwiceIsNoop(t *testing.T) {
	r := New[int]("x", "fallback")
	merged := 0
	run, _ := Start(r, succeed(1), func(int) { merged++ })
	s := run.Run(context.Background())
	assert.True(t, s.Apply())
	assert.False(t, s.Apply())
	assert.Equal(t, 1, merged)
}

func TestRequest_ObserverSeesTransitions(t *testing.T) {
	r := New[int]("x", "fallback")
	var seen []Status
	r.Observe(func(e Event) {
		assert.Equal(t, "x", e.Name)
		seen = append(seen, e.Status)
	})

	run, _ := Start(r, fail[int](errors.New("boom")), nil)
	_ = Do(context.Background(), run)
	r.ClearError()

	assert.Equal(t, []Status{Pending, Failed, Idle}, seen)
}
