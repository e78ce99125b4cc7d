package supervisor

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuemby/hoyamaster/pkg/events"
)

func TestSpawnPublishesStartedThenExited(t *testing.T) {
	sink := events.NewSink()
	s := New(sink, 64, time.Second)

	err := s.Spawn([]string{"sh", "-c", "echo hello; echo world; exit 0"}, nil)
	require.NoError(t, err)

	ev := <-sink
	assert.Equal(t, events.KindApplicationStarted, ev.Kind)

	ev = <-sink
	assert.Equal(t, events.KindApplicationExited, ev.Kind)
	assert.Equal(t, 0, ev.ExitCode)

	code, ok := s.ExitCode()
	assert.True(t, ok)
	assert.Equal(t, 0, code)

	assert.Equal(t, []string{"hello", "world"}, s.RecentOutput())
}

func TestSpawnTwiceFailsWithAlreadyRunning(t *testing.T) {
	sink := events.NewSink()
	s := New(sink, 64, time.Second)

	require.NoError(t, s.Spawn([]string{"sleep", "1"}, nil))
	<-sink // started

	err := s.Spawn([]string{"sleep", "1"}, nil)
	assert.ErrorIs(t, err, ErrAlreadyRunning)

	require.NoError(t, s.Stop(context.Background()))
}

func TestStopSendsSigtermAndIsIdempotent(t *testing.T) {
	sink := events.NewSink()
	s := New(sink, 64, 200*time.Millisecond)

	require.NoError(t, s.Spawn([]string{"sh", "-c", "trap 'exit 0' TERM; sleep 5"}, nil))
	<-sink // started

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	require.NoError(t, s.Stop(ctx))
	require.NoError(t, s.Stop(ctx)) // idempotent, no panic/second signal

	ev := <-sink
	assert.Equal(t, events.KindApplicationExited, ev.Kind)
}

func TestRecentOutputCapsAtRingLines(t *testing.T) {
	sink := events.NewSink()
	s := New(sink, 3, time.Second)

	require.NoError(t, s.Spawn([]string{"sh", "-c", "echo a; echo b; echo c; echo d; exit 0"}, nil))
	<-sink
	<-sink

	assert.Equal(t, []string{"b", "c", "d"}, s.RecentOutput())
}
