package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trivia-quiz-service/internal/app"
	"trivia-quiz-service/internal/logging"
)

func TestSupervisorSwallowsFailuresAndPanics(t *testing.T) {
	sup := app.NewSupervisor(0, logging.Discard())

	require.True(t, sup.Go("fails", func(context.Context) error { return errors.New("boom") }))
	require.True(t, sup.Go("panics", func(context.Context) error { panic("kaboom") }))
	sup.Wait()
}

func TestSupervisorEnforcesLimit(t *testing.T) {
	sup := app.NewSupervisor(1, logging.Discard())
	release := make(chan struct{})

	require.True(t, sup.Go("blocking", func(context.Context) error {
		<-release
		return nil
	}))
	assert.False(t, sup.Go("second", func(context.Context) error { return nil }))

	close(release)
	sup.Wait()
}

func TestSupervisorShutdownCancelsTasks(t *testing.T) {
	sup := app.NewSupervisor(2, logging.Discard())
	stopped := make(chan struct{})

	require.True(t, sup.Go("waits", func(ctx context.Context) error {
		<-ctx.Done()
		close(stopped)
		return ctx.Err()
	}))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, sup.Shutdown(ctx))

	select {
	case <-stopped:
	default:
		t.Fatalf("expected task to observe cancellation")
	}
	assert.False(t, sup.Go("late", func(context.Context) error { return nil }))
}
