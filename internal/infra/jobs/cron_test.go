package jobs

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingJob struct {
	runs int
	err  error
}

func (j *countingJob) Name() string { return "counting" }

func (j *countingJob) Run(ctx context.Context) error {
	j.runs++
	return j.err
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRegisterRejectsBadSpec(t *testing.T) {
	s := NewCronScheduler(time.UTC, quietLogger())
	assert.Error(t, s.Register("every tuesday", &countingJob{}))
	assert.NoError(t, s.Register("@daily", &countingJob{}))
	assert.NoError(t, s.Register("0 3 * * *", &countingJob{}))
}

func TestRunNowReportsFailure(t *testing.T) {
	s := NewCronScheduler(nil, quietLogger())
	job := &countingJob{err: errors.New("boom")}
	assert.EqualError(t, s.RunNow(context.Background(), job), "boom")
	assert.Equal(t, 1, job.runs)
}

func TestStartStop(t *testing.T) {
	s := NewCronScheduler(time.UTC, quietLogger())
	require.NoError(t, s.Register("@every 1h", &countingJob{}))
	s.Start()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, s.Stop(ctx))
}
