package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"NiftyImbalance/internal/model"
)

type fakeScanner struct {
	mu         sync.Mutex
	calls      int
	start, end time.Time
	err        error
}

func (f *fakeScanner) Scan(ctx context.Context, start, end time.Time) (*model.PriceSeries, []model.ImbalanceEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.start, f.end = start, end
	if f.err != nil {
		return nil, nil, f.err
	}
	return &model.PriceSeries{Symbol: "NIFTY"}, []model.ImbalanceEvent{}, nil
}

func (f *fakeScanner) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func TestRunWarmNow_Window(t *testing.T) {
	fs := &fakeScanner{}
	s := NewScheduler(context.Background(), fs, 30, zerolog.Nop())
	s.now = func() time.Time { return time.Date(2023, 9, 29, 15, 30, 0, 0, time.UTC) }

	s.RunWarmNow()

	require.Equal(t, 1, fs.Calls())
	assert.Equal(t, time.Date(2023, 9, 30, 0, 0, 0, 0, time.UTC), fs.end)
	assert.Equal(t, time.Date(2023, 8, 31, 0, 0, 0, 0, time.UTC), fs.start)
}

func TestRunWarmNow_ErrorIsLogged(t *testing.T) {
	fs := &fakeScanner{err: errors.New("upstream down")}
	s := NewScheduler(context.Background(), fs, 365, zerolog.Nop())

	assert.NotPanics(t, s.RunWarmNow)
	assert.Equal(t, 1, fs.Calls())
}

func TestRegisterWarm(t *testing.T) {
	s := NewScheduler(context.Background(), &fakeScanner{}, 365, zerolog.Nop())

	assert.Error(t, s.RegisterWarm("not a cron"))
	assert.Error(t, s.RegisterWarm("0 30 18 * *"), "five fields lacks seconds")
	require.NoError(t, s.RegisterWarm("0 30 18 * * 1-5"))
	assert.Len(t, s.Cron.Entries(), 1)
}

func TestStartStop(t *testing.T) {
	fs := &fakeScanner{}
	s := NewScheduler(context.Background(), fs, 365, zerolog.Nop())
	require.NoError(t, s.RegisterWarm("* * * * * *"))

	s.Start()
	assert.Eventually(t, func() bool { return fs.Calls() > 0 }, 3*time.Second, 50*time.Millisecond)
	s.Stop()
}
