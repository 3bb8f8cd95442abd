package trading

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"etr/internal/api"
)

// scriptedBalances is a BalanceFetcher that counts calls and can be told
// to fail on selected calls.
type scriptedBalances struct {
	mu     sync.Mutex
	calls  int
	failOn map[int]error
}

func (s *scriptedBalances) GetBalance(ctx context.Context, accountIDKey string) (*api.Balance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if err, ok := s.failOn[s.calls]; ok {
		return nil, err
	}
	return &api.Balance{AccountID: accountIDKey, TotalAccountValue: float64(s.calls)}, nil
}

func (s *scriptedBalances) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func TestBalancePoller_StartFetchesImmediately(t *testing.T) {
	fetch := &scriptedBalances{}
	var got []*api.Balance
	var mu sync.Mutex

	poller := NewBalancePoller(fetch, time.Hour, func(_ string, b *api.Balance) {
		mu.Lock()
		got = append(got, b)
		mu.Unlock()
	}, nil)

	poller.Start("abc123")
	poller.Stop()

	assert.Equal(t, 1, fetch.callCount())
	mu.Lock()
	defer mu.Unlock()
	require.Len(t, got, 1)
	assert.Equal(t, "abc123", got[0].AccountID)
}

func TestBalancePoller_TicksUntilStopped(t *testing.T) {
	fetch := &scriptedBalances{}
	done := make(chan struct{})
	var once sync.Once

	poller := NewBalancePoller(fetch, 5*time.Millisecond, func(string, *api.Balance) {
		if fetch.callCount() >= 3 {
			once.Do(func() { close(done) })
		}
	}, nil)

	poller.Start("abc123")
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("poller never reached three fetches")
	}
	poller.Stop()

	assert.GreaterOrEqual(t, fetch.callCount(), 3)
	assert.Equal(t, "", poller.Account())
}

func TestBalancePoller_ErrorsDoNotStopSchedule(t *testing.T) {
	fetch := &scriptedBalances{failOn: map[int]error{1: fmt.Errorf("boom"), 2: fmt.Errorf("boom")}}
	var errCount int
	var mu sync.Mutex
	done := make(chan struct{})
	var once sync.Once

	poller := NewBalancePoller(fetch, 5*time.Millisecond,
		func(string, *api.Balance) {
			once.Do(func() { close(done) })
		},
		func(_ string, err error) {
			mu.Lock()
			errCount++
			mu.Unlock()
		})

	poller.Start("abc123")
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("poller never recovered from fetch errors")
	}
	poller.Stop()

	mu.Lock()
	defer mu.Unlock()
	assert.GreaterOrEqual(t, errCount, 2)
}

func TestBalancePoller_RestartSwitchesAccount(t *testing.T) {
	fetch := &scriptedBalances{}
	poller := NewBalancePoller(fetch, time.Hour, nil, nil)

	poller.Start("first")
	assert.Equal(t, "first", poller.Account())

	poller.Start("second")
	assert.Equal(t, "second", poller.Account())

	poller.Stop()
	assert.Equal(t, 2, fetch.callCount())
}

func TestBalancePoller_StopIsIdempotent(t *testing.T) {
	poller := NewBalancePoller(&scriptedBalances{}, time.Hour, nil, nil)

	poller.Stop()
	poller.Start("abc123")
	poller.Stop()
	poller.Stop()
}

func TestNewBalancePoller_DefaultInterval(t *testing.T) {
	poller := NewBalancePoller(&scriptedBalances{}, 0, nil, nil)
	assert.Equal(t, DefaultPollInterval, poller.interval)
}
