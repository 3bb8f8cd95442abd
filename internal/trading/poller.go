package trading

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"etr/internal/api"
)

// DefaultPollInterval is the balance refresh interval when none is set.
const DefaultPollInterval = 30 * time.Second

// BalanceFetcher is the slice of the API client the poller needs.
type BalanceFetcher interface {
	GetBalance(ctx context.Context, accountIDKey string) (*api.Balance, error)
}

// BalancePoller periodically refreshes one account's balance. At most one
// poll schedule is live per poller; starting it for another account
// replaces the schedule. Fetch errors are reported per tick and never stop
// the schedule; the poller runs until Stop.
type BalancePoller struct {
	mu        sync.Mutex
	fetch     BalanceFetcher
	interval  time.Duration
	onBalance func(accountIDKey string, b *api.Balance)
	onError   func(accountIDKey string, err error)

	cancel    context.CancelFunc
	accountID string
	wg        sync.WaitGroup
}

// NewBalancePoller creates a poller with the given fetch source and
// callbacks. A zero interval means DefaultPollInterval. Either callback
// may be nil.
func NewBalancePoller(fetch BalanceFetcher, interval time.Duration, onBalance func(string, *api.Balance), onError func(string, error)) *BalancePoller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &BalancePoller{
		fetch:     fetch,
		interval:  interval,
		onBalance: onBalance,
		onError:   onError,
	}
}

// Start cancels any existing schedule, performs one immediate fetch, then
// fetches every interval until Stop. The immediate fetch completes before
// Start returns, so a Start immediately followed by Stop performs exactly
// one fetch.
func (p *BalancePoller) Start(accountIDKey string) {
	p.Stop()

	ctx, cancel := context.WithCancel(context.Background())

	p.mu.Lock()
	p.cancel = cancel
	p.accountID = accountIDKey
	p.mu.Unlock()

	p.poll(ctx, accountIDKey)

	p.wg.Add(1)
	go p.loop(ctx, accountIDKey)
}

// Stop cancels the schedule. Idempotent; a no-op when nothing is running.
// An in-flight fetch is not aborted, only future ticks.
func (p *BalancePoller) Stop() {
	p.mu.Lock()
	cancel := p.cancel
	p.cancel = nil
	p.accountID = ""
	p.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	p.wg.Wait()
}

// Account returns the account id currently being polled, or "".
func (p *BalancePoller) Account() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.accountID
}

func (p *BalancePoller) loop(ctx context.Context, accountIDKey string) {
	defer p.wg.Done()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	log.WithField("account", accountIDKey).Debug("balance poll started")

	for {
		select {
		case <-ctx.Done():
			log.WithField("account", accountIDKey).Debug("balance poll stopped")
			return
		case <-ticker.C:
			p.poll(ctx, accountIDKey)
		}
	}
}

// poll performs one fetch and dispatches the result. Errors are surfaced
// and the schedule continues; even a fetch that looks fatal (such as a
// deauthenticated session) leaves stopping to the caller.
func (p *BalancePoller) poll(ctx context.Context, accountIDKey string) {
	balance, err := p.fetch.GetBalance(ctx, accountIDKey)
	if err != nil {
		log.WithField("account", accountIDKey).WithError(err).Error("balance fetch failed")
		if p.onError != nil {
			p.onError(accountIDKey, err)
		}
		return
	}
	if p.onBalance != nil {
		p.onBalance(accountIDKey, balance)
	}
}
