// Package trading holds the stateful core of the client: the account
// directory, the order preview/place workflow, the balance poller, and the
// order query service. Each type guards its own state and depends on the
// broker only through small interfaces, so tests inject fakes.
package trading

import (
	"context"
	"fmt"
	"sync"

	"etr/internal/api"
)

// AccountLister is the slice of the API client the directory needs.
type AccountLister interface {
	ListAccounts(ctx context.Context) ([]api.Account, error)
}

// Directory tracks the accounts reachable under the current session and
// which one is active for subsequent calls. Account snapshots are replaced
// wholesale on reload.
type Directory struct {
	mu            sync.Mutex
	client        AccountLister
	authenticated func() bool

	accounts []api.Account
	activeID string
}

// NewDirectory creates a directory over the given account source. The
// authenticated predicate gates Reload; typically it is the session's
// IsAuthenticated method.
func NewDirectory(client AccountLister, authenticated func() bool) *Directory {
	return &Directory{client: client, authenticated: authenticated}
}

// Reload fetches the account list, replaces the held snapshot, and resets
// the active account: the broker-designated default if one is flagged,
// else the first account, else unset when the list is empty.
func (d *Directory) Reload(ctx context.Context) ([]api.Account, error) {
	if d.authenticated != nil && !d.authenticated() {
		return nil, &api.PreconditionError{Msg: "not authenticated"}
	}

	accounts, err := d.client.ListAccounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to reload accounts: %w", err)
	}

	activeID := ""
	for _, a := range accounts {
		if a.Default {
			activeID = a.AccountIDKey
			break
		}
	}
	if activeID == "" && len(accounts) > 0 {
		activeID = accounts[0].AccountIDKey
	}

	d.mu.Lock()
	d.accounts = accounts
	d.activeID = activeID
	d.mu.Unlock()

	return accounts, nil
}

// SelectActive sets the active account id. Membership in the last-loaded
// list is not validated; the caller owns that choice.
func (d *Directory) SelectActive(accountIDKey string) {
	d.mu.Lock()
	d.activeID = accountIDKey
	d.mu.Unlock()
}

// Active returns the active account id, or "" when none is set.
func (d *Directory) Active() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.activeID
}

// Accounts returns the last-loaded account snapshot.
func (d *Directory) Accounts() []api.Account {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]api.Account, len(d.accounts))
	copy(out, d.accounts)
	return out
}
