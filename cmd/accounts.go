package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"etr/internal/config"
	"etr/internal/output"
)

// newAccountsCmd creates the accounts command group: list the reachable
// accounts and pick which one subsequent commands target.
func newAccountsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "accounts",
		Short: "List and select brokerage accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAccountsList(cmd)
		},
	}

	selectCmd := &cobra.Command{
		Use:   "select <account-id-key>",
		Short: "Make an account the target of subsequent commands",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAccountsSelect(cmd, args[0])
		},
	}

	cmd.AddCommand(selectCmd)
	return cmd
}

func runAccountsList(cmd *cobra.Command) error {
	a, err := loadApp()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	client, err := a.apiClient(ctx)
	if err != nil {
		return err
	}

	dir := a.directory(client)
	accounts, err := dir.Reload(ctx)
	if err != nil {
		return err
	}
	if a.cfg.AccountIDKey != "" {
		dir.SelectActive(a.cfg.AccountIDKey)
	}
	active := dir.Active()

	rows := make([][]string, 0, len(accounts))
	for _, acct := range accounts {
		marker := ""
		if acct.AccountIDKey == active {
			marker = "*"
		}
		rows = append(rows, []string{
			marker,
			acct.AccountIDKey,
			acct.AccountID,
			acct.AccountDesc,
			acct.AccountType,
			acct.AccountStatus,
		})
	}

	f := output.New(cmd.OutOrStdout(), jsonOutput)
	return f.Table([]string{"Active", "Key", "Account", "Description", "Type", "Status"}, rows)
}

func runAccountsSelect(cmd *cobra.Command, accountIDKey string) error {
	a, err := loadApp()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	client, err := a.apiClient(ctx)
	if err != nil {
		return err
	}

	// Selecting an account the broker does not list would make every
	// later call fail with a confusing upstream error, so check here.
	dir := a.directory(client)
	accounts, err := dir.Reload(ctx)
	if err != nil {
		return err
	}
	found := false
	for _, acct := range accounts {
		if acct.AccountIDKey == accountIDKey {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("account %q is not available under this login", accountIDKey)
	}

	a.cfg.AccountIDKey = accountIDKey
	if err := config.Save(a.cfgPath, a.cfg); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Active account set to %s\n", accountIDKey)
	return nil
}
