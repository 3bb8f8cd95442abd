// Package cmd wires the CLI commands. Commands are presentation glue:
// they read snapshots and invoke operations on the core packages, render
// the structured results, and never hold trading state of their own.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"etr/internal/api"
	"etr/internal/auth"
	"etr/internal/config"
	"etr/internal/keyring"
	"etr/internal/trading"
)

// Version is stamped at build time.
var Version = "dev"

// jsonOutput controls whether output is formatted as JSON.
var jsonOutput bool

// verbose raises the log level to debug.
var verbose bool

var rootCmd = &cobra.Command{
	Use:     "etr",
	Short:   "E*TRADE trading CLI",
	Long:    `A CLI for trading equities and options via the E*TRADE API.`,
	Version: Version,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// A .env in the working directory may carry ETR_CONSUMER_KEY /
		// ETR_CONSUMER_SECRET; missing files are fine.
		_ = godotenv.Load()

		log.SetOutput(cmd.ErrOrStderr())
		if verbose {
			log.SetLevel(log.DebugLevel)
		} else {
			log.SetLevel(log.WarnLevel)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&jsonOutput, "json", "j", false, "Output in JSON format")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.SilenceUsage = true

	rootCmd.AddCommand(
		newConfigureCmd(configureOptions{}),
		newLoginCmd(),
		newStatusCmd(),
		newLogoutCmd(),
		newAccountsCmd(),
		newBalanceCmd(),
		newPortfolioCmd(),
		newQuoteCmd(),
		newOptionsCmd(),
		newOrderCmd(),
	)
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// app bundles the dependencies most commands share: config, keyring, and
// a session restored from the credential cache.
type app struct {
	cfgPath string
	cfg     *config.Config
	store   keyring.Store
	session *auth.Session
}

// loadApp builds the shared dependencies. It fails with a hint towards
// `etr configure` when no consumer key pair is stored.
func loadApp() (*app, error) {
	cfgPath := config.Path()
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	store := keyring.NewEnvStore(keyring.NewSystemStore())
	key, secret, err := keyring.ConsumerPair(store)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil, fmt.Errorf("CLI not configured. Run: etr configure\nOr set %s and %s", keyring.EnvConsumerKey, keyring.EnvConsumerSecret)
		}
		return nil, fmt.Errorf("failed to retrieve credentials: %w", err)
	}

	session := auth.NewSession(key, secret, cfg.Sandbox)
	session.Restore()

	return &app{
		cfgPath: cfgPath,
		cfg:     cfg,
		store:   store,
		session: session,
	}, nil
}

// apiClient returns a signing API client, or an error pointing at
// `etr login` when the session holds no credential.
func (a *app) apiClient(ctx context.Context) (*api.Client, error) {
	httpClient, err := a.session.HTTPClient(ctx)
	if err != nil {
		var precondition *api.PreconditionError
		if errors.As(err, &precondition) {
			return nil, fmt.Errorf("not logged in. Run: etr login")
		}
		return nil, err
	}
	return api.NewClient(a.cfg.BaseURL(), httpClient), nil
}

// directory builds an account directory over the client, pre-seeded with
// the configured preferred account when one is set.
func (a *app) directory(client trading.AccountLister) *trading.Directory {
	dir := trading.NewDirectory(client, a.session.IsAuthenticated)
	if a.cfg.AccountIDKey != "" {
		dir.SelectActive(a.cfg.AccountIDKey)
	}
	return dir
}

// activeAccount resolves the account subsequent calls should target: the
// configured preference, else the directory default after a reload.
func (a *app) activeAccount(ctx context.Context, client trading.AccountLister) (string, error) {
	dir := a.directory(client)
	if id := dir.Active(); id != "" {
		return id, nil
	}
	if _, err := dir.Reload(ctx); err != nil {
		return "", err
	}
	if id := dir.Active(); id != "" {
		return id, nil
	}
	return "", fmt.Errorf("no accounts available under this login")
}
