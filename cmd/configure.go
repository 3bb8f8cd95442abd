package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"etr/internal/auth"
	"etr/internal/config"
	"etr/internal/keyring"
)

// configureOptions holds dependencies for the configure command, injected
// by tests.
type configureOptions struct {
	configPath     string
	store          keyring.Store
	passwordReader passwordReader
	prompt         prompter
	endpoints      *auth.Endpoints
}

// newConfigureCmd creates the configure command with the given options.
func newConfigureCmd(opts configureOptions) *cobra.Command {
	var sandbox bool
	var skipTest bool

	cmd := &cobra.Command{
		Use:   "configure",
		Short: "Store broker API credentials",
		Long: `Store your E*TRADE consumer key and secret in the system keyring.

The pair is validated against the broker with a dry request-token call
before anything is saved. Use --sandbox for paper trading keys.

Examples:
  etr configure              # Configure production keys
  etr configure --sandbox    # Configure sandbox keys`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigure(cmd, opts, sandbox, skipTest)
		},
	}

	cmd.Flags().BoolVar(&sandbox, "sandbox", false, "Target the paper trading host")
	cmd.Flags().BoolVar(&skipTest, "skip-test", false, "Skip the credential validation call")

	return cmd
}

func runConfigure(cmd *cobra.Command, opts configureOptions, sandbox, skipTest bool) error {
	out := cmd.OutOrStdout()

	prompt := opts.prompt
	if prompt == nil {
		prompt = newTerminalPrompter(cmd.InOrStdin(), out)
	}

	consumerKey, err := prompt.ReadLine("Consumer key: ")
	if err != nil {
		return fmt.Errorf("failed to read consumer key: %w", err)
	}
	if strings.TrimSpace(consumerKey) == "" {
		return fmt.Errorf("consumer key must not be empty")
	}

	reader := opts.passwordReader
	if reader == nil {
		reader = newTerminalReader(int(os.Stdin.Fd()))
	}

	var consumerSecret string
	if reader.IsTerminal() {
		_, _ = fmt.Fprint(out, "Consumer secret (hidden): ")
		consumerSecret, err = reader.ReadPassword()
		_, _ = fmt.Fprintln(out)
	} else {
		consumerSecret, err = prompt.ReadLine("Consumer secret: ")
	}
	if err != nil {
		return fmt.Errorf("failed to read consumer secret: %w", err)
	}
	if strings.TrimSpace(consumerSecret) == "" {
		return fmt.Errorf("consumer secret must not be empty")
	}

	// Validate before committing the keys anywhere.
	if !skipTest {
		endpoints := auth.BrokerEndpoints(sandbox)
		if opts.endpoints != nil {
			endpoints = *opts.endpoints
		}
		if err := auth.TestCredentials(consumerKey, consumerSecret, endpoints); err != nil {
			return fmt.Errorf("credential test failed: %w", err)
		}
		_, _ = fmt.Fprintln(out, "Credentials accepted by broker.")
	}

	store := opts.store
	if store == nil {
		store = keyring.NewSystemStore()
	}
	if err := store.Set(keyring.ServiceName, keyring.KeyConsumerKey, consumerKey); err != nil {
		return fmt.Errorf("failed to store consumer key: %w", err)
	}
	if err := store.Set(keyring.ServiceName, keyring.KeyConsumerSecret, consumerSecret); err != nil {
		return fmt.Errorf("failed to store consumer secret: %w", err)
	}

	cfgPath := opts.configPath
	if cfgPath == "" {
		cfgPath = config.Path()
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	cfg.Sandbox = sandbox
	if err := config.Save(cfgPath, cfg); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	_, _ = fmt.Fprintln(out, "Configuration saved. Run: etr login")
	return nil
}
