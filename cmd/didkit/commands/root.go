package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"didkit"
	"didkit/keystore"
	"didkit/provider"
	"didkit/resolver"
)

var (
	home        string
	passphrase  string
	providerURL string
	verbose     bool

	appCfg Config
	appDID *didkit.DID
	keys   *keystore.Store
	logger *zap.Logger
)

func Execute() error {
	root := &cobra.Command{
		Use:   "didkit",
		Short: "DID identity handle CLI",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if home == "" {
				dir, err := os.UserHomeDir()
				if err != nil {
					return err
				}
				home = filepath.Join(dir, ".didkit")
			}
			if err := os.MkdirAll(home, 0o700); err != nil {
				return err
			}

			var err error
			if appCfg, err = loadConfig(home); err != nil {
				return err
			}
			if providerURL == "" {
				providerURL = appCfg.Provider
			}

			logger = zap.NewNop()
			if verbose {
				if logger, err = zap.NewDevelopment(); err != nil {
					return err
				}
			}

			keys = keystore.New(home)

			registry := resolver.Registry{"key": resolver.KeyResolver()}
			var ropts []resolver.Option
			if appCfg.CacheSize > 0 {
				ropts = append(ropts, resolver.WithCache(appCfg.CacheSize, appCfg.CacheTTL))
			}
			appDID = didkit.New(
				didkit.WithRegistry(registry, ropts...),
				didkit.WithLogger(logger),
			)
			return nil
		},
	}

	root.PersistentFlags().StringVar(&home, "home", "", "config dir (default ~/.didkit)")
	root.PersistentFlags().StringVarP(&passphrase, "passphrase", "p", "", "passphrase protecting the local seed")
	root.PersistentFlags().StringVar(&providerURL, "provider", "", "provider endpoint URL (http or ws)")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose logging")

	root.AddCommand(keygenCmd(), idCmd(), resolveCmd(), signCmd(), verifyCmd(), encryptCmd(), decryptCmd())
	return root.Execute()
}

// bindProvider connects the handle to the configured provider: a remote
// JSON-RPC endpoint when a URL is set, otherwise the local key provider.
func bindProvider(ctx context.Context) error {
	p, err := buildProvider(ctx)
	if err != nil {
		return err
	}
	return appDID.SetProvider(p)
}

func buildProvider(ctx context.Context) (provider.Provider, error) {
	if providerURL != "" {
		if strings.HasPrefix(providerURL, "ws://") || strings.HasPrefix(providerURL, "wss://") {
			return provider.DialWebSocket(ctx, providerURL, provider.WithLogger(logger))
		}
		return provider.NewHTTP(providerURL, provider.WithLogger(logger)), nil
	}
	return localProvider()
}

// localProvider builds the in-process key provider from the stored seed.
func localProvider() (*provider.KeyProvider, error) {
	if passphrase == "" {
		return nil, fmt.Errorf("passphrase required (-p)")
	}
	seed, err := keys.LoadSeed(passphrase)
	if err != nil {
		return nil, err
	}
	return provider.NewKeyProvider(seed)
}
