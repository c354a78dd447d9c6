package main

import (
	"fmt"
	"sync"

	"github.com/custodia-labs/sercha-code/internal/adapters/driven/config/file"
	"github.com/custodia-labs/sercha-code/internal/adapters/driven/remote"
	"github.com/custodia-labs/sercha-code/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/sercha-code/internal/adapters/driving/cli"
	"github.com/custodia-labs/sercha-code/internal/app"
	"github.com/custodia-labs/sercha-code/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-code/internal/core/services"
	"github.com/custodia-labs/sercha-code/internal/logger"
)

// bootstrap wires the config file, cache database and remote client.
// Invalid settings only fail the commands that scan, so they can still be
// fixed with the settings command.
func bootstrap(configPath string) (*cli.Services, error) {
	var (
		configStore *file.ConfigStore
		err         error
	)
	if configPath != "" {
		configStore, err = file.OpenConfigFile(configPath)
	} else {
		configStore, err = file.NewConfigStore("")
	}
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	logger.Debug("Using config %s", configStore.Path())

	settingsService := services.NewSettingsService(configStore)

	var (
		once   sync.Once
		store  *sqlite.Store
		wired  error
		opener driving.SessionOpener
	)
	connect := func() error {
		once.Do(func() {
			settings, err := settingsService.Get()
			if err != nil {
				wired = err
				return
			}
			client, err := remote.NewClient(remote.Config{
				Endpoint:          settings.API.Endpoint,
				Token:             settings.API.Token,
				RequestsPerSecond: settings.API.RequestsPerSec,
				Timeout:           settings.API.Timeout,
			})
			if err != nil {
				wired = err
				return
			}
			if settings.API.Token == "" {
				logger.Warn("No service token configured, run 'sercha-code settings token'")
			}
			store, err = sqlite.NewStore(settings.Scan.CacheDir)
			if err != nil {
				wired = fmt.Errorf("cache database: %w", err)
				return
			}
			logger.Debug("Using cache database %s", store.Path())

			stores := app.Stores{
				Snapshots:  store.CacheSnapshotStore(),
				Exclusions: store.ExclusionStore(),
			}
			opener = func(root string) (driving.WorkspaceSession, error) {
				return app.Open(root, settings, client, stores)
			}
		})
		return wired
	}

	return &cli.Services{
		Settings: settingsService,
		Open: func(root string) (driving.WorkspaceSession, error) {
			if err := connect(); err != nil {
				return nil, err
			}
			return opener(root)
		},
		Close: func() error {
			if store != nil {
				return store.Close()
			}
			return nil
		},
	}, nil
}
