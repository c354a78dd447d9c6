package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-code/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-code/internal/logger"
)

// version is set at build time.
var version = "dev"

// Services are the core services the commands drive.
type Services struct {
	Settings driving.SettingsService
	Open     driving.SessionOpener

	// Close releases resources such as the cache database. May be nil.
	Close func() error
}

// Bootstrap builds the services for a config file path. An empty path
// selects the default location.
type Bootstrap func(configPath string) (*Services, error)

var (
	bootstrap Bootstrap
	services  *Services

	configPath string
	verbose    bool
	logFile    string
)

var rootCmd = &cobra.Command{
	Use:   "sercha-code",
	Short: "Incremental code analysis for your workspace",
	Long: `sercha-code sends your project to a remote static analysis service and
reports the issues it finds.

Only files that changed since the last scan are hashed and uploaded again,
and an unchanged workspace is answered from the local cache.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		logger.SetVerbose(verbose)
		if logFile != "" {
			if err := logger.SetLogFile(logFile, 0); err != nil {
				return fmt.Errorf("log file: %w", err)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.sercha-code/config.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "print debug output")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "also write logs to this file")
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	version = v
}

// SetBootstrap sets how services are built on first use.
func SetBootstrap(fn Bootstrap) {
	bootstrap = fn
}

// SetServices sets the services directly, bypassing the bootstrap.
func SetServices(s *Services) {
	services = s
}

// Execute runs the root command and releases services afterwards.
func Execute() error {
	err := rootCmd.Execute()
	if services != nil && services.Close != nil {
		if closeErr := services.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}
	_ = logger.SetLogFile("", 0)
	return err
}

// loadServices returns the configured services, bootstrapping them once.
func loadServices() (*Services, error) {
	if services != nil {
		return services, nil
	}
	if bootstrap == nil {
		return nil, errors.New("services not configured")
	}
	s, err := bootstrap(configPath)
	if err != nil {
		return nil, err
	}
	services = s
	return services, nil
}

// openSession opens the workspace named by args, defaulting to the
// current directory.
func openSession(args []string) (driving.WorkspaceSession, error) {
	s, err := loadServices()
	if err != nil {
		return nil, err
	}
	if s.Open == nil {
		return nil, errors.New("scan service not configured")
	}
	root := "."
	if len(args) > 0 {
		root = args[0]
	}
	return s.Open(root)
}
