package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/sercha-code/internal/core/domain"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and change the settings stored in the config file.

Settings use dotted keys such as poll.max_attempts. Run 'settings keys' for
the full list.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Change a setting",
	Long: `Validates and stores a single setting. List values are comma separated:

  sercha-code settings set scan.exclude vendor/gen.go,build/out.js`,
	Args: cobra.ExactArgs(2),
	RunE: runSettingsSet,
}

var settingsKeysCmd = &cobra.Command{
	Use:   "keys",
	Short: "List setting keys",
	RunE:  runSettingsKeys,
}

var settingsTokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Store the service token",
	Long:  `Prompts for the service token without echoing it and stores it as api.token.`,
	Args:  cobra.NoArgs,
	RunE:  runSettingsToken,
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	settingsCmd.AddCommand(settingsKeysCmd)
	settingsCmd.AddCommand(settingsTokenCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	s, err := loadServices()
	if err != nil {
		return err
	}
	if s.Settings == nil {
		return errors.New("settings service not configured")
	}

	settings, err := s.Settings.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Println()

	cmd.Println("[API]")
	cmd.Printf("  Endpoint: %s\n", settings.API.Endpoint)
	if settings.API.Token != "" {
		cmd.Printf("  Token: %s\n", maskToken(settings.API.Token))
	} else {
		cmd.Printf("  Token: (not set)\n")
	}
	cmd.Printf("  Rate: %.1f requests/s\n", settings.API.RequestsPerSec)
	cmd.Printf("  Timeout: %s\n", settings.API.Timeout)
	cmd.Println()

	cmd.Println("[Scan]")
	cmd.Printf("  Workers: %d\n", settings.Scan.Workers)
	cmd.Printf("  Exclude: %s\n", listOrNone(settings.Scan.Exclude))
	if settings.Scan.CacheDir != "" {
		cmd.Printf("  Cache dir: %s\n", settings.Scan.CacheDir)
	}
	cmd.Println()

	cmd.Println("[Upload]")
	cmd.Printf("  Batch size: %d files\n", settings.Upload.BatchSize)
	cmd.Printf("  Max batch bytes: %d\n", settings.Upload.MaxBatchBytes)
	cmd.Println()

	cmd.Println("[Poll]")
	cmd.Printf("  Max attempts: %d\n", settings.Poll.MaxAttempts)
	cmd.Printf("  Interval: %s to %s\n", settings.Poll.InitialInterval, settings.Poll.MaxInterval)
	cmd.Printf("  Timeout: %s\n", settings.Poll.Timeout)
	cmd.Println()

	cmd.Println("[Filter]")
	cmd.Printf("  Extensions: %s\n", listOrNone(settings.Filter.Extensions))
	cmd.Printf("  Config files: %s\n", listOrNone(settings.Filter.ConfigFiles))
	cmd.Printf("  Max file size: %d\n", settings.Filter.MaxFileSize)
	return nil
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	s, err := loadServices()
	if err != nil {
		return err
	}
	if s.Settings == nil {
		return errors.New("settings service not configured")
	}

	if err := s.Settings.Set(args[0], args[1]); err != nil {
		return fmt.Errorf("failed to set %s: %w", args[0], err)
	}
	cmd.Printf("Set %s\n", args[0])
	return nil
}

func runSettingsKeys(cmd *cobra.Command, _ []string) error {
	s, err := loadServices()
	if err != nil {
		return err
	}
	if s.Settings == nil {
		return errors.New("settings service not configured")
	}
	for _, key := range s.Settings.Keys() {
		cmd.Println(key)
	}
	return nil
}

func runSettingsToken(cmd *cobra.Command, _ []string) error {
	s, err := loadServices()
	if err != nil {
		return err
	}
	if s.Settings == nil {
		return errors.New("settings service not configured")
	}

	cmd.Print("Token: ")
	token := readSecret(cmd.InOrStdin())
	cmd.Println()
	if token == "" {
		return fmt.Errorf("%w: empty token", domain.ErrInvalidInput)
	}
	if err := s.Settings.Set("api.token", token); err != nil {
		return fmt.Errorf("failed to store token: %w", err)
	}
	cmd.Println("Token stored.")
	return nil
}

// readSecret reads a line without echo when r is a terminal.
func readSecret(r io.Reader) string {
	if f, ok := r.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		secret, err := term.ReadPassword(int(f.Fd()))
		if err == nil {
			return strings.TrimSpace(string(secret))
		}
	}
	// Fallback to regular input
	input, _ := bufio.NewReader(r).ReadString('\n')
	return strings.TrimSpace(input)
}

func maskToken(token string) string {
	if len(token) <= 8 {
		return "****"
	}
	return token[:4] + "..." + token[len(token)-4:]
}

func listOrNone(items []string) string {
	if len(items) == 0 {
		return "(none)"
	}
	return strings.Join(items, ", ")
}
