package services

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/custodia-labs/sercha-code/internal/core/domain"
	"github.com/custodia-labs/sercha-code/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-code/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// EnvToken overrides api.token when set.
//
//nolint:gosec // G101: environment variable name, not a credential.
const EnvToken = "SERCHA_CODE_TOKEN"

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyEndpoint        = "api.endpoint"
	keyToken           = "api.token"
	keyRate            = "api.rate"
	keyAPITimeout      = "api.timeout_seconds"
	keyWorkers         = "scan.workers"
	keyExclude         = "scan.exclude"
	keyCacheDir        = "scan.cache_dir"
	keyBatchSize       = "upload.batch_size"
	keyMaxBatchBytes   = "upload.max_batch_bytes"
	keyMaxAttempts     = "poll.max_attempts"
	keyInitialInterval = "poll.initial_interval_ms"
	keyMaxInterval     = "poll.max_interval_ms"
	keyPollTimeout     = "poll.timeout_seconds"
	keyExtensions      = "filter.extensions"
	keyConfigFiles     = "filter.config_files"
	keyMaxFileSize     = "filter.max_file_size"
)

// settingKind is the value type of a setting.
type settingKind int

const (
	kindString settingKind = iota
	kindInt
	kindFloat
	kindList
)

var settingKinds = map[string]settingKind{
	keyEndpoint:        kindString,
	keyToken:           kindString,
	keyRate:            kindFloat,
	keyAPITimeout:      kindInt,
	keyWorkers:         kindInt,
	keyExclude:         kindList,
	keyCacheDir:        kindString,
	keyBatchSize:       kindInt,
	keyMaxBatchBytes:   kindInt,
	keyMaxAttempts:     kindInt,
	keyInitialInterval: kindInt,
	keyMaxInterval:     kindInt,
	keyPollTimeout:     kindInt,
	keyExtensions:      kindList,
	keyConfigFiles:     kindList,
	keyMaxFileSize:     kindInt,
}

// SettingsService loads and stores settings through a ConfigStore.
type SettingsService struct {
	configStore driven.ConfigStore
	validate    *validator.Validate
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		validate:    validator.New(),
	}
}

// LoadSettings returns the validated settings held by configStore.
func LoadSettings(configStore driven.ConfigStore) (*domain.Settings, error) {
	return NewSettingsService(configStore).Get()
}

// Get returns the validated settings with defaults applied.
func (s *SettingsService) Get() (*domain.Settings, error) {
	settings := s.build(nil)
	if token := os.Getenv(EnvToken); token != "" {
		settings.API.Token = token
	}
	if err := s.Validate(settings); err != nil {
		return nil, err
	}
	return settings, nil
}

// Set parses, validates and persists a single setting.
// Lists are comma separated.
func (s *SettingsService) Set(key, value string) error {
	kind, ok := settingKinds[key]
	if !ok {
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}

	var parsed any
	switch kind {
	case kindInt:
		n, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
		if err != nil {
			return fmt.Errorf("%w: %s must be an integer", domain.ErrInvalidInput, key)
		}
		parsed = n
	case kindFloat:
		f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return fmt.Errorf("%w: %s must be a number", domain.ErrInvalidInput, key)
		}
		parsed = f
	case kindList:
		parsed = splitList(value)
	default:
		parsed = strings.TrimSpace(value)
	}

	if err := s.Validate(s.build(map[string]any{key: parsed})); err != nil {
		return err
	}
	if err := s.configStore.Set(key, parsed); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// Keys returns the supported setting keys in sorted order.
func (s *SettingsService) Keys() []string {
	keys := make([]string, 0, len(settingKinds))
	for key := range settingKinds {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Validate checks settings against their constraints.
func (s *SettingsService) Validate(settings *domain.Settings) error {
	err := s.validate.Struct(settings)
	if err == nil {
		return nil
	}

	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		return fmt.Errorf("settings validation: %w", err)
	}
	msgs := make([]string, 0, len(errs))
	for _, e := range errs {
		msg := fmt.Sprintf("%s: rule '%s'", strings.TrimPrefix(e.Namespace(), "Settings."), e.Tag())
		if e.Param() != "" {
			msg += fmt.Sprintf(" (expected: %s)", e.Param())
		}
		msg += fmt.Sprintf(", actual: '%v'", e.Value())
		msgs = append(msgs, msg)
	}
	return fmt.Errorf("%w: invalid settings:\n  %s", domain.ErrInvalidInput, strings.Join(msgs, "\n  "))
}

// build overlays stored values, then overrides, on the defaults.
func (s *SettingsService) build(overrides map[string]any) *domain.Settings {
	l := lookup{store: s.configStore, overrides: overrides}
	d := domain.DefaultSettings()

	return &domain.Settings{
		API: domain.APISettings{
			Endpoint:       l.getString(keyEndpoint, d.API.Endpoint),
			Token:          l.getString(keyToken, d.API.Token),
			RequestsPerSec: l.getFloat(keyRate, d.API.RequestsPerSec),
			Timeout:        l.seconds(keyAPITimeout, d.API.Timeout),
		},
		Scan: domain.ScanSettings{
			Workers:  l.getInt(keyWorkers, d.Scan.Workers),
			Exclude:  l.getList(keyExclude, d.Scan.Exclude),
			CacheDir: l.getString(keyCacheDir, d.Scan.CacheDir),
		},
		Upload: domain.UploadSettings{
			BatchSize:     l.getInt(keyBatchSize, d.Upload.BatchSize),
			MaxBatchBytes: int64(l.getInt(keyMaxBatchBytes, int(d.Upload.MaxBatchBytes))),
		},
		Poll: domain.PollSettings{
			MaxAttempts:     l.getInt(keyMaxAttempts, d.Poll.MaxAttempts),
			InitialInterval: l.millis(keyInitialInterval, d.Poll.InitialInterval),
			MaxInterval:     l.millis(keyMaxInterval, d.Poll.MaxInterval),
			Timeout:         l.seconds(keyPollTimeout, d.Poll.Timeout),
		},
		Filter: domain.FilterSettings{
			Extensions:  l.getList(keyExtensions, d.Filter.Extensions),
			ConfigFiles: l.getList(keyConfigFiles, d.Filter.ConfigFiles),
			MaxFileSize: int64(l.getInt(keyMaxFileSize, int(d.Filter.MaxFileSize))),
		},
	}
}

// lookup reads typed values, preferring overrides over the store.
type lookup struct {
	store     driven.ConfigStore
	overrides map[string]any
}

func (l lookup) value(key string) (any, bool) {
	if v, ok := l.overrides[key]; ok {
		return v, true
	}
	if l.store == nil {
		return nil, false
	}
	return l.store.Get(key)
}

func (l lookup) getString(key, def string) string {
	if v, ok := l.value(key); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return def
}

func (l lookup) getInt(key string, def int) int {
	v, ok := l.value(key)
	if !ok {
		return def
	}
	switch n := v.(type) {
	case int64:
		return int(n)
	case int:
		return n
	case float64:
		return int(n)
	default:
		return def
	}
}

func (l lookup) getFloat(key string, def float64) float64 {
	v, ok := l.value(key)
	if !ok {
		return def
	}
	switch n := v.(type) {
	case float64:
		return n
	case int64:
		return float64(n)
	case int:
		return float64(n)
	default:
		return def
	}
}

func (l lookup) getList(key string, def []string) []string {
	v, ok := l.value(key)
	if !ok {
		return def
	}
	switch items := v.(type) {
	case []string:
		return items
	case []any:
		out := make([]string, 0, len(items))
		for _, item := range items {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case string:
		return splitList(items)
	default:
		return def
	}
}

func (l lookup) seconds(key string, def time.Duration) time.Duration {
	return time.Duration(l.getInt(key, int(def/time.Second))) * time.Second
}

func (l lookup) millis(key string, def time.Duration) time.Duration {
	return time.Duration(l.getInt(key, int(def/time.Millisecond))) * time.Millisecond
}

func splitList(value string) []string {
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
