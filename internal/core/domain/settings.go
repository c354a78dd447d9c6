package domain

import "time"

// Default settings values.
const (
	DefaultEndpoint        = "https://deeproxy.snyk.io"
	DefaultRequestsPerSec  = 10.0
	DefaultRequestTimeout  = 60 * time.Second
	DefaultWorkers         = 8
	DefaultBatchSize       = 100
	DefaultMaxBatchBytes   = 4 << 20
	DefaultMaxAttempts     = 200
	DefaultInitialInterval = 500 * time.Millisecond
	DefaultMaxInterval     = 5 * time.Second
	DefaultPollTimeout     = 10 * time.Minute
	DefaultMaxFileSize     = 1 << 20
)

// DefaultExtensions is used when the remote filters cannot be fetched.
var DefaultExtensions = []string{
	".cs", ".go", ".java", ".js", ".jsx", ".ts", ".tsx", ".py", ".rb", ".php",
	".c", ".cc", ".cpp", ".h", ".hpp", ".kt", ".scala", ".swift", ".vue",
}

// DefaultConfigFiles are analysed regardless of extension.
var DefaultConfigFiles = []string{".dcignore", ".gitignore", ".snyk"}

// Settings is the validated runtime configuration.
type Settings struct {
	API    APISettings
	Scan   ScanSettings
	Upload UploadSettings
	Poll   PollSettings
	Filter FilterSettings
}

// APISettings configures the remote client.
type APISettings struct {
	Endpoint       string `validate:"required,url"`
	Token          string
	RequestsPerSec float64       `validate:"gt=0"`
	Timeout        time.Duration `validate:"gt=0"`
}

// ScanSettings configures local scanning.
type ScanSettings struct {
	Workers  int `validate:"min=1,max=64"`
	Exclude  []string
	CacheDir string
}

// UploadSettings bounds upload batches.
type UploadSettings struct {
	BatchSize     int   `validate:"min=1"`
	MaxBatchBytes int64 `validate:"min=1024"`
}

// PollSettings bounds the analysis poll loop.
type PollSettings struct {
	MaxAttempts     int           `validate:"min=1"`
	InitialInterval time.Duration `validate:"gt=0"`
	MaxInterval     time.Duration `validate:"gtefield=InitialInterval"`
	Timeout         time.Duration `validate:"gt=0"`
}

// FilterSettings narrows the files sent for analysis.
type FilterSettings struct {
	Extensions  []string
	ConfigFiles []string
	MaxFileSize int64 `validate:"min=1"`
}

// DefaultSettings returns settings with all defaults applied.
func DefaultSettings() Settings {
	return Settings{
		API: APISettings{
			Endpoint:       DefaultEndpoint,
			RequestsPerSec: DefaultRequestsPerSec,
			Timeout:        DefaultRequestTimeout,
		},
		Scan: ScanSettings{Workers: DefaultWorkers},
		Upload: UploadSettings{
			BatchSize:     DefaultBatchSize,
			MaxBatchBytes: DefaultMaxBatchBytes,
		},
		Poll: PollSettings{
			MaxAttempts:     DefaultMaxAttempts,
			InitialInterval: DefaultInitialInterval,
			MaxInterval:     DefaultMaxInterval,
			Timeout:         DefaultPollTimeout,
		},
		Filter: FilterSettings{
			Extensions:  append([]string(nil), DefaultExtensions...),
			ConfigFiles: append([]string(nil), DefaultConfigFiles...),
			MaxFileSize: DefaultMaxFileSize,
		},
	}
}
