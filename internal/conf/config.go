// config.go: settings struct and loading for the CamDex-Go discovery pipeline.
package conf

import (
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/viper"
)

//go:embed config.yaml
var configFiles embed.FS

// OutputSettings describes where the pipeline persists its state.
type OutputSettings struct {
	SQLite struct {
		Enabled bool   // true to enable the SQLite record store
		Path    string // path to the database file
	}
	ImageDir       string // directory for full-size product images
	ThumbDir       string // directory for thumbnails
	AttributionDir string // directory for per-image attribution sidecars
	ReportPath     string // path of the JSON run summary file
}

// DiscoverySettings controls the discovery engine.
type DiscoverySettings struct {
	Debug            bool // true to enable debug logging
	DailyQuota       int  // maximum new cameras saved per local calendar day
	CandidateDelayMs int  // fixed delay between candidates, milliseconds
	MaxRetries       int  // consecutive failures before a candidate is abandoned
}

// ImageProviderSettings controls image search, download and normalization.
type ImageProviderSettings struct {
	Debug              bool
	Providers          []string // ordered provider chain, e.g. manufacturer, archive, retailer
	TimeoutSeconds     int      // per-provider search and download timeout
	MinDimension       int      // reject images smaller than this on either side
	MaxDownloadBytes   int64    // reject downloads larger than this
	MaxImageWidth      int      // full-size images are capped at this width
	ThumbWidth         int      // thumbnails are capped at this width
	NegativeCacheTTL   int      // minutes to remember provider misses
	ArchiveAPIEndpoint string   // community image archive API endpoint
	UserAgentContact   string   // contact URL embedded in the user agent
}

// SchedulerSettings controls periodic discovery and backup runs.
type SchedulerSettings struct {
	IntervalHours int    // hours between discovery passes
	BackupTime    string // daily backup time in HH:MM local time
	RunAtStart    bool   // trigger one discovery pass immediately at startup
}

// BackupSettings controls store snapshots.
type BackupSettings struct {
	Enabled bool
	Path    string // backups directory
	Retain  int    // number of snapshots to keep
}

// Settings is the root configuration for the process.
type Settings struct {
	Debug bool // true to enable debug output globally

	Main struct {
		Name string // node name reported in logs and user agents
	}

	Output        OutputSettings
	Discovery     DiscoverySettings
	ImageProvider ImageProviderSettings
	Scheduler     SchedulerSettings
	Backup        BackupSettings

	Version string `yaml:"-"` // build version, set at link time
}

var (
	settingsInstance *Settings
	once             sync.Once
	settingsMutex    sync.RWMutex
)

// Load reads the configuration from disk (creating a default config file on
// first run), applies defaults and environment overrides, and validates the
// result. It is safe to call more than once; later calls return the cached
// settings.
func Load() (*Settings, error) {
	var loadErr error
	once.Do(func() {
		settings := &Settings{}

		if err := initViper(); err != nil {
			loadErr = fmt.Errorf("error initializing viper: %w", err)
			return
		}

		if err := viper.Unmarshal(settings); err != nil {
			loadErr = fmt.Errorf("error unmarshaling config into struct: %w", err)
			return
		}

		if err := ValidateSettings(settings); err != nil {
			loadErr = fmt.Errorf("error validating settings: %w", err)
			return
		}

		settingsInstance = settings
	})
	if loadErr != nil {
		return nil, loadErr
	}
	return settingsInstance, nil
}

// SyncViper re-applies viper's merged values onto the settings struct after
// command-line flags have been bound, so flags override file and env values.
func SyncViper(settings *Settings) {
	if err := viper.Unmarshal(settings); err != nil {
		fmt.Printf("error syncing configuration: %v\n", err)
	}
}

// Setting returns the loaded settings, loading them if needed. It panics on
// load failure and is meant for call sites that run strictly after a
// successful Load in main.
func Setting() *Settings {
	settingsMutex.RLock()
	if settingsInstance != nil {
		defer settingsMutex.RUnlock()
		return settingsInstance
	}
	settingsMutex.RUnlock()

	s, err := Load()
	if err != nil {
		panic(err)
	}
	return s
}

func initViper() error {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	configPaths, err := GetDefaultConfigPaths()
	if err != nil {
		return err
	}
	for _, path := range configPaths {
		viper.AddConfigPath(path)
	}

	viper.SetEnvPrefix("CAMDEX")
	viper.AutomaticEnv()

	setDefaultConfig()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("fatal error reading config file: %w", err)
		}
		return createDefaultConfig(configPaths[0])
	}
	return nil
}

// createDefaultConfig writes the embedded default configuration to the first
// config path so operators have a file to edit.
func createDefaultConfig(configPath string) error {
	configFile := filepath.Join(configPath, "config.yaml")
	defaultConfig, err := getDefaultConfig()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(configPath, 0o755); err != nil {
		return fmt.Errorf("error creating directories for config file: %w", err)
	}

	if err := os.WriteFile(configFile, []byte(defaultConfig), 0o644); err != nil {
		return fmt.Errorf("error writing default config file: %w", err)
	}

	fmt.Println("Created default config file at:", configFile)
	return viper.ReadInConfig()
}

func getDefaultConfig() (string, error) {
	data, err := configFiles.ReadFile("config.yaml")
	if err != nil {
		return "", fmt.Errorf("error reading embedded config.yaml: %w", err)
	}
	return string(data), nil
}

// GetDefaultConfigPaths returns the ordered list of directories searched for
// a config file: the working directory first, then the user config dir.
func GetDefaultConfigPaths() ([]string, error) {
	paths := []string{"."}

	configDir, err := os.UserConfigDir()
	if err == nil {
		paths = append(paths, filepath.Join(configDir, "camdex-go"))
	}
	return paths, nil
}
