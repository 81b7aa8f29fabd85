// config.go: settings struct and functions to load and save the settings
// for the machinevision label review service.
package conf

import (
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

//go:embed config.yaml
var configFiles embed.FS

// LogConfig defines log file settings.
type LogConfig struct {
	Enabled    bool   // true to enable file logging
	Path       string // path to log file
	MaxSizeMB  int    // rotate after this size
	MaxBackups int    // rotated files to keep
	MaxAgeDays int    // days to keep rotated files
}

// MainSettings contains general application settings.
type MainSettings struct {
	Name string    // service instance name
	Log  LogConfig // log settings
}

// DatabaseSettings selects and configures the storage backend.
type DatabaseSettings struct {
	Type   string // "sqlite" or "mysql"
	SQLite struct {
		Path string // path to sqlite database file
	}
	MySQL struct {
		Username string
		Password string
		Database string
		Host     string
		Port     string
	}
	TimeoutSeconds int // per-operation storage timeout
}

// SafetyThresholds holds per-category ordinal thresholds on the 0-5
// SafeSearch scale. A zero value for a category disables it.
type SafetyThresholds struct {
	Adult    int
	Spoof    int
	Medical  int
	Violence int
	Racy     int
}

// SafetySettings controls the withholding policy applied at ingestion.
type SafetySettings struct {
	WithholdAll     SafetyThresholds // at or above: withhold from all queues
	WithholdPopular SafetyThresholds // at or above: withhold from the popular queue
	WithholdList    []string         // canonical IDs eligible for withhold-all
}

// LimitsSettings bounds transaction and batch sizes.
type LimitsSettings struct {
	MaxSuggestionsPerIngest int // suggestions accepted per ingest call
	MaxReviewBatchSize      int // operations accepted per review batch
}

// GoogleVisionSettings configures the Google Cloud Vision provider client.
type GoogleVisionSettings struct {
	Enabled         bool
	CredentialsPath string  // service account JSON, empty for ADC
	TimeoutSeconds  int     // per-request timeout
	RequestsPerSec  float64 // client-side rate limit
	MaxResults      int     // label annotations requested per image
}

// WikidataSettings configures the random-wikidata test provider.
type WikidataSettings struct {
	Enabled        bool
	Endpoint       string
	TimeoutSeconds int
}

// ProviderSettings groups the supported annotation providers.
type ProviderSettings struct {
	GoogleVision GoogleVisionSettings
	Wikidata     WikidataSettings
}

// MappingSettings configures the concept mapping loader.
type MappingSettings struct {
	FilePath string // tab-separated providerID -> canonicalID file
}

// JobQueueSettings configures the annotation fetch queue.
type JobQueueSettings struct {
	MaxJobs             int
	MaxRetries          int
	InitialDelaySeconds int
	MaxDelaySeconds     int
}

// Settings is the root configuration struct.
type Settings struct {
	Debug bool

	Main     MainSettings
	Database DatabaseSettings
	Safety   SafetySettings
	Limits   LimitsSettings
	Provider ProviderSettings
	Mapping  MappingSettings
	JobQueue JobQueueSettings
}

// StorageTimeout returns the configured per-operation storage timeout.
func (s *Settings) StorageTimeout() time.Duration {
	if s.Database.TimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(s.Database.TimeoutSeconds) * time.Second
}

var (
	settingsInstance *Settings
	settingsMutex    sync.RWMutex
)

// Load reads the configuration file and environment variables into a new
// Settings instance and stores it as the active settings.
func Load() (*Settings, error) {
	settingsMutex.Lock()
	defer settingsMutex.Unlock()

	settings := &Settings{}

	if err := initViper(); err != nil {
		return nil, fmt.Errorf("error initializing viper: %w", err)
	}

	if err := viper.Unmarshal(settings); err != nil {
		return nil, fmt.Errorf("error unmarshaling config into struct: %w", err)
	}

	if err := ValidateSettings(settings); err != nil {
		return nil, fmt.Errorf("error validating settings: %w", err)
	}

	settingsInstance = settings
	return settingsInstance, nil
}

// Setting returns the active settings instance, loading it on first use.
func Setting() *Settings {
	settingsMutex.RLock()
	if settingsInstance != nil {
		defer settingsMutex.RUnlock()
		return settingsInstance
	}
	settingsMutex.RUnlock()

	settings, err := Load()
	if err != nil {
		return &Settings{}
	}
	return settings
}

// initViper initializes viper with default values and reads the configuration file.
func initViper() error {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	configPaths, err := GetDefaultConfigPaths()
	if err != nil {
		return fmt.Errorf("error getting default config paths: %w", err)
	}
	for _, path := range configPaths {
		viper.AddConfigPath(path)
	}

	viper.SetEnvPrefix("MACHINEVISION")
	viper.AutomaticEnv()

	// defined in defaults.go
	setDefaultConfig()

	if err := viper.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFoundError) {
			return createDefaultConfig(configPaths[0])
		}
		return fmt.Errorf("fatal error reading config file: %w", err)
	}

	return nil
}

// createDefaultConfig writes the embedded default config file to the first
// config path so the user has something to edit.
func createDefaultConfig(configDir string) error {
	configPath := filepath.Join(configDir, "config.yaml")

	defaultConfig, err := configFiles.ReadFile("config.yaml")
	if err != nil {
		return fmt.Errorf("error reading embedded default config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return fmt.Errorf("error creating directories for config file: %w", err)
	}

	if err := os.WriteFile(configPath, defaultConfig, 0o644); err != nil {
		return fmt.Errorf("error writing default config file: %w", err)
	}

	return viper.ReadInConfig()
}

// SaveSettings writes the given settings to path as YAML.
func SaveSettings(settings *Settings, path string) error {
	data, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("error marshaling settings: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("error creating directories for config file: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}
	return nil
}

// GetDefaultConfigPaths returns the config search paths: the user config
// directory followed by the working directory.
func GetDefaultConfigPaths() ([]string, error) {
	var paths []string

	if configDir, err := os.UserConfigDir(); err == nil {
		paths = append(paths, filepath.Join(configDir, "machinevision"))
	}

	pwd, err := os.Getwd()
	if err != nil {
		if len(paths) == 0 {
			return nil, fmt.Errorf("error resolving config paths: %w", err)
		}
		return paths, nil
	}
	paths = append(paths, pwd)

	return paths, nil
}
