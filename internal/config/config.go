package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/viper"

	"github.com/deploymenttheory/go-rom-manager/internal/header"
	"github.com/deploymenttheory/go-rom-manager/internal/utils/errors"
	"github.com/deploymenttheory/go-rom-manager/internal/utils/fsutil"
	"github.com/deploymenttheory/go-rom-manager/internal/utils/osutil"
)

const (
	// AppName is the application name used for config files and directories
	AppName = "rom-manager"

	// EnvPrefix is the prefix for environment variables
	EnvPrefix = "ROM_MANAGER"
)

// Collection is one ROM directory audited against one DAT
type Collection struct {
	Name     string        `mapstructure:"name"`
	Platform string        `mapstructure:"platform"`
	DAT      string        `mapstructure:"dat"`
	ROMDir   string        `mapstructure:"rom_dir"`
	Header   header.Config `mapstructure:"header"`
}

// AppConfig holds the application configuration
type AppConfig struct {
	// Core settings
	Debug     bool   `mapstructure:"debug"`
	LogFormat string `mapstructure:"log_format"`
	LogFile   string `mapstructure:"log_file"`

	// Locations
	DATDir  string `mapstructure:"dat_dir"`
	DataDir string `mapstructure:"data_dir"`

	// Scanning and repair; workers 0 means one per CPU
	Workers int  `mapstructure:"workers"`
	DryRun  bool `mapstructure:"dry_run"`

	Collections []Collection `mapstructure:"collections"`
}

// Global variables
var (
	// Global configuration instance
	Instance AppConfig

	// Status indicators
	ConfigLoaded bool
	ConfigFile   string

	// Ensure thread safety
	initOnce sync.Once
	mu       sync.Mutex
)

// Initialize sets up the configuration system once per process
func Initialize(cfgFile string) error {
	var err error
	initOnce.Do(func() {
		err = Reload(cfgFile)
	})
	return err
}

// Reload replaces Instance with the configuration read from cfgFile, or from the
// default search paths when cfgFile is empty
func Reload(cfgFile string) error {
	cfg, used, err := Load(cfgFile)
	if err != nil {
		return err
	}

	mu.Lock()
	defer mu.Unlock()
	Instance = cfg
	ConfigFile = used
	ConfigLoaded = used != ""

	ensureDirectories()
	return nil
}

// Load reads and validates a configuration without touching the globals. It
// returns the file actually used, empty when only defaults and environment apply.
func Load(cfgFile string) (AppConfig, string, error) {
	v := viper.New()
	setDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName(AppName)
		v.SetConfigType("yaml")
		addSearchPaths(v)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	used := ""
	if readErr := v.ReadInConfig(); readErr != nil {
		if _, ok := readErr.(viper.ConfigFileNotFoundError); !ok {
			return AppConfig{}, "", fmt.Errorf("%w: %v", errors.ErrConfigParseError, readErr)
		}
	} else {
		used = v.ConfigFileUsed()
	}

	var cfg AppConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return AppConfig{}, "", fmt.Errorf("%w: %v", errors.ErrConfigParseError, err)
	}
	cfg.Workers = ResolveWorkers(cfg.Workers)
	if err := cfg.Validate(); err != nil {
		return AppConfig{}, "", err
	}
	return cfg, used, nil
}

// setDefaults sets default values for configuration
func setDefaults(v *viper.Viper) {
	v.SetDefault("debug", false)
	v.SetDefault("log_format", "human")
	v.SetDefault("workers", 1)
	v.SetDefault("dry_run", false)
	v.SetDefault("dat_dir", "")

	if logDir, err := fsutil.GetLogDir(AppName); err == nil {
		v.SetDefault("log_file", filepath.Join(logDir, "rom-manager.log"))
	} else {
		v.SetDefault("log_file", "logs/rom-manager.log")
	}

	if dataDir, err := fsutil.GetDataDir(AppName); err == nil {
		v.SetDefault("data_dir", dataDir)
	} else {
		v.SetDefault("data_dir", "data")
	}
}

// addSearchPaths adds config search paths
func addSearchPaths(v *viper.Viper) {
	// Always check current directory first
	v.AddConfigPath(".")

	if osutil.IsDevEnvironment() {
		if configDir, err := fsutil.GetConfigDir(AppName); err == nil {
			v.AddConfigPath(configDir)
		}
		return
	}

	if osutil.IsRunningInPipeline() {
		v.AddConfigPath("/etc/" + AppName)
		return
	}

	if configDir, err := fsutil.GetConfigDir(AppName); err == nil {
		v.AddConfigPath(configDir)
	}
	if systemConfigDir, err := fsutil.GetSystemConfigDir(AppName); err == nil {
		v.AddConfigPath(systemConfigDir)
	}
}

// ensureDirectories creates necessary directories based on configuration
func ensureDirectories() {
	// Don't create directories in a pipeline environment unless explicitly requested
	if osutil.IsRunningInPipeline() && os.Getenv("CREATE_DIRS") != "true" {
		return
	}

	if Instance.LogFile != "" {
		_ = fsutil.CreateDirIfNotExists(filepath.Dir(Instance.LogFile))
	}
	if Instance.DataDir != "" {
		_ = fsutil.CreateDirIfNotExists(Instance.DataDir)
	}
}

// ResolveWorkers maps 0 to one worker per CPU. Other values are returned
// unchanged; Validate rejects negatives.
func ResolveWorkers(n int) int {
	if n == 0 {
		return osutil.GetNumCPU()
	}
	return n
}

// Validate checks values that would otherwise fail late, in the middle of a scan
func (c *AppConfig) Validate() error {
	switch c.LogFormat {
	case "json", "human", "":
	default:
		return fmt.Errorf("%w: log_format must be json or human, got %q", errors.ErrConfigInvalid, c.LogFormat)
	}
	if c.Workers < 1 {
		return fmt.Errorf("%w: workers must be at least 1, got %d", errors.ErrConfigInvalid, c.Workers)
	}

	seen := make(map[string]bool, len(c.Collections))
	for i, coll := range c.Collections {
		if coll.Name == "" {
			return fmt.Errorf("%w: collection %d has no name", errors.ErrConfigInvalid, i)
		}
		if seen[coll.Name] {
			return fmt.Errorf("%w: duplicate collection %q", errors.ErrConfigInvalid, coll.Name)
		}
		seen[coll.Name] = true

		if coll.DAT == "" {
			return fmt.Errorf("%w: collection %q has no dat", errors.ErrConfigInvalid, coll.Name)
		}
		if coll.ROMDir == "" {
			return fmt.Errorf("%w: collection %q has no rom_dir", errors.ErrConfigInvalid, coll.Name)
		}
		if err := coll.Header.Validate(); err != nil {
			return fmt.Errorf("%w: collection %q: %v", errors.ErrConfigInvalid, coll.Name, err)
		}
	}
	return nil
}

// Collection returns the configured collection called name
func (c *AppConfig) Collection(name string) (*Collection, error) {
	for i := range c.Collections {
		if c.Collections[i].Name == name {
			return &c.Collections[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", errors.ErrCollectionNotFound, name)
}

// DATPath resolves a collection's DAT against dat_dir when it is relative
func (c *AppConfig) DATPath(coll *Collection) string {
	if filepath.IsAbs(coll.DAT) || c.DATDir == "" {
		return coll.DAT
	}
	return filepath.Join(c.DATDir, coll.DAT)
}
