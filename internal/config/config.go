package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	KeyBaseURL         = "base_url"
	KeyCacheDir        = "cache_dir"
	KeyLogLevel        = "log_level"
	KeyLogFormat       = "log_format"
	KeyProbeTimeout    = "probe_timeout"
	KeyListenAddr      = "listen_addr"
	KeyRefreshInterval = "refresh_interval"

	configName = ".intercom-cli"
	envPrefix  = "INTERCOM"
)

// ErrNoBaseURL is returned by Settings.Validate when no backend is configured.
var ErrNoBaseURL = errors.New("base_url is not configured, run 'intercom-cli configure' first")

// Settings is the typed view of the configuration.
type Settings struct {
	BaseURL         string
	CacheDir        string
	LogLevel        string
	LogFormat       string
	ProbeTimeout    time.Duration
	ListenAddr      string
	RefreshInterval time.Duration
}

// InitConfig reads in config file and ENV variables if set.
func InitConfig(cfgFile string) {
	setDefaults(viper.GetViper())

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}

		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(configName)
	}

	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// A missing config file is fine; defaults and env still apply.
	_ = viper.ReadInConfig()
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(KeyCacheDir, defaultCacheDir())
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, "console")
	v.SetDefault(KeyProbeTimeout, "3s")
	v.SetDefault(KeyListenAddr, ":9110")
	v.SetDefault(KeyRefreshInterval, "5m")
}

func defaultCacheDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "intercom-cli", "cache")
	}
	return filepath.Join(home, ".intercom-cli", "cache")
}

// Load returns the settings held by the global viper instance.
func Load() Settings {
	return FromViper(viper.GetViper())
}

// FromViper builds Settings from v.
func FromViper(v *viper.Viper) Settings {
	return Settings{
		BaseURL:         strings.TrimRight(v.GetString(KeyBaseURL), "/"),
		CacheDir:        v.GetString(KeyCacheDir),
		LogLevel:        v.GetString(KeyLogLevel),
		LogFormat:       v.GetString(KeyLogFormat),
		ProbeTimeout:    v.GetDuration(KeyProbeTimeout),
		ListenAddr:      v.GetString(KeyListenAddr),
		RefreshInterval: v.GetDuration(KeyRefreshInterval),
	}
}

// Validate checks the settings needed for network operations.
func (s Settings) Validate() error {
	if s.BaseURL == "" {
		return ErrNoBaseURL
	}
	if s.RefreshInterval <= 0 {
		return fmt.Errorf("refresh_interval must be positive, got %s", s.RefreshInterval)
	}
	return nil
}

// SaveBaseURL stores the backend URL (and optionally a cache directory) in
// the config file, creating the file when needed.
func SaveBaseURL(baseURL, cacheDir string) error {
	viper.Set(KeyBaseURL, strings.TrimRight(baseURL, "/"))
	if cacheDir != "" {
		viper.Set(KeyCacheDir, cacheDir)
	}

	if err := viper.WriteConfig(); err != nil {
		// If file doesn't exist, create it
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return viper.SafeWriteConfig()
		}
		home, _ := os.UserHomeDir()
		path := filepath.Join(home, configName+".yaml")
		return viper.WriteConfigAs(path)
	}
	return nil
}
