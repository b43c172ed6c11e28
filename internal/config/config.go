// Package config loads settings from the config file, TICKETS_* environment
// variables and command-line flags, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/chpines/hotspot-tickets/internal/device"
	"github.com/chpines/hotspot-tickets/internal/layout"
	"github.com/chpines/hotspot-tickets/internal/platform"
)

// EnvPrefix prefixes every environment override, e.g. TICKETS_DEVICE_HOST.
const EnvPrefix = "TICKETS"

type Config struct {
	Device     DeviceConfig     `mapstructure:"device"`
	Generation GenerationConfig `mapstructure:"generation"`
	Layout     LayoutConfig     `mapstructure:"layout"`
	Export     ExportConfig     `mapstructure:"export"`
	Logger     LoggerConfig     `mapstructure:"logger"`
}

type DeviceConfig struct {
	Host              string        `mapstructure:"host"`
	Username          string        `mapstructure:"username"`
	Password          string        `mapstructure:"password"`
	Port              int           `mapstructure:"port"`
	Timeout           time.Duration `mapstructure:"timeout"`
	KnownHosts        string        `mapstructure:"known_hosts"`
	CommandsPerSecond float64       `mapstructure:"commands_per_second"`
}

// Target converts the settings into a dial target.
func (d DeviceConfig) Target() device.Target {
	return device.Target{
		Host:           d.Host,
		Port:           d.Port,
		Username:       d.Username,
		Password:       d.Password,
		Timeout:        d.Timeout,
		KnownHostsPath: d.KnownHosts,
	}
}

type GenerationConfig struct {
	Prefix          string `mapstructure:"prefix"`
	Quantity        int    `mapstructure:"quantity"`
	Profile         string `mapstructure:"profile"`
	Duration        string `mapstructure:"duration"`
	Type            string `mapstructure:"type"`
	UniqueUsernames bool   `mapstructure:"unique_usernames"`
}

type LayoutConfig struct {
	RowsPerPage  int `mapstructure:"rows_per_page"`
	ColumnPairs  int `mapstructure:"column_pairs"`
	GroupGapRows int `mapstructure:"group_gap_rows"`
}

// Geometry returns the packer geometry, with invalid values replaced by defaults.
func (l LayoutConfig) Geometry() layout.Geometry {
	return layout.Geometry{
		RowsPerPage:  l.RowsPerPage,
		ColumnPairs:  l.ColumnPairs,
		GroupGapRows: l.GroupGapRows,
	}.Normalize()
}

type ExportConfig struct {
	Template     string `mapstructure:"template"`
	KeepXLSX     bool   `mapstructure:"keep_xlsx"`
	OfficeBinary string `mapstructure:"office_binary"`
}

type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
}

// New returns a viper instance with defaults and environment lookup set up.
func New() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("device.host", "192.168.88.1")
	v.SetDefault("device.username", "admin")
	v.SetDefault("device.password", "")
	v.SetDefault("device.port", 22)
	v.SetDefault("device.timeout", device.DefaultTimeout)
	v.SetDefault("device.known_hosts", "")
	v.SetDefault("device.commands_per_second", 0.0)

	v.SetDefault("generation.prefix", "H")
	v.SetDefault("generation.quantity", 1000)
	v.SetDefault("generation.profile", device.DefaultProfile)
	v.SetDefault("generation.duration", "1h")
	v.SetDefault("generation.type", "user_only")
	v.SetDefault("generation.unique_usernames", true)

	v.SetDefault("layout.rows_per_page", layout.DefaultGeometry.RowsPerPage)
	v.SetDefault("layout.column_pairs", layout.DefaultGeometry.ColumnPairs)
	v.SetDefault("layout.group_gap_rows", layout.DefaultGeometry.GroupGapRows)

	v.SetDefault("export.template", "Plantilla.xlsx")
	v.SetDefault("export.keep_xlsx", true)
	v.SetDefault("export.office_binary", "")

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.output_path", "stderr")
}

// DefaultPath is ~/.hotspot-tickets/config.yaml.
func DefaultPath() (string, error) {
	dir, err := platform.AppDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// Bind maps flags onto config keys, e.g. {"device.host": "host"}. Flags the
// user did not set leave the file and environment values in place.
func Bind(v *viper.Viper, flags *pflag.FlagSet, keys map[string]string) error {
	for key, name := range keys {
		f := flags.Lookup(name)
		if f == nil {
			return fmt.Errorf("bind %s: unknown flag --%s", key, name)
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("bind %s: %w", key, err)
		}
	}
	return nil
}

// Load reads path into v and decodes the result. An empty path tries the
// default location and tolerates its absence; an explicit path must exist.
func Load(v *viper.Viper, path string) (*Config, error) {
	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else if def, err := DefaultPath(); err == nil {
		v.SetConfigName("config")
		v.AddConfigPath(filepath.Dir(def))
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}
