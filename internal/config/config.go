package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/cast"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/KaramelBytes/profilestat-cli/internal/utils"
)

// Global configuration structure.
type Global struct {
	InputPath  string `mapstructure:"input_path" yaml:"input_path" validate:"required"`
	DatasetDir string `mapstructure:"dataset_dir" yaml:"dataset_dir" validate:"required"`
	ImgDir     string `mapstructure:"img_dir" yaml:"img_dir" validate:"required"`
	ExportDir  string `mapstructure:"export_dir" yaml:"export_dir" validate:"required"`
	// SQLitePath is where cleaned rows are stored; empty disables the export.
	SQLitePath string `mapstructure:"sqlite_path" yaml:"sqlite_path"`

	Delimiter string `mapstructure:"delimiter" yaml:"delimiter" validate:"omitempty,len=1"`
	Sheet     string `mapstructure:"sheet" yaml:"sheet"`

	StrictSentiment bool    `mapstructure:"strict_sentiment" yaml:"strict_sentiment"`
	Alpha           float64 `mapstructure:"alpha" yaml:"alpha" validate:"gt=0,lt=1"`

	PlotWidthCM  float64 `mapstructure:"plot_width_cm" yaml:"plot_width_cm" validate:"gt=0"`
	PlotHeightCM float64 `mapstructure:"plot_height_cm" yaml:"plot_height_cm" validate:"gt=0"`

	LogLevel  string `mapstructure:"log_level" yaml:"log_level" validate:"oneof=debug info warn error"`
	LogFormat string `mapstructure:"log_format" yaml:"log_format" validate:"oneof=text json"`
}

// Keys lists the settable configuration keys in display order.
var Keys = []string{
	"input_path", "dataset_dir", "img_dir", "export_dir", "sqlite_path",
	"delimiter", "sheet", "strict_sentiment", "alpha",
	"plot_width_cm", "plot_height_cm", "log_level", "log_format",
}

var defaults = map[string]any{
	"input_path":       filepath.Join("dataset", "users.db.csv"),
	"dataset_dir":      "dataset",
	"img_dir":          "img",
	"export_dir":       "export",
	"sqlite_path":      filepath.Join("export", "profiles.db"),
	"delimiter":        "",
	"sheet":            "",
	"strict_sentiment": false,
	"alpha":            0.05,
	"plot_width_cm":    16.0,
	"plot_height_cm":   12.0,
	"log_level":        "info",
	"log_format":       "text",
}

var validate = validator.New()

// Validate checks field constraints.
func (c *Global) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// DelimiterRune returns the configured CSV delimiter, 0 to sniff.
func (c *Global) DelimiterRune() rune {
	if c.Delimiter == "" {
		return 0
	}
	return []rune(c.Delimiter)[0]
}

// Get renders the value of key as text.
func (c *Global) Get(key string) (string, error) {
	switch key {
	case "input_path":
		return c.InputPath, nil
	case "dataset_dir":
		return c.DatasetDir, nil
	case "img_dir":
		return c.ImgDir, nil
	case "export_dir":
		return c.ExportDir, nil
	case "sqlite_path":
		return c.SQLitePath, nil
	case "delimiter":
		if c.Delimiter == "\t" {
			return "tab", nil
		}
		return c.Delimiter, nil
	case "sheet":
		return c.Sheet, nil
	case "strict_sentiment":
		return cast.ToString(c.StrictSentiment), nil
	case "alpha":
		return cast.ToString(c.Alpha), nil
	case "plot_width_cm":
		return cast.ToString(c.PlotWidthCM), nil
	case "plot_height_cm":
		return cast.ToString(c.PlotHeightCM), nil
	case "log_level":
		return c.LogLevel, nil
	case "log_format":
		return c.LogFormat, nil
	}
	return "", fmt.Errorf("unknown key: %s", key)
}

// Set parses val into key and validates the result. On error c is unchanged.
func (c *Global) Set(key, val string) error {
	next := *c
	var err error
	switch key {
	case "input_path":
		next.InputPath = val
	case "dataset_dir":
		next.DatasetDir = val
	case "img_dir":
		next.ImgDir = val
	case "export_dir":
		next.ExportDir = val
	case "sqlite_path":
		next.SQLitePath = val
	case "delimiter":
		switch strings.ToLower(val) {
		case "tab", `\t`:
			val = "\t"
		case "auto":
			val = ""
		}
		next.Delimiter = val
	case "sheet":
		next.Sheet = val
	case "strict_sentiment":
		next.StrictSentiment, err = cast.ToBoolE(val)
	case "alpha":
		next.Alpha, err = cast.ToFloat64E(val)
	case "plot_width_cm":
		next.PlotWidthCM, err = cast.ToFloat64E(val)
	case "plot_height_cm":
		next.PlotHeightCM, err = cast.ToFloat64E(val)
	case "log_level":
		next.LogLevel = strings.ToLower(val)
	case "log_format":
		next.LogFormat = strings.ToLower(val)
	default:
		return fmt.Errorf("unknown key: %s", key)
	}
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	if err := next.Validate(); err != nil {
		return err
	}
	*c = next
	return nil
}

func defaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".profilestat"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.profilestat/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		dir, err := defaultDir()
		if err != nil {
			return err
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir config dir: %w", err)
		}
		path = filepath.Join(dir, "config.yaml")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: env > config file > defaults. A missing file is not an error.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("PROFILESTAT")
	v.AutomaticEnv()
	for k, d := range defaults {
		v.SetDefault(k, d)
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		dir, err := defaultDir()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	for _, p := range []*string{&c.InputPath, &c.DatasetDir, &c.ImgDir, &c.ExportDir, &c.SQLitePath} {
		*p = utils.ExpandHome(*p)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}
