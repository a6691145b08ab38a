package config

import (
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/stackgen-labs/stackgen/internal/installer"
	"github.com/stackgen-labs/stackgen/internal/logging"
)

// Config keys.
const (
	KeyProjectName    = "project_name"
	KeyDir            = "dir"
	KeyTemplate       = "template"
	KeyPackageManager = "package_manager"
	KeySkipInstall    = "skip_install"
	KeySkipPatch      = "skip_patch"
	KeyParallel       = "parallel"
	KeyInstallTimeout = "install_timeout"
	KeyLogLevel       = "log_level"
	KeyLogFormat      = "log_format"
)

// Defaults.
const (
	DefaultDir            = "."
	DefaultTemplate       = "base"
	DefaultPackageManager = installer.ManagerNPM
	DefaultInstallTimeout = 10 * time.Minute
	DefaultLogLevel       = "info"
)

var namePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// Keys returns every recognized config key.
func Keys() []string {
	return []string{
		KeyProjectName, KeyDir, KeyTemplate, KeyPackageManager,
		KeySkipInstall, KeySkipPatch, KeyParallel, KeyInstallTimeout,
		KeyLogLevel, KeyLogFormat,
	}
}

func setDefaults() {
	viper.SetDefault(KeyDir, DefaultDir)
	viper.SetDefault(KeyTemplate, DefaultTemplate)
	viper.SetDefault(KeyPackageManager, DefaultPackageManager)
	viper.SetDefault(KeySkipInstall, false)
	viper.SetDefault(KeySkipPatch, false)
	viper.SetDefault(KeyParallel, false)
	viper.SetDefault(KeyInstallTimeout, DefaultInstallTimeout.String())
	viper.SetDefault(KeyLogLevel, DefaultLogLevel)
	viper.SetDefault(KeyLogFormat, logging.FormatText)
}

// Options are the resolved settings for one scaffold run.
type Options struct {
	// ProjectName may be empty; the caller prompts for it.
	ProjectName    string
	Dir            string
	Template       string
	PackageManager string
	SkipInstall    bool
	SkipPatch      bool
	Parallel       bool
	InstallTimeout time.Duration
	LogLevel       string
	LogFormat      string
}

// ResolveOptions reads every key from Viper and validates the result.
func ResolveOptions() (Options, error) {
	timeout, err := parseDuration(viper.GetString(KeyInstallTimeout))
	if err != nil {
		return Options{}, err
	}

	opts := Options{
		ProjectName:    strings.TrimSpace(viper.GetString(KeyProjectName)),
		Dir:            viper.GetString(KeyDir),
		Template:       viper.GetString(KeyTemplate),
		PackageManager: viper.GetString(KeyPackageManager),
		SkipInstall:    viper.GetBool(KeySkipInstall),
		SkipPatch:      viper.GetBool(KeySkipPatch),
		Parallel:       viper.GetBool(KeyParallel),
		InstallTimeout: timeout,
		LogLevel:       viper.GetString(KeyLogLevel),
		LogFormat:      viper.GetString(KeyLogFormat),
	}
	if opts.Dir == "" {
		opts.Dir = DefaultDir
	}
	if opts.Template == "" {
		opts.Template = DefaultTemplate
	}
	if opts.PackageManager == "" {
		opts.PackageManager = DefaultPackageManager
	}

	if err := opts.Validate(); err != nil {
		return Options{}, err
	}
	return opts, nil
}

// Validate checks every option that has a constrained value. An empty
// ProjectName is accepted.
func (o Options) Validate() error {
	if o.ProjectName != "" {
		if err := ValidateName(o.ProjectName); err != nil {
			return err
		}
	}
	if !slices.Contains(installer.Managers(), o.PackageManager) {
		return fmt.Errorf("%s %q is not one of %s", KeyPackageManager, o.PackageManager, strings.Join(installer.Managers(), ", "))
	}
	if o.InstallTimeout < 0 {
		return fmt.Errorf("%s must not be negative", KeyInstallTimeout)
	}
	if o.LogFormat != "" && o.LogFormat != logging.FormatText && o.LogFormat != logging.FormatJSON {
		return fmt.Errorf("%s %q must be %s or %s", KeyLogFormat, o.LogFormat, logging.FormatText, logging.FormatJSON)
	}
	if o.LogLevel != "" {
		if _, err := zerolog.ParseLevel(strings.ToLower(o.LogLevel)); err != nil {
			return fmt.Errorf("%s %q: %w", KeyLogLevel, o.LogLevel, err)
		}
	}
	return nil
}

// ValidateName checks that name can be used as a project directory name.
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("project name is required")
	}
	if !namePattern.MatchString(name) {
		return fmt.Errorf("invalid project name %q: use letters, digits, '.', '_' or '-', starting with a letter or digit", name)
	}
	return nil
}

func checkValue(key, value string) error {
	switch key {
	case KeyProjectName:
		return ValidateName(value)
	case KeyDir, KeyTemplate:
		if value == "" {
			return fmt.Errorf("%s must not be empty", key)
		}
		return nil
	case KeySkipInstall, KeySkipPatch, KeyParallel:
		if _, err := strconv.ParseBool(value); err != nil {
			return fmt.Errorf("%s must be true or false, got %q", key, value)
		}
		return nil
	case KeyInstallTimeout:
		_, err := parseDuration(value)
		return err
	case KeyPackageManager, KeyLogLevel, KeyLogFormat:
		o := Options{PackageManager: DefaultPackageManager}
		switch key {
		case KeyPackageManager:
			o.PackageManager = value
		case KeyLogLevel:
			o.LogLevel = value
		case KeyLogFormat:
			o.LogFormat = value
		}
		return o.Validate()
	default:
		return fmt.Errorf("unknown config key %q (known keys: %s)", key, strings.Join(Keys(), ", "))
	}
}

func parseDuration(s string) (time.Duration, error) {
	if s == "" {
		return DefaultInstallTimeout, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%s %q is not a duration: %w", KeyInstallTimeout, s, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s must not be negative", KeyInstallTimeout)
	}
	return d, nil
}
