// Package config loads .covreport.yaml and layers environment variables and
// command-line flags over it.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/felixgeelhaar/covreport/internal/application"
	"github.com/felixgeelhaar/covreport/internal/domain"
)

// DefaultPath is the config file looked up when none is given.
const DefaultPath = ".covreport.yaml"

// EnvPrefix prefixes every environment override.
const EnvPrefix = "COVREPORT"

type fileConfig struct {
	Title              string                      `yaml:"title,omitempty"`
	Files              []string                    `yaml:"files"`
	Types              []string                    `yaml:"types,omitempty"`
	Titles             []string                    `yaml:"titles,omitempty"`
	ReplaceBackslashes bool                        `yaml:"replaceBackslashes"`
	FailOnUnmet        bool                        `yaml:"failOnUnmet"`
	DisableComment     bool                        `yaml:"disableComment,omitempty"`
	Concurrency        int                         `yaml:"concurrency,omitempty"`
	Thresholds         domain.CoverageRequirements `yaml:"thresholds"`
}

// Config keys. Nested keys map to COVREPORT_THRESHOLDS_FILE_ERROR and so on.
const (
	keyTitle              = "title"
	keyFiles              = "files"
	keyTypes              = "types"
	keyTitles             = "titles"
	keyReplaceBackslashes = "replaceBackslashes"
	keyFailOnUnmet        = "failOnUnmet"
	keyDisableComment     = "disableComment"
	keyConcurrency        = "concurrency"
	keyFileError          = "thresholds.file.error"
	keyFileWarn           = "thresholds.file.warn"
	keyReportError        = "thresholds.report.error"
	keyReportWarn         = "thresholds.report.warn"
	keyGlobalError        = "thresholds.global.error"
	keyGlobalWarn         = "thresholds.global.warn"
)

// camelEnv names the variables of camelCase keys, which AutomaticEnv would
// otherwise expect without separators.
var camelEnv = map[string]string{
	keyReplaceBackslashes: EnvPrefix + "_REPLACE_BACKSLASHES",
	keyFailOnUnmet:        EnvPrefix + "_FAIL_ON_UNMET",
	keyDisableComment:     EnvPrefix + "_DISABLE_COMMENT",
}

// FlagKeys maps command-line flag names to config keys.
var FlagKeys = map[string]string{
	"title":               keyTitle,
	"replace-backslashes": keyReplaceBackslashes,
	"fail-on-unmet":       keyFailOnUnmet,
	"disable-comment":     keyDisableComment,
	"concurrency":         keyConcurrency,
	"file-error":          keyFileError,
	"file-warn":           keyFileWarn,
	"report-error":        keyReportError,
	"report-warn":         keyReportWarn,
	"global-error":        keyGlobalError,
	"global-warn":         keyGlobalWarn,
}

// Loader implements application.ConfigLoader.
type Loader struct {
	flags *pflag.FlagSet
}

// NewLoader returns a loader without flag overrides.
func NewLoader() *Loader {
	return &Loader{}
}

// BindFlags makes the flags of fs that appear in FlagKeys override the file
// and the environment when they are set.
func (l *Loader) BindFlags(fs *pflag.FlagSet) {
	l.flags = fs
}

func (l *Loader) Exists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, err
}

// Load reads the config file at path, if any, and applies environment and
// flag overrides. An empty path loads overrides only.
func (l *Loader) Load(path string) (application.Config, error) {
	v := viper.New()

	if path != "" {
		fc, err := readFile(path)
		if err != nil {
			return application.Config{}, err
		}
		seed(v, fc)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, env := range camelEnv {
		if err := v.BindEnv(key, env); err != nil {
			return application.Config{}, fmt.Errorf("bind %s: %w", env, err)
		}
	}

	if l.flags != nil {
		for name, key := range FlagKeys {
			f := l.flags.Lookup(name)
			if f == nil {
				continue
			}
			if err := v.BindPFlag(key, f); err != nil {
				return application.Config{}, fmt.Errorf("bind flag %s: %w", name, err)
			}
		}
	}

	types := v.GetStringSlice(keyTypes)
	cfg := application.Config{
		Title:              v.GetString(keyTitle),
		Files:              v.GetStringSlice(keyFiles),
		Types:              make([]domain.ReportType, len(types)),
		Titles:             v.GetStringSlice(keyTitles),
		ReplaceBackslashes: v.GetBool(keyReplaceBackslashes),
		FailOnUnmet:        v.GetBool(keyFailOnUnmet),
		DisableComment:     v.GetBool(keyDisableComment),
		Concurrency:        v.GetInt(keyConcurrency),
		Requirements: domain.CoverageRequirements{
			File:   domain.CoverageRequirement{Error: v.GetFloat64(keyFileError), Warn: v.GetFloat64(keyFileWarn)},
			Report: domain.CoverageRequirement{Error: v.GetFloat64(keyReportError), Warn: v.GetFloat64(keyReportWarn)},
			Global: domain.CoverageRequirement{Error: v.GetFloat64(keyGlobalError), Warn: v.GetFloat64(keyGlobalWarn)},
		},
	}
	for i, t := range types {
		cfg.Types[i] = domain.ReportType(t)
	}
	if cfg.Concurrency < 0 {
		return application.Config{}, fmt.Errorf("concurrency must not be negative, got %d", cfg.Concurrency)
	}
	if err := cfg.Requirements.Validate(); err != nil {
		return application.Config{}, err
	}
	return cfg, nil
}

func readFile(path string) (fileConfig, error) {
	raw, err := os.ReadFile(path) // #nosec G304 - path is user config
	if err != nil {
		return fileConfig{}, err
	}

	var fc fileConfig
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&fc); err != nil && !errors.Is(err, io.EOF) {
		return fileConfig{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return fc, nil
}

// seed stores the file values as the lowest layer.
func seed(v *viper.Viper, fc fileConfig) {
	v.SetDefault(keyTitle, fc.Title)
	v.SetDefault(keyFiles, fc.Files)
	v.SetDefault(keyTypes, fc.Types)
	v.SetDefault(keyTitles, fc.Titles)
	v.SetDefault(keyReplaceBackslashes, fc.ReplaceBackslashes)
	v.SetDefault(keyFailOnUnmet, fc.FailOnUnmet)
	v.SetDefault(keyDisableComment, fc.DisableComment)
	v.SetDefault(keyConcurrency, fc.Concurrency)
	v.SetDefault(keyFileError, fc.Thresholds.File.Error)
	v.SetDefault(keyFileWarn, fc.Thresholds.File.Warn)
	v.SetDefault(keyReportError, fc.Thresholds.Report.Error)
	v.SetDefault(keyReportWarn, fc.Thresholds.Report.Warn)
	v.SetDefault(keyGlobalError, fc.Thresholds.Global.Error)
	v.SetDefault(keyGlobalWarn, fc.Thresholds.Global.Warn)
}

// Write encodes cfg as a config file.
func Write(w io.Writer, cfg application.Config) error {
	out := fileConfig{
		Title:              cfg.Title,
		Files:              cfg.Files,
		Titles:             cfg.Titles,
		ReplaceBackslashes: cfg.ReplaceBackslashes,
		FailOnUnmet:        cfg.FailOnUnmet,
		DisableComment:     cfg.DisableComment,
		Concurrency:        cfg.Concurrency,
		Thresholds:         cfg.Requirements,
	}
	for _, t := range cfg.Types {
		out.Types = append(out.Types, t.String())
	}
	if out.Files == nil {
		out.Files = []string{}
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	return enc.Encode(out)
}
