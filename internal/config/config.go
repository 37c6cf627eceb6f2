// Package config loads the YAML configuration for elasticswap runs.
//
// Resolution order: built-in defaults, then the file given with --config or
// the first of SearchPaths that exists, then applyDefaults for any zeroed
// field, then Validate. Command-line flags override individual fields after
// Load returns.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/diegomarron/ElasticSwapRandomForest/internal/domain/controller"
	"github.com/diegomarron/ElasticSwapRandomForest/internal/domain/elastic"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// SearchPaths are tried in order when no explicit path is given.
var SearchPaths = []string{"elasticswap.yaml", "configs/elasticswap.yaml"}

// Advisor names.
const (
	AdvisorEMA     = "ema"
	AdvisorMcNemar = "mcnemar"
)

// Drift detector names.
const (
	DriftDDM  = "ddm"
	DriftNone = "none"
)

// LearnerNaiveBayes is the only shipped base learner.
const LearnerNaiveBayes = "naive-bayes"

type Config struct {
	Ensemble EnsembleConfig `yaml:"ensemble"`
	Learner  LearnerConfig  `yaml:"learner"`
	Drift    DriftConfig    `yaml:"drift"`
	Run      RunConfig      `yaml:"run"`
	Storage  StorageConfig  `yaml:"storage"`
	Log      LogConfig      `yaml:"log"`
}

type EnsembleConfig struct {
	Variant          string  `yaml:"variant"`            // arf | one-front | grow-front | swap-only
	Advisor          string  `yaml:"advisor"`            // ema | mcnemar (ignored by swap-only)
	Lambda           float64 `yaml:"lambda"`             // Poisson bagging intensity, >= 1
	FrontSize        int     `yaml:"front_size"`         // initial voting learners
	CandidateSize    int     `yaml:"candidate_size"`     // background learners
	MaxSize          int     `yaml:"max_size"`           // cap over all groups
	FrontMinSize     int     `yaml:"front_min_size"`     // front never shrinks below this
	CandidateMinSize int     `yaml:"candidate_min_size"` // candidate floor
	ResizeFactor     int     `yaml:"resize_factor"`      // learners moved per grow/shrink
	ElasticInterval  int     `yaml:"elastic_interval"`   // instances between resize checks
	ShrinkThreshold  float64 `yaml:"shrink_threshold"`   // EMA gain needed to shrink
	GrowThreshold    float64 `yaml:"grow_threshold"`     // EMA gain needed to grow

	// McNemar cutoff. McNemarSignificance, when set, takes precedence and is
	// converted with the chi-square(1) quantile (0.95 -> 3.84, 0.90 -> 2.71).
	McNemarCritical     float64 `yaml:"mcnemar_critical"`
	McNemarSignificance float64 `yaml:"mcnemar_significance"`
}

type LearnerConfig struct {
	Type     string `yaml:"type"`
	Subspace int    `yaml:"subspace"` // features per learner; 0 = round(sqrt(n))+1
}

type DriftConfig struct {
	Type         string  `yaml:"type"` // ddm | none
	WarningLevel float64 `yaml:"warning_level"`
	DriftLevel   float64 `yaml:"drift_level"`
	MinInstances int     `yaml:"min_instances"`
}

type RunConfig struct {
	Seed       int64 `yaml:"seed"`
	LogEvery   int   `yaml:"log_every"`   // progress log period in instances
	CurveEvery int   `yaml:"curve_every"` // learning-curve sample period
	Window     int   `yaml:"window"`      // sliding accuracy window
}

type StorageConfig struct {
	Path string `yaml:"path"` // bbolt file holding run records
}

type LogConfig struct {
	Level  string `yaml:"level"`  // trace | debug | info | warn | error
	Format string `yaml:"format"` // console | json
}

// Default returns the built-in configuration.
func Default() *Config {
	p := controller.DefaultParams()
	return &Config{
		Ensemble: EnsembleConfig{
			Variant:          string(controller.VariantARF),
			Advisor:          AdvisorEMA,
			Lambda:           p.Lambda,
			FrontSize:        p.FrontSize,
			CandidateSize:    p.CandidateSize,
			MaxSize:          p.MaxSize,
			FrontMinSize:     p.FrontMinSize,
			CandidateMinSize: p.CandidateMinSize,
			ResizeFactor:     p.ResizeFactor,
			ElasticInterval:  p.ElasticInterval,
			ShrinkThreshold:  p.ShrinkThreshold,
			GrowThreshold:    p.GrowThreshold,
			McNemarCritical:  elastic.DefaultCritical,
		},
		Learner: LearnerConfig{Type: LearnerNaiveBayes},
		Drift: DriftConfig{
			Type:         DriftDDM,
			WarningLevel: 2.0,
			DriftLevel:   3.0,
			MinInstances: 30,
		},
		Run: RunConfig{
			Seed:       1,
			LogEvery:   10000,
			CurveEvery: 1000,
			Window:     1000,
		},
		Storage: StorageConfig{Path: "elasticswap.db"},
		Log:     LogConfig{Level: "info", Format: "console"},
	}
}

// Load reads configPath, or the first of SearchPaths when configPath is
// empty. A missing search path is not an error; a missing explicit path is.
func Load(configPath string) (*Config, error) {
	cfg := Default()

	if configPath == "" {
		for _, p := range SearchPaths {
			data, err := os.ReadFile(p)
			if err != nil {
				continue
			}
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return cfg, fmt.Errorf("parse %s: %w", p, err)
			}
			break
		}
	} else {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", configPath, err)
		}
	}

	applyDefaults(cfg)
	return cfg, cfg.Validate()
}

// applyDefaults fills fields that a partial file left at zero and that have
// no meaningful zero value.
func applyDefaults(cfg *Config) {
	d := Default()
	e := &cfg.Ensemble
	if e.Variant == "" {
		e.Variant = d.Ensemble.Variant
	}
	if e.Advisor == "" {
		e.Advisor = d.Ensemble.Advisor
	}
	if e.Lambda == 0 {
		e.Lambda = d.Ensemble.Lambda
	}
	if e.MaxSize == 0 {
		e.MaxSize = d.Ensemble.MaxSize
	}
	if e.ResizeFactor == 0 {
		e.ResizeFactor = d.Ensemble.ResizeFactor
	}
	if e.ElasticInterval == 0 {
		e.ElasticInterval = d.Ensemble.ElasticInterval
	}
	if e.McNemarCritical == 0 {
		e.McNemarCritical = d.Ensemble.McNemarCritical
	}
	if cfg.Learner.Type == "" {
		cfg.Learner.Type = d.Learner.Type
	}
	if cfg.Drift.Type == "" {
		cfg.Drift.Type = d.Drift.Type
	}
	if cfg.Drift.WarningLevel <= 0 {
		cfg.Drift.WarningLevel = d.Drift.WarningLevel
	}
	if cfg.Drift.DriftLevel <= 0 {
		cfg.Drift.DriftLevel = d.Drift.DriftLevel
	}
	if cfg.Drift.MinInstances <= 0 {
		cfg.Drift.MinInstances = d.Drift.MinInstances
	}
	if cfg.Run.LogEvery <= 0 {
		cfg.Run.LogEvery = d.Run.LogEvery
	}
	if cfg.Run.CurveEvery <= 0 {
		cfg.Run.CurveEvery = d.Run.CurveEvery
	}
	if cfg.Run.Window <= 0 {
		cfg.Run.Window = d.Run.Window
	}
	if cfg.Storage.Path == "" {
		cfg.Storage.Path = d.Storage.Path
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = d.Log.Level
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = d.Log.Format
	}
}

// Validate reports every problem at once, wrapped in ErrInvalid.
func (c *Config) Validate() error {
	var problems []string
	add := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	e := c.Ensemble
	v, err := controller.ParseVariant(e.Variant)
	if err != nil {
		add("ensemble.variant %q: expected one of %s", e.Variant, variantNames())
	}
	if e.Advisor != AdvisorEMA && e.Advisor != AdvisorMcNemar {
		add("ensemble.advisor %q: expected %s or %s", e.Advisor, AdvisorEMA, AdvisorMcNemar)
	}
	if err == nil {
		if perr := c.Params().Validate(v); perr != nil {
			add("%s", strings.TrimPrefix(perr.Error(), controller.ErrInvalidParams.Error()+": "))
		}
	}
	if e.MaxSize < e.FrontMinSize {
		add("ensemble.max_size %d is below front_min_size %d", e.MaxSize, e.FrontMinSize)
	}
	if e.McNemarCritical <= 0 {
		add("ensemble.mcnemar_critical must be positive")
	}
	if s := e.McNemarSignificance; s != 0 && !(s > 0 && s < 1) {
		add("ensemble.mcnemar_significance %v: must be in (0, 1)", s)
	}
	if c.Learner.Type != LearnerNaiveBayes {
		add("learner.type %q: expected %s", c.Learner.Type, LearnerNaiveBayes)
	}
	if c.Learner.Subspace < 0 {
		add("learner.subspace must not be negative")
	}
	if c.Drift.Type != DriftDDM && c.Drift.Type != DriftNone {
		add("drift.type %q: expected %s or %s", c.Drift.Type, DriftDDM, DriftNone)
	}
	if c.Drift.DriftLevel < c.Drift.WarningLevel {
		add("drift.drift_level %v is below warning_level %v", c.Drift.DriftLevel, c.Drift.WarningLevel)
	}
	if c.Log.Format != "console" && c.Log.Format != "json" {
		add("log.format %q: expected console or json", c.Log.Format)
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(problems, "; "))
	}
	return nil
}

// Params converts the ensemble section for the controller.
func (c *Config) Params() controller.Params {
	e := c.Ensemble
	return controller.Params{
		Lambda:           e.Lambda,
		FrontSize:        e.FrontSize,
		CandidateSize:    e.CandidateSize,
		MaxSize:          e.MaxSize,
		FrontMinSize:     e.FrontMinSize,
		CandidateMinSize: e.CandidateMinSize,
		ResizeFactor:     e.ResizeFactor,
		ElasticInterval:  e.ElasticInterval,
		GrowThreshold:    e.GrowThreshold,
		ShrinkThreshold:  e.ShrinkThreshold,
	}
}

// Critical returns the McNemar cutoff in effect.
func (c *Config) Critical() (float64, error) {
	if s := c.Ensemble.McNemarSignificance; s != 0 {
		return elastic.CriticalValue(s)
	}
	return c.Ensemble.McNemarCritical, nil
}

// Advisor builds the resize advisor selected by the ensemble section.
func (c *Config) Advisor() (elastic.Advisor, error) {
	switch c.Ensemble.Advisor {
	case AdvisorEMA:
		return elastic.NewEMAAdvisor(
			elastic.WithGrowThreshold(c.Ensemble.GrowThreshold),
			elastic.WithShrinkThreshold(c.Ensemble.ShrinkThreshold),
		), nil
	case AdvisorMcNemar:
		crit, err := c.Critical()
		if err != nil {
			return nil, err
		}
		return elastic.NewMcNemarAdvisor(elastic.WithCritical(crit)), nil
	default:
		return nil, fmt.Errorf("%w: advisor %q", ErrInvalid, c.Ensemble.Advisor)
	}
}

// Map flattens the ensemble section for storing alongside a run.
func (c *Config) Map() map[string]any {
	data, err := yaml.Marshal(c.Ensemble)
	if err != nil {
		return nil
	}
	out := make(map[string]any)
	if err := yaml.Unmarshal(data, &out); err != nil {
		return nil
	}
	return out
}

func variantNames() string {
	names := make([]string, len(controller.Variants))
	for i, v := range controller.Variants {
		names[i] = string(v)
	}
	return strings.Join(names, ", ")
}
