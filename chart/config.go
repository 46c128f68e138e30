package chart

import (
	"time"

	"github.com/sgostarter/libtimechart/datasource"
	"github.com/sgostarter/libtimechart/decimation"
	"github.com/sgostarter/libtimechart/gaps"
	"github.com/sgostarter/libtimechart/transform"
	"gopkg.in/yaml.v3"
)

const (
	DefaultPointsPerPixel = 2
	DefaultCacheTTL       = 2 * time.Second
	DefaultTickCount      = 10
	minBudget             = 4
)

// Config is the series configuration as it appears in YAML:
//
//	mode: m4
//	points_per_pixel: 2
//	cache_ttl: 2s
//	y_scale: linear
//	auto_scale_y: true
//	streaming:
//	  capacity: 100000
//	  auto_commit: true
//	  commit_period: 1s
//	horizon:
//	  padding: 1
//	rules:
//	  - kind: weekly
//	    days: [sat, sun]
//	    start: "00:00"
//	    end: "24:00"
type Config struct {
	Mode           decimation.Mode     `json:"mode" yaml:"mode"`
	PointsPerPixel float64             `json:"points_per_pixel" yaml:"points_per_pixel"`
	CacheTTL       time.Duration       `json:"cache_ttl" yaml:"cache_ttl"`
	TickCount      int                 `json:"tick_count" yaml:"tick_count"`
	YScale         transform.ScaleKind `json:"y_scale" yaml:"y_scale"`
	YMargin        float64             `json:"y_margin" yaml:"y_margin"`
	AutoScaleY     bool                `json:"auto_scale_y" yaml:"auto_scale_y"`
	XLimits        transform.Limits    `json:"x_limits" yaml:"x_limits"`
	YLimits        transform.Limits    `json:"y_limits" yaml:"y_limits"`

	Streaming datasource.StreamingConfig `json:"streaming" yaml:"streaming"`
	Horizon   gaps.MapperConfig          `json:"horizon" yaml:"horizon"`
	Rules     []gaps.RuleConfig          `json:"rules" yaml:"rules"`
}

func ParseConfigYAML(d []byte) (cfg Config, err error) {
	err = yaml.Unmarshal(d, &cfg)
	if err != nil {
		return
	}

	cfg.fix()

	return
}

// ExclusionRules converts the configured rules.
func (cfg *Config) ExclusionRules() ([]gaps.Rule, error) {
	return gaps.RulesConfig{Rules: cfg.Rules}.ToRules()
}

func (cfg *Config) fix() {
	if cfg.PointsPerPixel <= 0 {
		cfg.PointsPerPixel = DefaultPointsPerPixel
	}

	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = DefaultCacheTTL
	}

	if cfg.TickCount <= 0 {
		cfg.TickCount = DefaultTickCount
	}

	if cfg.YMargin <= 0 {
		cfg.YMargin = transform.DefaultMargin
	}
}
