// Package config loads vistrack pipeline settings from defaults, a YAML file
// and VISTRACK_ prefixed environment variables
package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"

	"github.com/swdee/go-vistrack/postprocess"
	"github.com/swdee/go-vistrack/tracker"
)

// envPrefix is stripped from environment variables, the remainder is
// lower cased with underscores becoming key separators, so
// VISTRACK_TRACKER_MATCHIOU sets tracker.matchiou
const envPrefix = "VISTRACK_"

// ModelConfig describes the detection Model and its inference engine
type ModelConfig struct {
	// Path is the ONNX model file
	Path        string `koanf:"path"`
	InputWidth  int    `koanf:"inputwidth"`
	InputHeight int    `koanf:"inputheight"`
	// Labels is a labels text or dataset YAML file, empty uses COCO labels
	Labels string `koanf:"labels"`
	// Backend and Target select the gocv DNN backend and target device
	Backend string `koanf:"backend"`
	Target  string `koanf:"target"`
	// PoolSize is the number of engines shared between streams
	PoolSize int `koanf:"poolsize"`
}

// DecoderConfig holds the class independent decoding filters
type DecoderConfig struct {
	GlobalMinConfidence float32 `koanf:"globalminconfidence"`
	MinBoxSide          int     `koanf:"minboxside"`
}

// RuleConfig is a complete class rule
type RuleConfig struct {
	Confidence   float32 `koanf:"confidence"`
	MinAreaRatio float32 `koanf:"minarearatio"`
	MaxAreaRatio float32 `koanf:"maxarearatio"`
	NMS          float32 `koanf:"nms"`
}

// OverrideConfig replaces the fields that are set on the rule of one class
type OverrideConfig struct {
	ID           int      `koanf:"id"`
	Confidence   *float32 `koanf:"confidence"`
	MinAreaRatio *float32 `koanf:"minarearatio"`
	MaxAreaRatio *float32 `koanf:"maxarearatio"`
	NMS          *float32 `koanf:"nms"`
}

// ClassesConfig builds the class rule table
type ClassesConfig struct {
	Default RuleConfig `koanf:"default"`
	// COCO starts from the built in COCO per class rules
	COCO      bool             `koanf:"coco"`
	Overrides []OverrideConfig `koanf:"overrides"`
}

// NMSConfig holds the suppression settings not tied to a class
type NMSConfig struct {
	CrossClassIoU float32 `koanf:"crossclassiou"`
}

// TrackerConfig holds the track store settings
type TrackerConfig struct {
	MatchIoU        float32 `koanf:"matchiou"`
	MaxMissedFrames int     `koanf:"maxmissedframes"`
	SmoothingAlpha  float32 `koanf:"smoothingalpha"`
	Mode            string  `koanf:"mode"`
}

// ServerConfig configures the streaming example server
type ServerConfig struct {
	Port int `koanf:"port"`
	// Source is a video file path or camera device number
	Source string `koanf:"source"`
	// TrailSize is the number of points drawn behind each track, zero
	// disables trails
	TrailSize int `koanf:"trailsize"`
}

// Config is the full vistrack configuration
type Config struct {
	Debug   bool          `koanf:"debug"`
	Model   ModelConfig   `koanf:"model"`
	Decoder DecoderConfig `koanf:"decoder"`
	Classes ClassesConfig `koanf:"classes"`
	NMS     NMSConfig     `koanf:"nms"`
	Tracker TrackerConfig `koanf:"tracker"`
	Server  ServerConfig  `koanf:"server"`
}

// defaults match the COCO YOLOv8 settings of the postprocess and tracker
// packages
func defaults() map[string]any {
	return map[string]any{
		"debug":                        false,
		"model.inputwidth":             640,
		"model.inputheight":            640,
		"model.backend":                "default",
		"model.target":                 "cpu",
		"model.poolsize":               1,
		"decoder.globalminconfidence":  0.25,
		"decoder.minboxside":           5,
		"classes.default.confidence":   postprocess.COCODefaultRule.Confidence,
		"classes.default.minarearatio": postprocess.COCODefaultRule.MinAreaRatio,
		"classes.default.maxarearatio": postprocess.COCODefaultRule.MaxAreaRatio,
		"classes.default.nms":          postprocess.COCODefaultRule.NMSThreshold,
		"classes.coco":                 true,
		"nms.crossclassiou":            0.8,
		"tracker.matchiou":             0.3,
		"tracker.maxmissedframes":      5,
		"tracker.smoothingalpha":       0.3,
		"tracker.mode":                 "greedy",
		"server.port":                  8080,
		"server.source":                "0",
		"server.trailsize":             30,
	}
}

// Load reads the configuration from defaults, then the YAML file at
// filePath if not empty, then the environment, and validates the result
func Load(filePath string) (*Config, error) {

	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("error loading defaults: %w", err)
	}

	if filePath != "" {
		if err := k.Load(file.Provider(filePath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error loading config file %s: %w", filePath, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(
			strings.TrimPrefix(s, envPrefix)), "_", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("error loading environment: %w", err)
	}

	cfg := &Config{}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("error decoding config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the configured values are in range
func (c *Config) Validate() error {

	var errs []error

	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}

	unit := func(v float32) bool { return v >= 0 && v <= 1 }

	check(c.Model.InputWidth > 0 && c.Model.InputHeight > 0,
		"model input size %dx%d must be positive", c.Model.InputWidth, c.Model.InputHeight)
	check(c.Model.PoolSize > 0, "model pool size %d must be positive", c.Model.PoolSize)
	check(unit(c.Decoder.GlobalMinConfidence),
		"global min confidence %v not in [0,1]", c.Decoder.GlobalMinConfidence)
	check(c.Decoder.MinBoxSide >= 0, "min box side %d is negative", c.Decoder.MinBoxSide)

	d := c.Classes.Default
	check(unit(d.Confidence), "default confidence %v not in [0,1]", d.Confidence)
	check(d.MinAreaRatio < d.MaxAreaRatio,
		"default area ratio window (%v, %v) is empty", d.MinAreaRatio, d.MaxAreaRatio)
	check(unit(d.NMS), "default nms threshold %v not in [0,1]", d.NMS)

	for _, o := range c.Classes.Overrides {
		check(o.ID >= 0, "class override id %d is negative", o.ID)
		if o.Confidence != nil {
			check(unit(*o.Confidence), "class %d confidence %v not in [0,1]", o.ID, *o.Confidence)
		}
		if o.NMS != nil {
			check(unit(*o.NMS), "class %d nms threshold %v not in [0,1]", o.ID, *o.NMS)
		}
	}

	// overrides may set one bound of the area window, so check the rule
	// they resolve to
	if len(c.Classes.Overrides) > 0 {
		table := c.ClassTable()

		for _, o := range c.Classes.Overrides {
			r := table.Lookup(o.ID)
			check(r.MinAreaRatio < r.MaxAreaRatio,
				"class %d area ratio window (%v, %v) is empty", o.ID, r.MinAreaRatio, r.MaxAreaRatio)
		}
	}

	check(unit(c.NMS.CrossClassIoU), "cross class iou %v not in [0,1]", c.NMS.CrossClassIoU)
	check(unit(c.Tracker.MatchIoU), "tracker match iou %v not in [0,1]", c.Tracker.MatchIoU)
	check(c.Tracker.MaxMissedFrames >= 0,
		"tracker max missed frames %d is negative", c.Tracker.MaxMissedFrames)
	check(unit(c.Tracker.SmoothingAlpha),
		"tracker smoothing alpha %v not in [0,1]", c.Tracker.SmoothingAlpha)

	if _, err := tracker.ParseMatchMode(c.Tracker.Mode); err != nil {
		errs = append(errs, err)
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	return nil
}

// ClassTable builds the class rule table from the default rule, the COCO
// rules when enabled, and the per class overrides
func (c *Config) ClassTable() postprocess.ClassTable {

	def := postprocess.ClassRule{
		Confidence:   c.Classes.Default.Confidence,
		MinAreaRatio: c.Classes.Default.MinAreaRatio,
		MaxAreaRatio: c.Classes.Default.MaxAreaRatio,
		NMSThreshold: c.Classes.Default.NMS,
	}

	table := postprocess.NewClassTable(def)

	if c.Classes.COCO {
		table = postprocess.COCOClassTable()
		table.Default = def
	}

	for _, o := range c.Classes.Overrides {

		rule := table.Lookup(o.ID)

		if o.Confidence != nil {
			rule.Confidence = *o.Confidence
		}
		if o.MinAreaRatio != nil {
			rule.MinAreaRatio = *o.MinAreaRatio
		}
		if o.MaxAreaRatio != nil {
			rule.MaxAreaRatio = *o.MaxAreaRatio
		}
		if o.NMS != nil {
			rule.NMSThreshold = *o.NMS
		}

		table.Set(o.ID, rule)
	}

	return table
}

// DecoderParams returns the decoder parameters for a Model trained on the
// given labels
func (c *Config) DecoderParams(labels []string) postprocess.DecoderParams {
	return postprocess.DecoderParams{
		ModelInputWidth:     c.Model.InputWidth,
		ModelInputHeight:    c.Model.InputHeight,
		GlobalMinConfidence: c.Decoder.GlobalMinConfidence,
		MinBoxSide:          c.Decoder.MinBoxSide,
		Classes:             c.ClassTable(),
		Labels:              labels,
	}
}

// SuppressorParams returns the NMS parameters for a Model trained on the
// given labels
func (c *Config) SuppressorParams(labels []string) postprocess.SuppressorParams {
	return postprocess.SuppressorParams{
		Classes:       c.ClassTable(),
		CrossClassIoU: c.NMS.CrossClassIoU,
		Labels:        labels,
	}
}

// TrackerParams returns the track store parameters.  An unknown match mode,
// which Validate rejects, falls back to greedy
func (c *Config) TrackerParams() tracker.TrackerParams {

	mode, _ := tracker.ParseMatchMode(c.Tracker.Mode)

	return tracker.TrackerParams{
		MatchIoU:        c.Tracker.MatchIoU,
		MaxMissedFrames: c.Tracker.MaxMissedFrames,
		SmoothingAlpha:  c.Tracker.SmoothingAlpha,
		Mode:            mode,
	}
}

var defaultConfigPath = "config/vistrack.yaml"

// ParseConfigFlag allows clients to specify the relative path to the file
// from which the configuration will be loaded
func ParseConfigFlag() string {
	fs := flag.NewFlagSet(os.Args[0], flag.ExitOnError)
	configPath := fs.String("file", defaultConfigPath, "configuration file")
	_ = fs.Parse(os.Args[1:])

	return *configPath
}
