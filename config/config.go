package config

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/maastricht-university/voicecheck/classify"
	"github.com/maastricht-university/voicecheck/features"
)

const EnvPrefix = "VOICECHECK"

type Service struct {
	URL string `yaml:"url" mapstructure:"url"`
}
type Services struct {
	Results       Service `yaml:"results" mapstructure:"results"`
	Visualization Service `yaml:"visualization" mapstructure:"visualization"`
}
type Analysis struct {
	FrameLength int `yaml:"frame_length" mapstructure:"frame_length"`
	HopLength   int `yaml:"hop_length" mapstructure:"hop_length"`
}
type Pitch struct {
	FMin           float64       `yaml:"fmin" mapstructure:"fmin"`
	FMax           float64       `yaml:"fmax" mapstructure:"fmax"`
	PeakThreshold  float64       `yaml:"peak_threshold" mapstructure:"peak_threshold"`
	GatePercentile float64       `yaml:"gate_percentile" mapstructure:"gate_percentile"`
	VoiceBand      features.Band `yaml:"voice_band" mapstructure:"voice_band"`
}
type Energy struct {
	NoiseFloor float64 `yaml:"noise_floor" mapstructure:"noise_floor"`
}
type Rate struct {
	NMels               int     `yaml:"n_mels" mapstructure:"n_mels"`
	TopDB               float64 `yaml:"top_db" mapstructure:"top_db"`
	SmoothWindow        int     `yaml:"smooth_window" mapstructure:"smooth_window"`
	ThresholdPercentile float64 `yaml:"threshold_percentile" mapstructure:"threshold_percentile"`
	MinSeparation       float64 `yaml:"min_separation" mapstructure:"min_separation"`
}
type Denoise struct {
	Enabled      bool    `yaml:"enabled" mapstructure:"enabled"`
	NoiseSeconds float64 `yaml:"noise_seconds" mapstructure:"noise_seconds"`
	Strength     float64 `yaml:"strength" mapstructure:"strength"`
}
type Root struct {
	Pipeline struct {
		Name    string `yaml:"name" mapstructure:"name"`
		Version string `yaml:"version" mapstructure:"version"`
		LogLvl  string `yaml:"log_level" mapstructure:"log_level"`
	} `yaml:"pipeline" mapstructure:"pipeline"`
	Analysis   Analysis            `yaml:"analysis" mapstructure:"analysis"`
	Pitch      Pitch               `yaml:"pitch" mapstructure:"pitch"`
	Energy     Energy              `yaml:"energy" mapstructure:"energy"`
	Rate       Rate                `yaml:"speaking_rate" mapstructure:"speaking_rate"`
	Denoise    Denoise             `yaml:"denoise" mapstructure:"denoise"`
	Thresholds classify.Thresholds `yaml:"thresholds" mapstructure:"thresholds"`
	Services   Services            `yaml:"services" mapstructure:"services"`
	Paths      struct {
		Outputs string `yaml:"outputs" mapstructure:"outputs"`
	} `yaml:"paths" mapstructure:"paths"`
}

func Defaults() *Root {
	var c Root
	c.Pipeline.Name = "voicecheck"
	c.Pipeline.Version = "0.1.0"
	c.Pipeline.LogLvl = "info"
	c.Analysis = Analysis{FrameLength: 2048, HopLength: 512}
	c.Pitch = Pitch{
		FMin:           40,
		FMax:           4000,
		PeakThreshold:  0.1,
		GatePercentile: 75,
		VoiceBand:      features.Band{Low: 50, High: 400},
	}
	c.Energy = Energy{NoiseFloor: 0.01}
	c.Rate = Rate{
		NMels:               128,
		TopDB:               80,
		SmoothWindow:        5,
		ThresholdPercentile: 80,
		MinSeparation:       0.08,
	}
	c.Denoise = Denoise{Enabled: false, NoiseSeconds: 0.5, Strength: 1}
	c.Thresholds = classify.DefaultThresholds()
	return &c
}

// Load layers the defaults, then the config file, then VOICECHECK_*
// environment variables. An empty path searches the usual locations; no
// file at all is fine.
func Load(path string) (*Root, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	base, err := yaml.Marshal(Defaults())
	if err != nil {
		return nil, errors.Wrap(err, "config: encoding defaults failed")
	}
	if err = v.ReadConfig(bytes.NewReader(base)); err != nil {
		return nil, errors.Wrap(err, "config: reading defaults failed")
	}

	if path == "" {
		path = find()
	}
	if path != "" {
		v.SetConfigFile(path)
		if err = v.MergeInConfig(); err != nil {
			return nil, errors.Wrapf(err, "config: merging %s failed", path)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var c Root
	if err = v.Unmarshal(&c); err != nil {
		return nil, errors.Wrap(err, "config: unmarshaling failed")
	}
	if err = c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func find() string {
	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	guess := []string{
		filepath.Join("config", env, "config.yaml"),
		filepath.Join("src", "shared", "config.yaml"),
	}
	for _, p := range guess {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

func (c *Root) Validate() error {
	switch {
	case c.Analysis.FrameLength <= 0 || c.Analysis.HopLength <= 0:
		return errors.New("config: frame_length and hop_length must be positive")
	case 2*c.Analysis.HopLength > c.Analysis.FrameLength:
		// centred frames reach frame_length/2 past the last hop; a larger hop
		// leaves the tail of the signal outside every frame
		return errors.New("config: hop_length must not exceed half of frame_length")
	case c.Pitch.VoiceBand.Low >= c.Pitch.VoiceBand.High:
		return errors.New("config: pitch voice_band low must be below high")
	}
	for name, b := range map[string]classify.Band{
		"pitch":         c.Thresholds.Pitch,
		"energy":        c.Thresholds.Energy,
		"speaking_rate": c.Thresholds.Rate,
	} {
		if b.Low > b.High {
			return errors.Errorf("config: %s threshold low %g exceeds high %g", name, b.Low, b.High)
		}
	}
	return nil
}

// Dump writes c as YAML.
func Dump(w io.Writer, c *Root) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return errors.Wrap(err, "config: encoding failed")
	}
	return enc.Close()
}
