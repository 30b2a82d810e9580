// Package classify maps extracted voice features onto fixed threshold bands
// and produces indicators and analysis sentences.
package classify

import (
	"github.com/maastricht-university/voicecheck/features"
)

// Band is a closed interval [Low, High].
type Band struct {
	Low  float64 `yaml:"low" mapstructure:"low"`
	High float64 `yaml:"high" mapstructure:"high"`
}

type Thresholds struct {
	Pitch  Band `yaml:"pitch" mapstructure:"pitch"`
	Energy Band `yaml:"energy" mapstructure:"energy"`
	Rate   Band `yaml:"speaking_rate" mapstructure:"speaking_rate"`
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		Pitch:  Band{Low: 85, High: 255},
		Energy: Band{Low: 0.02, High: 0.1},
		Rate:   Band{Low: 120, High: 220},
	}
}

type Deviation int

const (
	Normal Deviation = iota
	Below
	Above
	Undetected
)

func (b Band) Deviation(v float64) Deviation {
	switch {
	case v < b.Low:
		return Below
	case v > b.High:
		return Above
	default:
		return Normal
	}
}

type Feature string

const (
	Pitch        Feature = "pitch"
	Energy       Feature = "energy"
	SpeakingRate Feature = "speaking rate"
)

type Indicator struct {
	Feature   Feature
	Deviation Deviation
}

func (i Indicator) String() string {
	switch i.Deviation {
	case Below:
		return string(i.Feature) + " below normal"
	case Above:
		return string(i.Feature) + " above normal"
	case Undetected:
		return "no clear " + string(i.Feature) + " detected"
	}
	return string(i.Feature) + " normal"
}

const (
	MsgFatigue    = "Low pitch combined with low energy may indicate fatigue or depression."
	MsgExcitement = "High pitch combined with high energy may indicate excitement or anxiety."
	MsgStress     = "Fast speaking rate combined with low energy may indicate anxiety or stress."
	MsgNoConcern  = "No significant concerns detected in voice characteristics."
)

var sentences = map[Indicator]string{
	{Pitch, Below}:        "Pitch is lower than normal, which may indicate fatigue or low mood.",
	{Pitch, Above}:        "Pitch is higher than normal, which may indicate stress or excitement.",
	{Energy, Below}:       "Vocal energy is lower than normal, which may indicate fatigue.",
	{Energy, Above}:       "Vocal energy is higher than normal, which may indicate excitement or agitation.",
	{SpeakingRate, Below}: "Speaking rate is slower than normal, which may indicate fatigue or low mood.",
	{SpeakingRate, Above}: "Speaking rate is faster than normal, which may indicate anxiety or excitement.",
}

// Sentence is the fallback analysis text for a single out-of-band feature.
func (i Indicator) Sentence() string { return sentences[i] }

type Result struct {
	Indicators []Indicator
	Analysis   []string
}

type Classifier struct {
	Thresholds Thresholds
}

func New(t Thresholds) Classifier { return Classifier{Thresholds: t} }

// Classify never fails. A nil pitch skips every pitch comparison and yields
// the Undetected indicator instead.
func (c Classifier) Classify(fs features.FeatureSet) Result {
	pitch := Undetected
	if fs.Pitch != nil {
		pitch = c.Thresholds.Pitch.Deviation(*fs.Pitch)
	}
	energy := c.Thresholds.Energy.Deviation(fs.Energy)
	rate := c.Thresholds.Rate.Deviation(fs.SpeakingRate)

	var res Result
	for _, ind := range []Indicator{{Pitch, pitch}, {Energy, energy}, {SpeakingRate, rate}} {
		if ind.Deviation != Normal {
			res.Indicators = append(res.Indicators, ind)
		}
	}

	switch {
	case pitch == Below && energy == Below:
		res.Analysis = []string{MsgFatigue}
	case pitch == Above && energy == Above:
		res.Analysis = []string{MsgExcitement}
	case rate == Above && energy == Below:
		res.Analysis = []string{MsgStress}
	default:
		for _, ind := range res.Indicators {
			if s := ind.Sentence(); s != "" {
				res.Analysis = append(res.Analysis, s)
			}
		}
		if len(res.Analysis) == 0 {
			res.Analysis = []string{MsgNoConcern}
		}
	}
	return res
}

// Strings renders indicators in order.
func Strings(inds []Indicator) []string {
	out := make([]string, len(inds))
	for i, ind := range inds {
		out[i] = ind.String()
	}
	return out
}
