package orchestrator

import (
	"time"

	"github.com/maastricht-university/voicecheck/classify"
	"github.com/maastricht-university/voicecheck/clients"
	"github.com/maastricht-university/voicecheck/features"
)

func (p *Pipeline) preprocessor() features.Preprocessor {
	if !p.cfg.Denoise.Enabled {
		return features.Identity{}
	}
	return features.NoiseReducer{
		NFFT:         p.cfg.Analysis.FrameLength,
		HopLength:    p.cfg.Analysis.HopLength,
		NoiseSeconds: p.cfg.Denoise.NoiseSeconds,
		Strength:     p.cfg.Denoise.Strength,
		Log:          p.log.WithField("component", "denoise"),
	}
}

func (p *Pipeline) extractor() features.Extractor {
	a := p.cfg.Analysis
	return features.Extractor{
		Pitch: features.PitchEstimator{
			NFFT:           a.FrameLength,
			HopLength:      a.HopLength,
			FMin:           p.cfg.Pitch.FMin,
			FMax:           p.cfg.Pitch.FMax,
			PeakThreshold:  p.cfg.Pitch.PeakThreshold,
			GatePercentile: p.cfg.Pitch.GatePercentile,
			VoiceBand:      p.cfg.Pitch.VoiceBand,
		},
		Energy: features.EnergyEstimator{
			FrameLength: a.FrameLength,
			HopLength:   a.HopLength,
			NoiseFloor:  p.cfg.Energy.NoiseFloor,
		},
		Rate: features.RateEstimator{
			NFFT:                a.FrameLength,
			HopLength:           a.HopLength,
			NMels:               p.cfg.Rate.NMels,
			TopDB:               p.cfg.Rate.TopDB,
			SmoothWindow:        p.cfg.Rate.SmoothWindow,
			ThresholdPercentile: p.cfg.Rate.ThresholdPercentile,
			MinSeparation:       p.cfg.Rate.MinSeparation,
		},
	}
}

// Assemble packages one analysis into a Report.
func Assemble(at time.Time, source string, fs features.FeatureSet, res classify.Result) *Report {
	energy, rate := fs.Energy, fs.SpeakingRate
	r := &Report{
		Timestamp: at.Format(time.RFC3339Nano),
		File:      source,
		Features: []Feature{
			{Name: "pitch", Value: fs.Pitch, Unit: "Hz"},
			{Name: "energy", Value: &energy, Unit: "normalized"},
			{Name: "speaking_rate", Value: &rate, Unit: "syllables per minute"},
		},
		HealthIndicators: classify.Strings(res.Indicators),
		Analysis:         append([]string{}, res.Analysis...),
	}
	return r
}

// radarRequest scales each feature by the upper bound of its band, so 1.0
// sits on the edge of the normal range. A missing pitch plots as 0.
func radarRequest(r *Report, th classify.Thresholds, outDir string) clients.RadarReq {
	highs := map[string]float64{
		"pitch":         th.Pitch.High,
		"energy":        th.Energy.High,
		"speaking_rate": th.Rate.High,
	}
	req := clients.RadarReq{Subject: r.File, OutputDir: outDir}
	for _, f := range r.Features {
		v := 0.0
		if f.Value != nil && highs[f.Name] > 0 {
			v = *f.Value / highs[f.Name]
		}
		req.Categories = append(req.Categories, f.Name)
		req.Values = append(req.Values, v)
	}
	return req
}
