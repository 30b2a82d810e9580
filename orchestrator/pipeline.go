package orchestrator

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/maastricht-university/voicecheck/audio"
	"github.com/maastricht-university/voicecheck/classify"
	"github.com/maastricht-university/voicecheck/clients"
	cfg "github.com/maastricht-university/voicecheck/config"
)

type Pipeline struct {
	cfg  *cfg.Root
	http *clients.HTTP
	log  logrus.FieldLogger
	now  func() time.Time
}

func NewPipeline(c *cfg.Root, log logrus.FieldLogger) *Pipeline {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Pipeline{
		cfg:  c,
		http: clients.NewHTTP(),
		log:  log.WithField("component", "pipeline"),
		now:  time.Now,
	}
}

// Analyze is the pure part of a run: preprocess, extract, classify and
// assemble. Only the timestamp depends on anything but w and the config.
func (p *Pipeline) Analyze(source string, w audio.Waveform) Record {
	clean := p.preprocessor().Process(w)
	fs := p.extractor().Extract(clean)

	fields := logrus.Fields{"energy": fs.Energy, "speaking_rate": fs.SpeakingRate}
	if fs.Pitch != nil {
		fields["pitch"] = *fs.Pitch
	}
	p.log.WithFields(fields).Debug("features extracted")

	res := classify.New(p.cfg.Thresholds).Classify(fs)
	return Record{Report: Assemble(p.now(), source, fs, res)}
}

// Run loads path, analyzes it, then persists, publishes and charts the
// record when configured. Load failures become an error Record; failures of
// the later side effects are only logged.
func (p *Pipeline) Run(ctx context.Context, path string) Record {
	log := p.log.WithField("file", path)
	log.Info("loading audio file")
	w, err := audio.Load(path)
	if err != nil {
		log.WithError(err).Error("loading audio file failed")
		return Failed(err)
	}
	log.WithFields(logrus.Fields{
		"sample_rate": w.SampleRate,
		"duration":    w.Duration(),
	}).Info("audio file loaded")

	rec := p.Analyze(path, w)

	if out := p.cfg.Paths.Outputs; out != "" {
		sid, file, err := persist(out, rec, p.now())
		if err != nil {
			log.WithError(err).Warn("persisting record failed")
		} else {
			log.WithFields(logrus.Fields{"session": sid, "path": file}).Info("record persisted")
		}
	}
	if url := p.cfg.Services.Results.URL; url != "" {
		resp, err := p.http.Publish(ctx, url, rec)
		if err != nil {
			log.WithError(err).Warn("publishing record failed")
		} else {
			log.WithField("id", resp.ID).Info("record published")
		}
	}
	if url := p.cfg.Services.Visualization.URL; url != "" {
		resp, err := p.http.GenerateRadar(ctx, url, radarRequest(rec.Report, p.cfg.Thresholds, p.cfg.Paths.Outputs))
		if err != nil {
			log.WithError(err).Warn("radar chart request failed")
		} else {
			log.WithField("path", resp.Path).Info("radar chart generated")
		}
	}
	return rec
}
