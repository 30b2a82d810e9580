package orchestrator

import (
	"context"
	"encoding/json"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maastricht-university/voicecheck/audio"
	"github.com/maastricht-university/voicecheck/classify"
	cfg "github.com/maastricht-university/voicecheck/config"
)

var fixed = time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC)

func newTestPipeline(c *cfg.Root) *Pipeline {
	l := logrus.New()
	l.Out = io.Discard
	p := NewPipeline(c, l)
	p.now = func() time.Time { return fixed }
	return p
}

func tone(freq, amp, secs float64, sr int) audio.Waveform {
	x := make([]float64, int(secs*float64(sr)))
	for i := range x {
		x[i] = amp * math.Sin(2*math.Pi*freq*float64(i)/float64(sr))
	}
	return audio.Waveform{Samples: x, SampleRate: sr}
}

func writeWAV(t *testing.T, w audio.Waveform) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "voice.wav")
	f, err := os.Create(p)
	require.NoError(t, err)
	defer f.Close()

	data := make([]int, len(w.Samples))
	for i, s := range w.Samples {
		data[i] = int(s * 32767)
	}
	e := wav.NewEncoder(f, w.SampleRate, 16, 1, 1)
	require.NoError(t, e.Write(&goaudio.IntBuffer{
		Data:           data,
		Format:         &goaudio.Format{NumChannels: 1, SampleRate: w.SampleRate},
		SourceBitDepth: 16,
	}))
	require.NoError(t, e.Close())
	return p
}

func decode(t *testing.T, rec Record) map[string]any {
	t.Helper()
	b, err := json.Marshal(rec)
	require.NoError(t, err)
	var m map[string]any
	require.NoError(t, json.Unmarshal(b, &m))
	return m
}

func TestAnalyzeSilence(t *testing.T) {
	p := newTestPipeline(cfg.Defaults())
	rec := p.Analyze("silence.wav", audio.Waveform{Samples: make([]float64, 32000), SampleRate: 16000})
	require.True(t, rec.OK())

	r := rec.Report
	assert.Equal(t, "2024-05-01T12:30:00Z", r.Timestamp)
	assert.Equal(t, "silence.wav", r.File)
	require.Len(t, r.Features, 3)
	assert.Nil(t, r.Features[0].Value)
	assert.Equal(t, 0.0, *r.Features[1].Value)
	assert.Equal(t, 0.0, *r.Features[2].Value)
	assert.Equal(t, []string{"no clear pitch detected", "energy below normal", "speaking rate below normal"}, r.HealthIndicators)
	assert.NotContains(t, r.Analysis, classify.MsgNoConcern)
}

func TestAnalyzeJSONShape(t *testing.T) {
	p := newTestPipeline(cfg.Defaults())
	m := decode(t, p.Analyze("a.wav", audio.Waveform{Samples: make([]float64, 16000), SampleRate: 16000}))

	assert.Equal(t, "a.wav", m["file"])
	assert.Contains(t, m, "timestamp")
	assert.Contains(t, m, "health_indicators")
	assert.Contains(t, m, "analysis")
	assert.NotContains(t, m, "error")

	feats := m["features"].([]any)
	require.Len(t, feats, 3)
	pitch := feats[0].(map[string]any)
	assert.Equal(t, "pitch", pitch["name"])
	assert.Equal(t, "Hz", pitch["unit"])
	assert.Contains(t, pitch, "value")
	assert.Nil(t, pitch["value"])
	assert.Equal(t, "normalized", feats[1].(map[string]any)["unit"])
	assert.Equal(t, "speaking_rate", feats[2].(map[string]any)["name"])
	assert.Equal(t, "syllables per minute", feats[2].(map[string]any)["unit"])
}

func TestAnalyzeTone(t *testing.T) {
	p := newTestPipeline(cfg.Defaults())
	rec := p.Analyze("tone.wav", tone(150, 0.05, 2, 16000))
	require.True(t, rec.OK())

	pitch := rec.Report.Features[0].Value
	require.NotNil(t, pitch)
	assert.InDelta(t, 150, *pitch, 5)
	assert.InDelta(t, 0.05/math.Sqrt2, *rec.Report.Features[1].Value, 0.005)
}

func TestAnalyzeIdempotent(t *testing.T) {
	c := cfg.Defaults()
	c.Denoise.Enabled = true
	p := newTestPipeline(c)
	w := tone(200, 0.3, 1.5, 16000)

	a, b := p.Analyze("x", w), p.Analyze("x", w)
	assert.Equal(t, a, b)
}

func TestAnalyzeCustomThresholds(t *testing.T) {
	c := cfg.Defaults()
	c.Thresholds.Energy = classify.Band{Low: 0, High: 0.01}
	p := newTestPipeline(c)
	rec := p.Analyze("x", tone(150, 0.5, 1, 16000))
	assert.Contains(t, rec.Report.HealthIndicators, "energy above normal")
}

func TestErrorRecordJSON(t *testing.T) {
	b, err := json.Marshal(Failed(errors.New("audio: invalid wav file")))
	require.NoError(t, err)
	assert.JSONEq(t, `{"error":"audio: invalid wav file"}`, string(b))
	assert.False(t, Failed(errors.New("x")).OK())
}

func TestRunMissingFile(t *testing.T) {
	p := newTestPipeline(cfg.Defaults())
	rec := p.Run(context.Background(), filepath.Join(t.TempDir(), "nope.wav"))
	require.Error(t, rec.Err)
	assert.Nil(t, rec.Report)

	m := decode(t, rec)
	assert.Len(t, m, 1)
	assert.Contains(t, m["error"], "nope.wav")
}

func TestRunPersistsAndPublishes(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		var m map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&m))
		assert.Contains(t, m, "features")
		_, _ = w.Write([]byte(`{"status":"ok","id":"1"}`))
	}))
	defer srv.Close()

	out := t.TempDir()
	c := cfg.Defaults()
	c.Paths.Outputs = out
	c.Services.Results.URL = srv.URL
	p := newTestPipeline(c)

	path := writeWAV(t, tone(180, 0.3, 1, 16000))
	rec := p.Run(context.Background(), path)
	require.True(t, rec.OK())
	assert.Equal(t, path, rec.Report.File)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))

	b, err := os.ReadFile(filepath.Join(out, "session_20240501-123000", "analysis.json"))
	require.NoError(t, err)
	var saved Report
	require.NoError(t, json.Unmarshal(b, &saved))
	assert.Equal(t, *rec.Report, saved)
}

func TestRunPublishFailureKeepsRecord(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := cfg.Defaults()
	c.Services.Results.URL = srv.URL
	p := newTestPipeline(c)

	rec := p.Run(context.Background(), writeWAV(t, tone(180, 0.3, 1, 16000)))
	assert.True(t, rec.OK())
}

func TestPersistBadRoot(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(f, nil, 0o644))
	_, _, err := persist(f, Record{Report: &Report{}}, fixed)
	assert.Error(t, err)
}

func TestRadarRequest(t *testing.T) {
	energy, rate := 0.05, 330.0
	r := &Report{
		File: "a.wav",
		Features: []Feature{
			{Name: "pitch", Unit: "Hz"},
			{Name: "energy", Value: &energy},
			{Name: "speaking_rate", Value: &rate},
		},
	}
	req := radarRequest(r, classify.DefaultThresholds(), "out")
	assert.Equal(t, []string{"pitch", "energy", "speaking_rate"}, req.Categories)
	assert.InDeltaSlice(t, []float64{0, 0.5, 1.5}, req.Values, 1e-12)
	assert.Equal(t, "a.wav", req.Subject)
	assert.Equal(t, "out", req.OutputDir)
}

func TestRunRequestsRadar(t *testing.T) {
	var path atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path.Store(r.URL.Path)
		_, _ = w.Write([]byte(`{"status":"ok","path":"radar.png"}`))
	}))
	defer srv.Close()

	c := cfg.Defaults()
	c.Services.Visualization.URL = srv.URL
	rec := newTestPipeline(c).Run(context.Background(), writeWAV(t, tone(180, 0.3, 1, 16000)))
	require.True(t, rec.OK())
	assert.Equal(t, "/generate-radar", path.Load())
}
