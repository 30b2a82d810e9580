package orchestrator

import "encoding/json"

type Feature struct {
	Name  string   `json:"name"`
	Value *float64 `json:"value"` // nil encodes as null
	Unit  string   `json:"unit"`
}

type Report struct {
	Timestamp        string    `json:"timestamp"`
	File             string    `json:"file"`
	Features         []Feature `json:"features"`
	HealthIndicators []string  `json:"health_indicators"`
	Analysis         []string  `json:"analysis"`
}

// Record is either a Report or an error, never both.
type Record struct {
	Report *Report
	Err    error
}

func Failed(err error) Record { return Record{Err: err} }

func (r Record) OK() bool { return r.Err == nil && r.Report != nil }

func (r Record) MarshalJSON() ([]byte, error) {
	if r.Err != nil {
		return json.Marshal(struct {
			Error string `json:"error"`
		}{r.Err.Error()})
	}
	return json.Marshal(r.Report)
}
