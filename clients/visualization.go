package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// --- Visualization (/generate-radar) ---
type RadarReq struct {
	Categories []string  `json:"categories"`
	Values     []float64 `json:"values"`
	Subject    string    `json:"subject"`
	OutputDir  string    `json:"output_dir,omitempty"`
}
type RadarResp struct {
	Status string `json:"status"`
	Path   string `json:"path"`
}

func (h *HTTP) GenerateRadar(ctx context.Context, url string, req RadarReq) (*RadarResp, error) {
	b, _ := json.Marshal(req)
	r, err := http.NewRequestWithContext(ctx, http.MethodPost, url+"/generate-radar", bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	r.Header.Set("Content-Type", "application/json")
	resp, err := h.c.Do(r)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("viz radar %s: %s", resp.Status, string(body))
	}

	var out RadarResp
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("viz radar decode: %w", err)
	}
	return &out, nil
}
