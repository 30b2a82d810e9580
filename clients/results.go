package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/pkg/errors"
)

// --- Results (/results) ---
type PublishResp struct {
	Status string `json:"status"`
	ID     string `json:"id"`
}

// Publish posts an analysis record as JSON to url + "/results".
func (h *HTTP) Publish(ctx context.Context, url string, record any) (*PublishResp, error) {
	b, err := json.Marshal(record)
	if err != nil {
		return nil, errors.Wrap(err, "results: encoding record failed")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url+"/results", bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.c.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("results %s: %s", resp.Status, string(body))
	}

	var out PublishResp
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("results decode: %w", err)
	}
	return &out, nil
}
