package clients

import (
	"net/http"
	"time"
)

// HTTP talks to the downstream services named in the config.
type HTTP struct{ c *http.Client }

func NewHTTP() *HTTP { return &HTTP{c: &http.Client{Timeout: 30 * time.Second}} }

// WithClient swaps the underlying client, e.g. for an httptest server.
func (h *HTTP) WithClient(c *http.Client) *HTTP { return &HTTP{c: c} }
