package supervisor

import (
	"context"
	"fmt"
	"net/http"

	"github.com/relaykit/relayctl/internal/config"
)

// Prober performs a bounded HTTP liveness check against the running
// sidecar. Connection errors, non-success status codes, and timeouts all
// fold into false: an unhealthy-but-running process is a normal,
// displayable state, so the probe never raises an error to its caller.
//
// The endpoint and auth header are configuration points; the sidecar's
// probe contract has varied across runtime versions.
type Prober struct {
	client *http.Client
	path   string
	header string
}

// NewProber creates a Prober from the health configuration.
func NewProber(cfg config.HealthConfig) *Prober {
	return &Prober{
		client: &http.Client{Timeout: cfg.HealthTimeout()},
		path:   cfg.Path,
		header: cfg.Header,
	}
}

// Healthy probes the instance listening on port, authenticating with
// apiKey when the header is configured.
func (p *Prober) Healthy(ctx context.Context, port int, apiKey string) bool {
	url := fmt.Sprintf("http://127.0.0.1:%d%s", port, p.path)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false
	}
	if p.header != "" && apiKey != "" {
		req.Header.Set(p.header, apiKey)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	return resp.StatusCode >= 200 && resp.StatusCode < 300
}
