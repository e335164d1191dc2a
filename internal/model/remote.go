package model

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Remote calls a model server that hosts the serialized classifier and its
// attribution explainer.
type Remote struct {
	baseURL string
	client  *http.Client
}

// NewRemote creates a client for the model server at baseURL.
func NewRemote(baseURL string, timeout time.Duration) *Remote {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Remote{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

type instancesRequest struct {
	Instances [][]float64 `json:"instances"`
}

type probaResponse struct {
	Probabilities [][]float64 `json:"probabilities"`
}

type attributionResponse struct {
	Attributions Attribution `json:"attributions"`
}

func (r *Remote) PredictProba(ctx context.Context, x []float64) ([]float64, error) {
	var resp probaResponse
	if err := r.post(ctx, "/predict_proba", x, &resp); err != nil {
		return nil, err
	}
	if len(resp.Probabilities) != 1 {
		return nil, fmt.Errorf("model server returned %d rows, want 1", len(resp.Probabilities))
	}
	return resp.Probabilities[0], nil
}

func (r *Remote) Attribute(ctx context.Context, x []float64) (Attribution, error) {
	var resp attributionResponse
	if err := r.post(ctx, "/attributions", x, &resp); err != nil {
		return Attribution{}, err
	}
	if resp.Attributions.IsZero() {
		return Attribution{}, ErrAttributionShape
	}
	return resp.Attributions, nil
}

// Ping checks that the model server answers its health endpoint.
func (r *Remote) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.baseURL+"/healthz", nil)
	if err != nil {
		return err
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("model server unreachable: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("model server health: %s", resp.Status)
	}
	return nil
}

func (r *Remote) post(ctx context.Context, path string, x []float64, out any) error {
	payload, err := json.Marshal(instancesRequest{Instances: [][]float64{x}})
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("call model server %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return fmt.Errorf("read model server response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("model server %s: %s - %s", path, resp.Status, strings.TrimSpace(string(body)))
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode model server response: %w", err)
	}
	return nil
}
