package metrics

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	promModel "github.com/prometheus/common/model"
	"github.com/rs/zerolog/log"
)

// Forwarder POSTs each snapshot to a configurable monitoring endpoint as a
// list of prometheus samples. Delivery is best-effort: failures are logged
// and swallowed so a failing monitoring sink never affects the request path
// being measured.
type Forwarder struct {
	endpoint   string
	httpClient *http.Client
}

func NewForwarder(endpoint string) *Forwarder {
	return &Forwarder{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

type forwardPayload struct {
	Samples []promModel.Sample `json:"samples"`
}

func (f *Forwarder) Forward(ctx context.Context, snap Snapshot) {
	if f.endpoint == "" {
		return
	}
	ts := promModel.TimeFromUnixNano(snap.Timestamp.UnixNano())
	payload := forwardPayload{Samples: []promModel.Sample{
		{Metric: promModel.Metric{"__name__": "error_rate"}, Value: promModel.SampleValue(snap.ErrorRate), Timestamp: ts},
		{Metric: promModel.Metric{"__name__": "avg_response_time_ms"}, Value: promModel.SampleValue(snap.AvgResponseTimeMs), Timestamp: ts},
		{Metric: promModel.Metric{"__name__": "traffic_spike"}, Value: promModel.SampleValue(snap.TrafficSpike), Timestamp: ts},
		{Metric: promModel.Metric{"__name__": "request_count"}, Value: promModel.SampleValue(snap.RequestCount), Timestamp: ts},
	}}

	body, err := json.Marshal(payload)
	if err != nil {
		log.Error().Err(err).Msg("metrics forward marshal failed")
		return
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.endpoint, bytes.NewReader(body))
	if err != nil {
		log.Error().Err(err).Msg("metrics forward request build failed")
		return
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := f.httpClient.Do(req)
	if err != nil {
		log.Warn().Err(err).Str("endpoint", f.endpoint).Msg("metrics forward failed")
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.Warn().Err(fmt.Errorf("monitoring endpoint status %d", resp.StatusCode)).Msg("metrics forward rejected")
	}
}
