// Package remote implements the invocation port over HTTP against the
// analysis service. Transport faults and non-2xx responses are normalized
// into failed outcomes so the executor treats every item the same way.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	port "github.com/callscope/callscope/pkg/bulk/core/application/port"
	config "github.com/callscope/callscope/pkg/bulk/core/config"
	model "github.com/callscope/callscope/pkg/bulk/core/domain/model"
	exception "github.com/callscope/callscope/pkg/bulk/support/util/exception"
	logger "github.com/callscope/callscope/pkg/bulk/support/util/logger"
)

// invokeRequest is the wire format of one analysis request.
type invokeRequest struct {
	ItemID string                 `json:"item_id"`
	Params map[string]interface{} `json:"params,omitempty"`
}

// invokeResponse is the wire format of one analysis response.
type invokeResponse struct {
	Success bool                   `json:"success"`
	Data    map[string]interface{} `json:"data,omitempty"`
	Error   string                 `json:"error,omitempty"`
}

// HTTPInvoker calls the analysis service's invoke endpoint.
type HTTPInvoker struct {
	cfg    config.RemoteConfig
	client *http.Client
}

// NewHTTPInvoker creates an invoker with the configured per-call timeout.
func NewHTTPInvoker(cfg config.RemoteConfig) (*HTTPInvoker, error) {
	if cfg.Endpoint == "" {
		return nil, exception.NewBulkErrorf("remote", "remote invoker requires an endpoint")
	}
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPInvoker{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
	}, nil
}

// Invoke sends one analysis request. A transport fault or an undecodable
// body returns an error; an HTTP error status or an unsuccessful response
// body becomes a failed outcome.
func (i *HTTPInvoker) Invoke(ctx context.Context, itemID string, params map[string]interface{}) (*model.ItemOutcome, error) {
	body, err := json.Marshal(invokeRequest{ItemID: itemID, Params: params})
	if err != nil {
		return nil, exception.NewBulkError("remote", "failed to encode invoke request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, i.cfg.Endpoint+"/invoke", bytes.NewReader(body))
	if err != nil {
		return nil, exception.NewBulkError("remote", "failed to build invoke request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if i.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+i.cfg.APIKey)
	}

	resp, err := i.client.Do(req)
	if err != nil {
		return nil, exception.NewBulkErrorf("remote", "invoke request for item '%s' failed", itemID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		logger.Warnf("Remote: item '%s' got HTTP %d from analysis service.", itemID, resp.StatusCode)
		return model.FailureOutcome(fmt.Sprintf("analysis service returned HTTP %d", resp.StatusCode)), nil
	}

	var decoded invokeResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, exception.NewBulkErrorf("remote", "failed to decode invoke response for item '%s'", itemID, err)
	}

	if !decoded.Success {
		msg := decoded.Error
		if msg == "" {
			msg = "analysis failed without a reason"
		}
		return model.FailureOutcome(msg), nil
	}
	return model.SuccessOutcome(decoded.Data), nil
}

var _ port.Invoker = (*HTTPInvoker)(nil)
