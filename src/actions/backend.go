package actions

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"market-dashboard/src/helpers"
	"market-dashboard/src/logger"
	"market-dashboard/src/models"
)

const retryBaseDelay = 500 * time.Millisecond

// errServer marks a 5xx reply, which is worth retrying.
var errServer = errors.New("backend server error")

// -----------------------------------------------------------------------------

// Backend calls the trading backend's action endpoints.
type Backend struct {
	Config models.MBackendConfig
	Client *http.Client
	Logger *logger.Logger

	retryDelay time.Duration
}

// -----------------------------------------------------------------------------

func NewBackend(cfg models.MBackendConfig, log *logger.Logger) *Backend {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Backend{
		Config:     cfg,
		Client:     &http.Client{Timeout: timeout},
		Logger:     log,
		retryDelay: retryBaseDelay,
	}
}

// -----------------------------------------------------------------------------

func (b *Backend) SaveConfig(ctx context.Context, payload map[string]interface{}) (models.MActionResult, error) {
	if payload == nil {
		payload = map[string]interface{}{}
	}
	return b.call(ctx, models.ActionSaveConfig, b.Config.SaveConfigPath, payload)
}

func (b *Backend) EmergencyExit(ctx context.Context) (models.MActionResult, error) {
	return b.call(ctx, models.ActionEmergencyExit, b.Config.PanicPath, nil)
}

func (b *Backend) WipeData(ctx context.Context) (models.MActionResult, error) {
	return b.call(ctx, models.ActionWipeData, b.Config.WipePath, nil)
}

// -----------------------------------------------------------------------------

// call POSTs to path with retries on transport and 5xx failures. A 4xx reply is
// returned as a rejected result without retrying. Emergency exit is sent once.
func (b *Backend) call(ctx context.Context, action models.Action, path string, payload interface{}) (models.MActionResult, error) {
	endpoint := strings.TrimRight(b.Config.BaseURL, "/") + "/" + strings.TrimLeft(path, "/")

	var body []byte
	if payload != nil {
		var err error
		if body, err = json.Marshal(payload); err != nil {
			return models.MActionResult{}, helpers.NewActionError("Invalid settings", err)
		}
	}

	var result models.MActionResult
	attempts := b.Config.Retries + 1
	if action == models.ActionEmergencyExit {
		// at most once
		attempts = 1
	}
	err := helpers.RetryWithBackoff(ctx, b.Logger, string(action), attempts, b.retryDelay, func() error {
		var err error
		result, err = b.post(ctx, endpoint, body)
		return err
	})

	switch {
	case err == nil:
		b.Logger.Info("Action %s: %s %s", action, result.Status, result.Message)
		return result, nil
	case errors.Is(err, errServer) && result.Message != "":
		// the backend explained the failure; show it as a rejected action
		return result, nil
	default:
		return models.MActionResult{}, helpers.NewActionError(fmt.Sprintf("%s failed: backend unreachable", action), err)
	}
}

// -----------------------------------------------------------------------------

func (b *Backend) post(ctx context.Context, endpoint string, body []byte) (models.MActionResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return models.MActionResult{}, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := b.Client.Do(req)
	if err != nil {
		return models.MActionResult{}, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return models.MActionResult{}, err
	}

	var result models.MActionResult
	if jsonErr := json.Unmarshal(raw, &result); jsonErr != nil || result.Status == "" {
		result = models.MActionResult{Status: "error", Message: strings.TrimSpace(string(raw))}
		if resp.StatusCode < 300 {
			result.Status = "success"
		}
	}

	switch {
	case resp.StatusCode >= 500:
		if result.Status == "success" {
			result.Status = "error"
		}
		return result, fmt.Errorf("%w: status %d", errServer, resp.StatusCode)
	case resp.StatusCode >= 400:
		result.Status = "error"
		if result.Message == "" {
			result.Message = http.StatusText(resp.StatusCode)
		}
	}
	return result, nil
}
