package gatewayclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
	resourcegateway "spice-portal-backend/lib/resource-gateway"
	"spice-portal-backend/models"
)

type Config struct {
	BaseURL   string
	Token     string
	Timeout   time.Duration
	RateLimit float64 // requests per second
	Burst     int
}

func NewProvider(cfg Config) resourcegateway.Provider {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}
	return &impl{
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		token:   cfg.Token,
		client:  &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(limit, cfg.Burst),
	}
}

type impl struct {
	baseURL string
	token   string
	client  *http.Client
	limiter *rate.Limiter
}

func (i impl) Get(ctx context.Context, target string) (map[string]any, error) {
	resp := map[string]any{}
	err := i.sendRequest(ctx, http.MethodGet, target, nil, &resp)
	if err != nil {
		return nil, err
	}
	// unwrap {status, data} responses
	if data, ok := resp["data"].(map[string]any); ok {
		if _, hasStatus := resp["status"]; hasStatus {
			return data, nil
		}
	}
	return resp, nil
}

func (i impl) Patch(ctx context.Context, target string, payload map[string]any) error {
	return i.sendRequest(ctx, http.MethodPatch, target, payload, nil)
}

func (i impl) Delete(ctx context.Context, target string) error {
	return i.sendRequest(ctx, http.MethodDelete, target, nil, nil)
}

func (i impl) Invoke(ctx context.Context, target string, payload map[string]any) error {
	return i.sendRequest(ctx, http.MethodPost, target, payload, nil)
}

func (i impl) sendRequest(ctx context.Context, method, target string, payload map[string]any, resp any) error {
	uri := fmt.Sprintf("%s%s", i.baseURL, target)
	logger := log.
		WithField("external_request", uri).
		WithField("method", method)

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return errors.Wrap(err, "error serializing request")
		}
		body = bytes.NewReader(data)
		logger = logger.WithField("request_body", string(data))
	}
	if err := i.limiter.Wait(ctx); err != nil {
		return models.NetworkError{Message: err.Error()}
	}
	r, err := http.NewRequestWithContext(ctx, method, uri, body)
	if err != nil {
		return errors.Wrap(err, "error building request")
	}
	r.Header.Add("Content-Type", "application/json")
	r.Header.Add("Accept", "application/json")
	if i.token != "" {
		r.Header.Add("Authorization", fmt.Sprintf("Bearer %v", i.token))
	}

	response, err := i.client.Do(r)
	if err != nil {
		logger.WithError(err).Error("remote resource request failed")
		return models.NetworkError{Message: err.Error()}
	}
	defer response.Body.Close()
	responseBody, _ := io.ReadAll(response.Body)
	logger = logger.
		WithField("response_status_code", response.StatusCode).
		WithField("response_body", string(responseBody))

	switch {
	case response.StatusCode == http.StatusUnauthorized:
		logger.Warn("remote resource rejected the token")
		return errors.Wrap(models.ErrUnauthenticated, "remote resource")
	case response.StatusCode == http.StatusNotFound:
		return errors.Wrapf(models.ErrNotFound, "remote resource %s", target)
	case response.StatusCode < 200 || response.StatusCode >= 300:
		logger.Error("remote resource responded with an error")
		return models.NetworkError{StatusCode: response.StatusCode, Message: errorMessage(responseBody)}
	}
	if resp != nil && len(responseBody) != 0 {
		if err = json.Unmarshal(responseBody, resp); err != nil {
			logger.WithError(err).Error("error deserializing response")
			return errors.Wrap(err, "error deserializing response")
		}
	}
	return nil
}

func errorMessage(body []byte) string {
	data := struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}{}
	if err := json.Unmarshal(body, &data); err == nil {
		if data.Message != "" {
			return data.Message
		}
		if data.Error != "" {
			return data.Error
		}
	}
	text := strings.TrimSpace(string(body))
	if len(text) > 200 {
		text = text[:200]
	}
	return text
}
