package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	apperrors "betportal/pkg/errors"
)

// REST is the persistence fallback used when the socket is down
type REST struct {
	baseURL string
	token   string
	http    *http.Client
}

func NewREST(baseURL, token string, httpClient *http.Client) *REST {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &REST{baseURL: strings.TrimRight(baseURL, "/"), token: token, http: httpClient}
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Do sends body as JSON and decodes the envelope's data into out
func (r *REST) Do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, r.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if r.token != "" {
		req.Header.Set("Authorization", "Bearer "+r.token)
	}

	resp, err := r.http.Do(req)
	if err != nil {
		return apperrors.TransportUnavailable("request failed", err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return apperrors.Internal(fmt.Sprintf("decode %s %s response", method, path), err)
	}
	if resp.StatusCode >= http.StatusBadRequest || !env.Success {
		code, message := apperrors.CodeInternal, resp.Status
		if env.Error != nil {
			code, message = env.Error.Code, env.Error.Message
		}
		return apperrors.New(code, message, resp.StatusCode, nil)
	}
	if out != nil && len(env.Data) > 0 {
		return json.Unmarshal(env.Data, out)
	}
	return nil
}
