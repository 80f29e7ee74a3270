package transport

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/buildmetric/costmap/pkg/errors"
)

// maxErrorBody bounds how much of an error response is read for the message.
const maxErrorBody = 4 << 10

// DecodeResponse decodes a JSON 2xx response into target, or converts a
// non-2xx response into an APIError. The body is always closed.
func DecodeResponse(resp *http.Response, target any) error {
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return responseError(resp)
	}

	if target == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.NewTransportError("read", resp.Request.URL.Path, err)
	}
	if err := json.Unmarshal(body, target); err != nil {
		return errors.NewTransportError("decode", resp.Request.URL.Path, err)
	}
	return nil
}

// responseError builds an APIError from a non-2xx response, pulling the
// backend's {"error": "..."} or {"detail": "..."} message when present.
func responseError(resp *http.Response) error {
	endpoint := ""
	if resp.Request != nil && resp.Request.URL != nil {
		endpoint = resp.Request.URL.Path
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	message := http.StatusText(resp.StatusCode)

	var payload struct {
		Error  string `json:"error"`
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if payload.Error != "" {
			message = payload.Error
		} else if payload.Detail != "" {
			message = payload.Detail
		}
	}

	return errors.NewAPIError(endpoint, resp.StatusCode, message)
}
