package httpclient

import (
	"fmt"
	"strings"

	"github.com/bytedance/sonic"
)

// UpstreamError represents a non-2xx response from an upstream service
type UpstreamError struct {
	StatusCode int
	Body       []byte
	URL        string
}

func (e *UpstreamError) Error() string {
	if msg := e.Message(); msg != "" {
		return fmt.Sprintf("upstream error: status %d from %s: %s", e.StatusCode, e.URL, msg)
	}
	return fmt.Sprintf("upstream error: status %d from %s", e.StatusCode, e.URL)
}

// Message extracts the provider's own error text from the body.
// It understands {"error":{"message":...}}, {"error":"..."} and {"message":"..."};
// anything else falls back to the trimmed raw body.
func (e *UpstreamError) Message() string {
	var shaped struct {
		Error   interface{} `json:"error"`
		Message string      `json:"message"`
	}
	if err := sonic.Unmarshal(e.Body, &shaped); err == nil {
		switch v := shaped.Error.(type) {
		case string:
			if v != "" {
				return v
			}
		case map[string]interface{}:
			if msg, ok := v["message"].(string); ok && msg != "" {
				return msg
			}
		}
		if shaped.Message != "" {
			return shaped.Message
		}
	}

	body := strings.TrimSpace(string(e.Body))
	if len(body) > 512 {
		body = body[:512]
	}
	return body
}
