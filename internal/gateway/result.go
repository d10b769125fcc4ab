package gateway

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Result is the uniform shape every gateway call returns. Failed calls always
// carry a human-readable Error. Data and RawResponse are mutually exclusive:
// JSON responses populate Data, non-JSON responses populate RawResponse with
// IsTextResponse set.
type Result struct {
	Success        bool
	Data           json.RawMessage
	Error          string
	StatusCode     int
	RawResponse    string
	IsTextResponse bool
	IsNetworkError bool
}

// DecodeData unmarshals the JSON payload into v.
func (r Result) DecodeData(v interface{}) error {
	if len(r.Data) == 0 {
		return fmt.Errorf("no data in response")
	}
	if err := json.Unmarshal(r.Data, v); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// TextIndicatesSuccess reinterprets a plain-text response body: some upstream
// endpoints acknowledge writes with prose instead of a structured flag. A body
// mentioning a success keyword and not mentioning "error" counts as success.
func (r Result) TextIndicatesSuccess() bool {
	if !r.IsTextResponse {
		return false
	}
	body := strings.ToLower(r.RawResponse)
	if strings.Contains(body, "error") {
		return false
	}
	return strings.Contains(body, "success") ||
		strings.Contains(body, "updated") ||
		strings.Contains(body, "uploaded")
}
