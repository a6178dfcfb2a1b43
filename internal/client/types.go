package client

import (
	"encoding/json"
	"strings"
)

// ErrorResponse is the error body of the analysis service. Detail is a
// plain string for handled errors; request validation errors carry a list
// of objects instead, which is not shown to users.
type ErrorResponse struct {
	Detail json.RawMessage `json:"detail"`
}

// Message returns the detail string verbatim, or empty when detail is not
// a string or holds only whitespace
func (e ErrorResponse) Message() string {
	if len(e.Detail) == 0 {
		return ""
	}
	var detail string
	if err := json.Unmarshal(e.Detail, &detail); err != nil {
		return ""
	}
	if strings.TrimSpace(detail) == "" {
		return ""
	}
	return detail
}
