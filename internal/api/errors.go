package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// Kind classifies a failed backend call.
type Kind string

const (
	KindValidation   Kind = "validation"
	KindUnauthorized Kind = "unauthorized"
	KindForbidden    Kind = "forbidden"
	KindNotFound     Kind = "not_found"
	KindConflict     Kind = "conflict"
	KindRejected     Kind = "rejected"
	KindServer       Kind = "server"
	KindTransport    Kind = "transport"
)

// ErrSessionExpired is returned when the access token was rejected and the
// refresh attempt failed. Tokens have already been purged.
var ErrSessionExpired = errors.New("session expired, please log in again")

// Error is a failed backend call. Payload holds the raw response body.
type Error struct {
	StatusCode int
	Kind       Kind
	Payload    json.RawMessage
	Err        error
}

func (e *Error) Error() string {
	if e.Kind == KindTransport {
		return fmt.Sprintf("backend unreachable: %v", e.Err)
	}
	return fmt.Sprintf("backend %s (%d): %s", e.Kind, e.StatusCode, e.Message())
}

func (e *Error) Unwrap() error { return e.Err }

// Message returns the user-facing text of the backend payload, verbatim where possible.
func (e *Error) Message() string {
	if e.Kind == KindTransport {
		return "Network error. Please try again."
	}
	if msg := payloadMessage(e.Payload); msg != "" {
		return msg
	}
	return http.StatusText(e.StatusCode)
}

func newStatusError(status int, body []byte) *Error {
	e := &Error{StatusCode: status, Payload: json.RawMessage(body)}
	switch {
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		e.Kind = KindValidation
	case status == http.StatusUnauthorized:
		e.Kind = KindUnauthorized
	case status == http.StatusForbidden:
		e.Kind = KindForbidden
	case status == http.StatusNotFound:
		e.Kind = KindNotFound
	case status == http.StatusConflict:
		e.Kind = KindConflict
	case status >= 500:
		e.Kind = KindServer
	default:
		e.Kind = KindRejected
	}
	if !json.Valid(body) {
		e.Payload = nil
		if s := strings.TrimSpace(string(body)); s != "" && len(s) < 200 {
			e.Payload, _ = json.Marshal(s)
		}
	}
	return e
}

func transportError(err error) *Error {
	return &Error{Kind: KindTransport, Err: err}
}

// IsKind reports whether err is an *Error of kind k.
func IsKind(err error, k Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == k
}

// IsBusinessRejection reports whether the backend refused the request on
// domain grounds (as opposed to auth or transport failures).
func IsBusinessRejection(err error) bool {
	return IsKind(err, KindValidation) || IsKind(err, KindConflict) || IsKind(err, KindRejected)
}

// payloadMessage extracts a message from DRF-style payloads:
// {"detail": "..."}, {"error": "..."}, {"field": ["..."]}, ["..."] or "...".
func payloadMessage(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return ""
	}
	return messageOf(v, "")
}

func messageOf(v any, field string) string {
	switch t := v.(type) {
	case string:
		if field == "" || field == "non_field_errors" || field == "detail" || field == "error" || field == "message" {
			return t
		}
		return field + ": " + t
	case []any:
		if len(t) > 0 {
			return messageOf(t[0], field)
		}
	case map[string]any:
		for _, k := range []string{"detail", "error", "message", "non_field_errors"} {
			if m, ok := t[k]; ok {
				return messageOf(m, k)
			}
		}
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if m := messageOf(t[k], k); m != "" {
				return m
			}
		}
	}
	return ""
}
