package state

import (
	"errors"

	"foodfront/internal/api"
)

// RequestStatus is the lifecycle of one asynchronous operation.
type RequestStatus string

const (
	RequestIdle      RequestStatus = "idle"
	RequestPending   RequestStatus = "pending"
	RequestFulfilled RequestStatus = "fulfilled"
	RequestRejected  RequestStatus = "rejected"
)

// ErrRequestInFlight is returned when an operation is started while the same
// operation is still pending.
var ErrRequestInFlight = errors.New("request already in flight")

// Request is the bookkeeping of one operation. Err is set only when rejected.
type Request struct {
	Status  RequestStatus `json:"status"`
	Message string        `json:"error,omitempty"`
	Err     error         `json:"-"`
}

// Loading reports whether the operation is pending.
func (r Request) Loading() bool { return r.Status == RequestPending }

// Requests maps operation names to their lifecycle. A missing entry is idle.
type Requests map[string]Request

// Get returns the lifecycle of op.
func (r Requests) Get(op string) Request {
	if req, ok := r[op]; ok {
		return req
	}
	return Request{Status: RequestIdle}
}

func (r Requests) begin(op string) error {
	if r.Get(op).Loading() {
		return ErrRequestInFlight
	}
	r[op] = Request{Status: RequestPending}
	return nil
}

func (r Requests) finish(op string, err error) {
	if err != nil {
		r[op] = Request{Status: RequestRejected, Message: ErrorMessage(err), Err: err}
		return
	}
	r[op] = Request{Status: RequestFulfilled}
}

func (r Requests) clone() Requests {
	out := make(Requests, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// ErrorMessage is the user-facing text of err. Backend payloads are surfaced verbatim.
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *api.Error
	if errors.As(err, &apiErr) {
		return apiErr.Message()
	}
	return err.Error()
}
