package webhooks

import (
	"errors"
	"fmt"
)

var (
	ErrWebhookNotFound = errors.New("webhook not found")
	ErrWebhookInactive = errors.New("webhook is inactive")
	ErrNoAdminUser     = errors.New("tenant has no admin user to own the lead")
	ErrInvalidPayload  = errors.New("invalid webhook payload")
)

// Remote failure reasons, also used as the fallback metric label.
const (
	ReasonTransport = "transport"
	ReasonStatus    = "status"
	ReasonDecode    = "decode"
	ReasonRejected  = "rejected"
)

// RemoteProcessingError is a failed primary attempt. It is recovered by the
// local executor and never reaches the caller on its own.
type RemoteProcessingError struct {
	Reason     string
	StatusCode int
	Message    string
	Err        error
}

func (e *RemoteProcessingError) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("remote processing %s: %v", e.Reason, e.Err)
	case e.StatusCode != 0:
		return fmt.Sprintf("remote processing %s: HTTP %d", e.Reason, e.StatusCode)
	default:
		return fmt.Sprintf("remote processing %s: %s", e.Reason, e.Message)
	}
}

func (e *RemoteProcessingError) Unwrap() error {
	return e.Err
}

// DownstreamWriteError is a store write that failed while creating the
// contact, lead or sample.
type DownstreamWriteError struct {
	Op  string
	Err error
}

func (e *DownstreamWriteError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *DownstreamWriteError) Unwrap() error {
	return e.Err
}
