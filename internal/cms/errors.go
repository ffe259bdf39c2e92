package cms

import (
	"errors"
	"fmt"
	"net/http"
)

// FailureKind classifies why a fetch did not produce data.
type FailureKind int

const (
	// FailureConfig means the client cannot build a request at all.
	FailureConfig FailureKind = iota + 1
	// FailureNetwork covers unreachable hosts, resets and timeouts.
	FailureNetwork
	// FailureServer is any non-2xx answer.
	FailureServer
	// FailureParse means the body was not the expected JSON envelope.
	FailureParse
)

func (k FailureKind) String() string {
	switch k {
	case FailureConfig:
		return "config"
	case FailureNetwork:
		return "network"
	case FailureServer:
		return "server"
	case FailureParse:
		return "parse"
	default:
		return "unknown"
	}
}

// ErrNotFound indicates the CMS answered 404 for the resource.
var ErrNotFound = errors.New("cms: not found")

// FetchFailure is the only error type returned by Client fetch methods.
type FetchFailure struct {
	Kind     FailureKind
	Resource string
	Status   int
	Err      error
}

func (f *FetchFailure) Error() string {
	if f == nil {
		return "cms: fetch failure"
	}
	msg := fmt.Sprintf("cms: %s failure", f.Kind)
	if f.Resource != "" {
		msg += " fetching " + f.Resource
	}
	if f.Status != 0 {
		msg += fmt.Sprintf(" (status %d)", f.Status)
	}
	if f.Err != nil {
		msg += ": " + f.Err.Error()
	}
	return msg
}

func (f *FetchFailure) Unwrap() error {
	if f == nil {
		return nil
	}
	if f.Status == http.StatusNotFound {
		return ErrNotFound
	}
	return f.Err
}

// Retryable reports whether a manual retry may succeed. Only configuration
// failures are permanent.
func (f *FetchFailure) Retryable() bool {
	return f != nil && f.Kind != FailureConfig
}

// AsFailure extracts a FetchFailure from err. Foreign errors are wrapped as
// network failures so callers always have a classification to render.
func AsFailure(err error) *FetchFailure {
	if err == nil {
		return nil
	}
	var f *FetchFailure
	if errors.As(err, &f) {
		return f
	}
	return &FetchFailure{Kind: FailureNetwork, Err: err}
}

func configFailure(resource string, err error) error {
	return &FetchFailure{Kind: FailureConfig, Resource: resource, Err: err}
}
