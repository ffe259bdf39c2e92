package handlers

import (
	"net/url"

	"conatel.gouv.ht/web/internal/cms"
	"conatel.gouv.ht/web/internal/loader"
)

// Section is the render state of one independently loaded part of a page.
type Section struct {
	Loaded    bool
	Failed    bool
	Empty     bool
	ErrorKey  string
	// Status is the HTTP status of a server failure, zero otherwise.
	Status    int
	Retryable bool
	RetryURL  string
}

// NewSection converts a loader state. retryURL reloads only this page.
// Parse failures are shown as server failures.
func NewSection[T any](st loader.State[T], retryURL string) Section {
	s := Section{
		Loaded: st.Phase == loader.Success,
		Failed: st.Phase == loader.Failed,
		Empty:  st.Phase == loader.Success && st.Empty,
	}
	if f := st.Failure(); f != nil {
		s.ErrorKey = errorKey(f.Kind)
		if f.Kind == cms.FailureServer {
			s.Status = f.Status
		}
		s.Retryable = f.Retryable()
		s.RetryURL = retryURL
	}
	return s
}

func errorKey(k cms.FailureKind) string {
	switch k {
	case cms.FailureNetwork:
		return "errors.network"
	case cms.FailureConfig:
		return "errors.config"
	default:
		return "errors.server"
	}
}

// RetryURL returns path?query with retry=1, dropping any id selection.
func RetryURL(path string, q url.Values) string {
	v := url.Values{}
	for k, vals := range q {
		if k == "id" || k == "retry" {
			continue
		}
		v[k] = vals
	}
	v.Set("retry", "1")
	return path + "?" + v.Encode()
}
