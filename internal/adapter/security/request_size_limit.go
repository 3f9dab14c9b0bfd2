package security

import (
	"errors"
	"io"
	"net/http"

	"github.com/docker/go-units"

	"github.com/thushan/warden/internal/core/domain"
)

/*
				Warden Security Adapter - Size Limit Validator
	SizeValidator enforces the body ceiling before any pattern work is done, so
	an oversized payload is never buffered in full. A declared Content-Length
	over the limit is rejected without touching the body; anything else is read
	through http.MaxBytesReader.

	Thread-safe by design as it maintains no internal mutable state.
*/

type SizeValidator struct {
	maxBodySize int64
}

func NewSizeValidator(maxBodySize int64) *SizeValidator {
	return &SizeValidator{maxBodySize: maxBodySize}
}

func (sv *SizeValidator) Name() string {
	return "size_limit"
}

func (sv *SizeValidator) Limit() int64 {
	return sv.maxBodySize
}

// HumanLimit is the ceiling as it appears in logs, e.g. "1MiB"
func (sv *SizeValidator) HumanLimit() string {
	return units.BytesSize(float64(sv.maxBodySize))
}

// ReadBody drains the request body under the ceiling. The returned error is
// a *domain.RequestTooLargeError when the body is over the limit.
func (sv *SizeValidator) ReadBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	if r.Body == nil || r.Body == http.NoBody {
		return nil, nil
	}

	if sv.maxBodySize > 0 && r.ContentLength > sv.maxBodySize {
		return nil, &domain.RequestTooLargeError{Limit: sv.maxBodySize}
	}

	reader := io.Reader(r.Body)
	if sv.maxBodySize > 0 {
		reader = http.MaxBytesReader(w, r.Body, sv.maxBodySize)
	}

	body, err := io.ReadAll(reader)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, &domain.RequestTooLargeError{Limit: sv.maxBodySize}
		}
		return nil, err
	}
	return body, nil
}
