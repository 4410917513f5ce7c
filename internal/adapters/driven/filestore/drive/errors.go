package drive

import (
	"errors"
	"net/http"

	"google.golang.org/api/googleapi"

	"github.com/vendoriq/vendoriq/internal/core/domain"
)

// wrapError converts a Google API error to a domain sentinel where one
// applies, so callers can classify failures without importing googleapi.
func wrapError(err error) error {
	if err == nil {
		return nil
	}

	var gerr *googleapi.Error
	if !errors.As(err, &gerr) {
		return err
	}

	switch gerr.Code {
	case http.StatusUnauthorized, http.StatusForbidden:
		return domain.ErrCredentialMissing
	case http.StatusNotFound:
		return domain.ErrNotFound
	case http.StatusTooManyRequests:
		return domain.ErrRateLimited
	default:
		return err
	}
}

// isRateLimited returns true if the error indicates rate limiting.
func isRateLimited(err error) bool {
	if errors.Is(err, domain.ErrRateLimited) {
		return true
	}
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return gerr.Code == http.StatusTooManyRequests
	}
	return false
}
