package platform

import (
	"errors"
	"fmt"
	"net/http"
)

// Error is a typed failure returned by the platform API.
type Error struct {
	StatusCode int    `json:"-"`
	Code       string `json:"code"`
	Message    string `json:"message"`
}

func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("platform: %s (%s, http %d)", e.Message, e.Code, e.StatusCode)
	}
	return fmt.Sprintf("platform: %s (http %d)", e.Message, e.StatusCode)
}

// IsNotFound reports whether err is a platform 404.
func IsNotFound(err error) bool {
	var pe *Error
	return errors.As(err, &pe) && pe.StatusCode == http.StatusNotFound
}

// IsThrottled reports whether err is a platform throttling response.
func IsThrottled(err error) bool {
	var pe *Error
	return errors.As(err, &pe) && (pe.StatusCode == http.StatusTooManyRequests || pe.Code == "ThrottlingException")
}

// IsConflict reports whether err indicates a name already in use.
func IsConflict(err error) bool {
	var pe *Error
	return errors.As(err, &pe) && pe.StatusCode == http.StatusConflict
}
