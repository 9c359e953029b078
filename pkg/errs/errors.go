package errs

import (
	"errors"
	"net/http"
)

var (
	ErrValidation    = errors.New("validation")       // 400
	ErrNotFound      = errors.New("not found")        // 404
	ErrUnauthorized  = errors.New("unauthorized")     // 403
	ErrConflict      = errors.New("conflict")         // 409
	ErrStockExceeded = errors.New("stock exceeded")   // 409
	ErrUpstream      = errors.New("upstream failure") // 502
)

var statusMap = []struct {
	err  error
	code int
}{
	{ErrValidation, http.StatusBadRequest},
	{ErrNotFound, http.StatusNotFound},
	{ErrUnauthorized, http.StatusForbidden},
	{ErrStockExceeded, http.StatusConflict},
	{ErrConflict, http.StatusConflict},
	{ErrUpstream, http.StatusBadGateway},
}

// HTTPStatus returns the status code for the first sentinel found in err's chain.
func HTTPStatus(err error) int {
	for _, m := range statusMap {
		if errors.Is(err, m.err) {
			return m.code
		}
	}
	return http.StatusInternalServerError
}

// Reason is the short public message for err. Internal errors never leak their text.
func Reason(err error) string {
	switch HTTPStatus(err) {
	case http.StatusInternalServerError:
		return "internal error"
	default:
		return err.Error()
	}
}
