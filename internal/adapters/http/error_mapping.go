package httpadapter

import (
	"fmt"
	"net/http"

	"github.com/projectcompass/compass/internal/core/domain"
)

func mapErrorToHTTPStatus(err error) int {
	switch {
	case domain.IsKind(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case domain.IsKind(err, domain.ErrInquiryNotFound):
		return http.StatusNotFound
	case domain.IsKind(err, domain.ErrTemporary):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func errInvalidQuery(param, value string) error {
	return fmt.Errorf("invalid %s parameter %q", param, value)
}
