// Package storefront holds the customer-facing JSON API handlers.
package storefront

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/quancoi2ka3/sportshop/internal/domain"
	"github.com/quancoi2ka3/sportshop/internal/middleware"
)

// validate checks request structs against their validator tags.
var validate = validator.New()

// writeJSON writes a JSON response with the given status.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// decodeJSON decodes and validates a request body into dst. The returned
// error is already a domain error suitable for RespondWithError.
func decodeJSON(r *http.Request, dst interface{}) error {
	defer io.Copy(io.Discard, r.Body)

	// An absent body decodes as the zero value; required-field validation
	// below still rejects it where fields are mandatory.
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, 1<<20))
	if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return domain.WrapError(err, domain.EINVALID, "handler.decode", "invalid request body")
	}

	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return domain.Errorf(domain.EINVALID, "handler.validate", "invalid value for field %q", verrs[0].Field())
		}
		return domain.WrapError(err, domain.EINVALID, "handler.validate", "invalid request")
	}
	return nil
}

// respondError delegates to the shared middleware error writer.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	middleware.RespondWithError(w, r, err)
}
