package validators

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/angelmondragon/storefront-core/internal/forms"
	pkgerrors "github.com/angelmondragon/storefront-core/pkg/errors"
)

const maxBodyBytes = 1 << 20

// DecodeJSONBody decodes the request body into dest, rejecting unknown fields,
// then runs dest's validate tags.
func DecodeJSONBody(w http.ResponseWriter, r *http.Request, dest any) error {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	defer func() {
		_, _ = io.Copy(io.Discard, body)
	}()
	decoder := json.NewDecoder(body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dest); err != nil {
		if errors.Is(err, io.EOF) {
			return pkgerrors.New(pkgerrors.CodeValidation, "request body required")
		}
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid request body").WithDetails(map[string]any{"error": err.Error()})
	}
	return forms.Validate(dest)
}
