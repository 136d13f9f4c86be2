package controllers

import (
	"net/http"

	"github.com/angelmondragon/storefront-core/api/responses"
	"github.com/angelmondragon/storefront-core/api/validators"
	"github.com/angelmondragon/storefront-core/internal/forms"
	"github.com/angelmondragon/storefront-core/pkg/logger"
)

// Checkout places the order for the session cart and answers with the
// issued receipt.
func Checkout(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		scope, ok := requireScope(w, r, logg)
		if !ok {
			return
		}
		var payment forms.Payment
		if err := validators.DecodeJSONBody(w, r, &payment); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		receipt, err := scope.Checkout.Execute(r.Context(), payment)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, receipt)
	}
}
