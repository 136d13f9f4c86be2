package controllers

import (
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-core/api/responses"
	"github.com/angelmondragon/storefront-core/internal/exchange"
	pkgerrors "github.com/angelmondragon/storefront-core/pkg/errors"
	"github.com/angelmondragon/storefront-core/pkg/logger"
)

type exchangeResponse struct {
	Amount     decimal.Decimal  `json:"amount"`
	From       string           `json:"from"`
	To         string           `json:"to"`
	Result     *decimal.Decimal `json:"result"`
	Currencies []string         `json:"currencies"`
}

// ExchangeConvert converts amount between two supported currencies. A
// non-positive amount yields a null result rather than an error.
func ExchangeConvert(rates exchange.Rates, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		from := strings.ToUpper(strings.TrimSpace(q.Get("from")))
		to := strings.ToUpper(strings.TrimSpace(q.Get("to")))
		if from == "" {
			from = exchange.Base
		}
		if to == "" {
			to = exchange.Base
		}

		amount := decimal.Zero
		if raw := strings.TrimSpace(q.Get("amount")); raw != "" {
			parsed, err := decimal.NewFromString(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "amount must be a number").WithDetails(map[string]any{"field": "amount"}))
				return
			}
			amount = parsed
		}

		converted, ok, err := rates.Convert(amount, from, to)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		resp := exchangeResponse{Amount: amount, From: from, To: to, Currencies: rates.Currencies()}
		if ok {
			resp.Result = &converted
		}
		responses.WriteSuccess(w, resp)
	}
}
