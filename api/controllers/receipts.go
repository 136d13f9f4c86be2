package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/storefront-core/api/responses"
	"github.com/angelmondragon/storefront-core/internal/receipts"
	pkgerrors "github.com/angelmondragon/storefront-core/pkg/errors"
	"github.com/angelmondragon/storefront-core/pkg/logger"
)

func ReceiptList(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		scope, ok := requireScope(w, r, logg)
		if !ok {
			return
		}
		responses.WriteSuccess(w, scope.History.List(r.Context()))
	}
}

// ReceiptDetail looks a receipt up by number. format=text answers with the
// printable summary.
func ReceiptDetail(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		scope, ok := requireScope(w, r, logg)
		if !ok {
			return
		}
		rec, err := scope.History.FindByNumber(r.Context(), chi.URLParam(r, "number"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		switch strings.ToLower(strings.TrimSpace(r.URL.Query().Get("format"))) {
		case "", "json":
			responses.WriteSuccess(w, rec)
		case "text":
			responses.WriteText(w, http.StatusOK, receipts.RenderSummary(*rec))
		default:
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "format must be json or text"))
		}
	}
}

func ReceiptClear(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		scope, ok := requireScope(w, r, logg)
		if !ok {
			return
		}
		if err := scope.History.Clear(r.Context()); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}
