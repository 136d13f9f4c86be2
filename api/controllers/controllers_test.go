package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/storefront-core/api/middleware"
	"github.com/angelmondragon/storefront-core/internal/kvstore"
	"github.com/angelmondragon/storefront-core/internal/receipts"
	"github.com/angelmondragon/storefront-core/internal/session"
	"github.com/angelmondragon/storefront-core/pkg/everrest"
	"github.com/angelmondragon/storefront-core/pkg/logger"
	"github.com/angelmondragon/storefront-core/pkg/types"
)

type stubProducts struct{}

func (stubProducts) Product(_ context.Context, id string) (*types.Product, error) {
	return &types.Product{ID: id, Title: "Product " + id}, nil
}

func newScope(t *testing.T) *session.Scope {
	t.Helper()
	registry, err := session.NewRegistry(session.Params{
		Backend:  kvstore.NewMemory(),
		Remote:   everrest.NewClient(everrest.WithBaseURL("http://127.0.0.1:1")),
		Products: stubProducts{},
		Logger:   logger.Nop(),
	})
	require.NoError(t, err)
	t.Cleanup(registry.Close)
	scope, err := registry.Get(context.Background(), "s1")
	require.NoError(t, err)
	return scope
}

func serve(scope *session.Scope, h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	if scope != nil {
		req = req.WithContext(middleware.WithScope(req.Context(), scope))
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHandlersRequireScope(t *testing.T) {
	rec := serve(nil, CartGet(nil), httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestReceiptDetailFormats(t *testing.T) {
	scope := newScope(t)
	require.NoError(t, scope.History.Save(context.Background(), receipts.Receipt{
		Number: "INV-1700000000000",
		Date:   "03/01/2026, 12:00:00",
		Items:  []receipts.Item{{Title: "Galaxy S24", Quantity: 2, Price: 10.5}},
		Total:  21,
	}))

	r := chi.NewRouter()
	r.Get("/receipts/{number}", ReceiptDetail(nil))

	rec := serve(scope, r, httptest.NewRequest(http.MethodGet, "/receipts/inv-1700000000000", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var envelope struct {
		Data receipts.Receipt `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, "INV-1700000000000", envelope.Data.Number)

	text := serve(scope, r, httptest.NewRequest(http.MethodGet, "/receipts/INV-1700000000000?format=text", nil))
	require.Equal(t, http.StatusOK, text.Code)
	assert.True(t, strings.HasPrefix(text.Header().Get("Content-Type"), "text/plain"))
	assert.Contains(t, text.Body.String(), "Receipt #INV-1700000000000")
	assert.Contains(t, text.Body.String(), "Total: 21.00")

	bad := serve(scope, r, httptest.NewRequest(http.MethodGet, "/receipts/INV-1700000000000?format=pdf", nil))
	assert.Equal(t, http.StatusBadRequest, bad.Code)
}

func TestGiftRoundTrip(t *testing.T) {
	scope := newScope(t)

	empty := serve(scope, GiftGet(nil), httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, empty.Code)
	assert.JSONEq(t, `{"data":null}`, empty.Body.String())

	put := serve(scope, GiftPut(stubProducts{}, nil), httptest.NewRequest(http.MethodPut, "/", strings.NewReader(`{"productId":"p7","message":" happy birthday "}`)))
	require.Equal(t, http.StatusOK, put.Code)
	var envelope struct {
		Data struct {
			Product types.Product `json:"product"`
			Message string        `json:"message"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(put.Body.Bytes(), &envelope))
	assert.Equal(t, "Product p7", envelope.Data.Product.Title)
	assert.Equal(t, "happy birthday", envelope.Data.Message)

	assert.Equal(t, http.StatusNoContent, serve(scope, GiftDelete(nil), httptest.NewRequest(http.MethodDelete, "/", nil)).Code)
}

func TestCartClearAnonymousIsLocal(t *testing.T) {
	scope := newScope(t)
	scope.Cart.SetCount(context.Background(), 3)

	rec := serve(scope, CartClear(nil), httptest.NewRequest(http.MethodDelete, "/api/v1/cart", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Zero(t, scope.Cart.Count())
}

func TestCartAddRejectsBadPayload(t *testing.T) {
	scope := newScope(t)
	rec := serve(scope, CartAddItem(stubProducts{}, nil), httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"productId":"p1","quantity":0}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, scope.Cart.Count())
}

func TestChatQuestionsListsReadyAnswers(t *testing.T) {
	rec := serve(nil, ChatQuestions(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var envelope struct {
		Data []map[string]string `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Len(t, envelope.Data, 4)
}
