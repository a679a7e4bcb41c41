package validators

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
)

type addLine struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
	Quantity  int    `json:"quantity" validate:"required,min=1"`
}

func jsonRequest(body string) *http.Request {
	return httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
}

func TestDecodeJSONBody(t *testing.T) {
	var dest addLine
	require.NoError(t, DecodeJSONBody(jsonRequest(`{"product_id":"`+uuid.NewString()+`","quantity":2}`), &dest))
	assert.Equal(t, 2, dest.Quantity)

	err := DecodeJSONBody(jsonRequest(`{"product_id":"nope","quantity":0}`), &addLine{})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	details, ok := pkgerrors.As(err).Details().(map[string]string)
	require.True(t, ok)
	assert.Equal(t, "must be a valid uuid", details["product_id"])
	assert.Equal(t, "is required", details["quantity"])

	err = DecodeJSONBody(jsonRequest(`{"product_id":"x","extra":1}`), &addLine{})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	err = DecodeJSONBody(jsonRequest(``), &addLine{})
	require.Error(t, err)
	assert.Equal(t, "request body is required", pkgerrors.As(err).Message())

	err = DecodeJSONBody(jsonRequest(`{"quantity":1} {"quantity":2}`), &addLine{})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestDecodeJSONObjectKeepsUnknownKeys(t *testing.T) {
	fields, err := DecodeJSONObject(jsonRequest(`{"full_name":"Ada","role":"admin","phone":null}`))
	require.NoError(t, err)
	assert.Len(t, fields, 3)
	assert.Nil(t, fields["phone"])
}

func TestParseQuery(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/?limit=20&featured=true&bad=maybe", nil)

	limit, err := ParseQueryInt(r, "limit", 50, 1, 200)
	require.NoError(t, err)
	assert.Equal(t, 20, limit)

	limit, err = ParseQueryInt(r, "missing", 50, 1, 200)
	require.NoError(t, err)
	assert.Equal(t, 50, limit)

	_, err = ParseQueryInt(httptest.NewRequest(http.MethodGet, "/?limit=500", nil), "limit", 50, 1, 200)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	featured, err := ParseQueryBool(r, "featured")
	require.NoError(t, err)
	require.NotNil(t, featured)
	assert.True(t, *featured)

	absent, err := ParseQueryBool(r, "missing")
	require.NoError(t, err)
	assert.Nil(t, absent)

	_, err = ParseQueryBool(r, "bad")
	assert.Error(t, err)
}

func TestSanitizeString(t *testing.T) {
	assert.Equal(t, "Ada", SanitizeString("  Ada\n ", 10))
	assert.Equal(t, "héll", SanitizeString("héllo", 4))
	assert.Equal(t, "ab", SanitizeString("a\x00b", 0))
}

func TestURLParams(t *testing.T) {
	id := uuid.New()
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("productId", id.String())
	rctx.URLParams.Add("itemId", "line-1")
	rctx.URLParams.Add("broken", "zzz")
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r = r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))

	got, err := URLParamUUID(r, "productId")
	require.NoError(t, err)
	assert.Equal(t, id, got)

	_, err = URLParamUUID(r, "broken")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	item, err := URLParamString(r, "itemId")
	require.NoError(t, err)
	assert.Equal(t, "line-1", item)

	_, err = URLParamString(r, "absent")
	assert.Error(t, err)
}
