package httpapi

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scality/utapi/dispatch"
	"github.com/scality/utapi/httpapi/auth"
	"github.com/scality/utapi/store/memstore"
)

type allowAllAuth struct{}

func (allowAllAuth) Authenticate(r *http.Request) (string, error) { return "a1", nil }

type denyAllAuth struct{}

func (denyAllAuth) Authenticate(r *http.Request) (string, error) {
	return "", errDenied
}

var errDenied = errorString("denied")

type errorString string

func (e errorString) Error() string { return string(e) }

func newTestHandlers(a auth.Authenticator) *Handlers {
	s := memstore.New()
	d := dispatch.NewDispatcher(dispatch.Config{Store: s, Component: "s3"})
	return &Handlers{Dispatcher: d, Auth: a}
}

func TestServiceRouteReturnsOneResult(t *testing.T) {
	e := echo.New()
	h := newTestHandlers(allowAllAuth{})
	RegisterRoutes(e, h, "s3")

	req := httptest.NewRequest(http.MethodPost, "/service?Action=ListMetrics&Version=20160815", strings.NewReader(`{"timeRange":[0,1]}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"serviceName":"s3"`)
}

func TestBucketsRouteRequiresResources(t *testing.T) {
	e := echo.New()
	h := newTestHandlers(allowAllAuth{})
	RegisterRoutes(e, h, "s3")

	req := httptest.NewRequest(http.MethodPost, "/buckets?Action=ListMetrics&Version=20160815", strings.NewReader(`{"timeRange":[0,1]}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRouteRejectsUnauthenticatedRequest(t *testing.T) {
	e := echo.New()
	h := newTestHandlers(denyAllAuth{})
	RegisterRoutes(e, h, "s3")

	req := httptest.NewRequest(http.MethodPost, "/service?Action=ListMetrics&Version=20160815", strings.NewReader(`{"timeRange":[0,1]}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRouteRejectsWrongAction(t *testing.T) {
	e := echo.New()
	h := newTestHandlers(allowAllAuth{})
	RegisterRoutes(e, h, "s3")

	req := httptest.NewRequest(http.MethodPost, "/service?Action=Bogus", strings.NewReader(`{"timeRange":[0,1]}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealthEndpoint(t *testing.T) {
	e := echo.New()
	h := newTestHandlers(allowAllAuth{})
	RegisterRoutes(e, h, "s3")

	req := httptest.NewRequest(http.MethodGet, "/_/health", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"healthy"`)
}
