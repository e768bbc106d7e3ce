package httpapi

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/scality/utapi/dispatch"
	"github.com/scality/utapi/httpapi/auth"
	"github.com/scality/utapi/metrics"
)

// Handlers holds the dependencies the ListMetrics routes need: the
// dispatcher that serves them and the authenticator that gates them.
type Handlers struct {
	Dispatcher *dispatch.Dispatcher
	Auth       auth.Authenticator
	Log        *logrus.Logger

	// DumpBody logs each parsed request body at debug level.
	DumpBody bool
}

// listMetricsBody is the request body shape for all three families; for
// service the resource list is implicit and both fields may be empty.
type listMetricsBody struct {
	Buckets   []string `json:"buckets"`
	Accounts  []string `json:"accounts"`
	TimeRange [2]int64 `json:"timeRange"`
}

// RegisterRoutes mounts the three ListMetrics routes plus the health check.
func RegisterRoutes(e *echo.Echo, h *Handlers, serviceName string) {
	e.GET("/_/health", HealthCheckHandler(serviceName))

	e.POST("/buckets", h.listMetrics(metrics.FamilyBuckets))
	e.POST("/accounts", h.listMetrics(metrics.FamilyAccounts))
	e.POST("/service", h.listMetrics(metrics.FamilyService))
}

func (h *Handlers) listMetrics(family metrics.Family) echo.HandlerFunc {
	return func(c echo.Context) error {
		if c.QueryParam("Action") != "ListMetrics" {
			return echo.NewHTTPError(http.StatusBadRequest, "unsupported Action")
		}

		accountID, err := h.Auth.Authenticate(c.Request())
		if err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
		}

		var body listMetricsBody
		if err := c.Bind(&body); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
		}
		if h.DumpBody && h.Log != nil {
			h.Log.WithFields(logrus.Fields{
				"family":    family,
				"buckets":   body.Buckets,
				"accounts":  body.Accounts,
				"timeRange": body.TimeRange,
			}).Debug("listMetrics request body")
		}

		resources := body.Buckets
		if family == metrics.FamilyAccounts {
			resources = body.Accounts
		}

		req := metrics.Request{
			Family:    family,
			Resources: resources,
			StartMs:   body.TimeRange[0],
			EndMs:     body.TimeRange[1],
		}

		results, err := h.Dispatcher.Dispatch(c.Request().Context(), req)
		if err != nil {
			if h.Log != nil {
				h.Log.WithError(err).WithFields(logrus.Fields{
					"family":    family,
					"accountId": accountID,
				}).Error("listMetrics dispatch failed")
			}
			if errors.Is(err, metrics.ErrPrecondition) {
				return echo.NewHTTPError(http.StatusBadRequest, err.Error())
			}
			return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
		}

		return c.JSON(http.StatusOK, renderResults(family, results))
	}
}
