package metrics

import (
	"io"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorderCountsOutcomes(t *testing.T) {
	before := testutil.ToFloat64(operations.WithLabelValues("fund", "success"))
	rejected := testutil.ToFloat64(operations.WithLabelValues("fund", "not_found"))

	var r Recorder
	r.ObserveOperation("fund", "success", 3*time.Millisecond)
	r.ObserveOperation("fund", "success", 0)
	r.ObserveOperation("fund", "not_found", time.Millisecond)

	assert.Equal(t, before+2, testutil.ToFloat64(operations.WithLabelValues("fund", "success")))
	assert.Equal(t, rejected+1, testutil.ToFloat64(operations.WithLabelValues("fund", "not_found")))
}

func TestMiddlewareAndHandler(t *testing.T) {
	app := fiber.New()
	app.Use(Middleware())
	app.Get("/metrics", Handler())
	app.Get("/v1/accounts/:id", func(c fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})

	before := testutil.ToFloat64(httpRequests.WithLabelValues("GET", "/v1/accounts/:id", "204"))

	resp, err := app.Test(httptest.NewRequest("GET", "/v1/accounts/abc", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
	assert.Equal(t, before+1, testutil.ToFloat64(httpRequests.WithLabelValues("GET", "/v1/accounts/:id", "204")))

	unmatched := testutil.ToFloat64(httpRequests.WithLabelValues("GET", unmatchedRoute, "404"))
	for _, path := range []string{"/wp-login.php", "/.env", "/admin/" + strconv.FormatInt(time.Now().UnixNano(), 10)} {
		resp, err = app.Test(httptest.NewRequest("GET", path, nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	}
	assert.Equal(t, unmatched+3, testutil.ToFloat64(httpRequests.WithLabelValues("GET", unmatchedRoute, "404")))

	families, err := Registry.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != "ledger_http_requests_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, l := range m.GetLabel() {
				if l.GetName() == "route" {
					assert.NotContains(t, []string{"/wp-login.php", "/.env"}, l.GetValue())
				}
			}
		}
	}

	resp, err = app.Test(httptest.NewRequest("GET", "/metrics", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "ledger_http_requests_total")
}
