package middleware

import (
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JhonesBR/go-ledger/internal/idempotency"
)

func discard() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

func body(t *testing.T, app *fiber.App, method, path string, headers map[string]string) (int, string, map[string]string) {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(raw), map[string]string{HeaderReplayed: resp.Header.Get(HeaderReplayed)}
}

func TestOwner(t *testing.T) {
	app := fiber.New()
	app.Use(Owner(""))
	app.Get("/", func(c fiber.Ctx) error { return c.SendString(OwnerID(c)) })

	status, out, _ := body(t, app, "GET", "/", nil)
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.JSONEq(t, `{"error":"Unauthorized"}`, out)

	status, out, _ = body(t, app, "GET", "/", map[string]string{HeaderUserID: "  fam-1 "})
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "fam-1", out)

	withFallback := fiber.New()
	withFallback.Use(Owner("demo"))
	withFallback.Get("/", func(c fiber.Ctx) error { return c.SendString(OwnerID(c)) })
	_, out, _ = body(t, withFallback, "GET", "/", nil)
	assert.Equal(t, "demo", out)
}

func idempotentApp(store idempotency.Store, ttl time.Duration, handler fiber.Handler) *fiber.App {
	app := fiber.New(fiber.Config{Immutable: true})
	app.Use(Owner("fam"), Idempotency(store, ttl, discard()))
	app.Post("/pay", handler)
	app.Post("/other", handler)
	app.Get("/pay", handler)
	return app
}

func counting(calls *atomic.Int32, status int) fiber.Handler {
	return func(c fiber.Ctx) error {
		n := calls.Add(1)
		return c.Status(status).JSON(fiber.Map{"call": n})
	}
}

func TestIdempotencyReplay(t *testing.T) {
	var calls atomic.Int32
	app := idempotentApp(idempotency.NewMemoryStore(), time.Hour, counting(&calls, fiber.StatusCreated))
	key := map[string]string{HeaderIdempotencyKey: "k1"}

	status, first, h := body(t, app, "POST", "/pay", key)
	assert.Equal(t, fiber.StatusCreated, status)
	assert.Empty(t, h[HeaderReplayed])

	status, second, h := body(t, app, "POST", "/pay", key)
	assert.Equal(t, fiber.StatusCreated, status)
	assert.Equal(t, "true", h[HeaderReplayed])
	assert.JSONEq(t, first, second)
	assert.EqualValues(t, 1, calls.Load())

	status, _, _ = body(t, app, "POST", "/other", key)
	assert.Equal(t, fiber.StatusUnprocessableEntity, status)

	// Without a key every call runs.
	body(t, app, "POST", "/pay", nil)
	assert.EqualValues(t, 2, calls.Load())

	// Reads ignore the key.
	body(t, app, "GET", "/pay", key)
	body(t, app, "GET", "/pay", key)
	assert.EqualValues(t, 4, calls.Load())
}

func TestIdempotencySkipsServerErrors(t *testing.T) {
	var calls atomic.Int32
	app := idempotentApp(idempotency.NewMemoryStore(), time.Hour, counting(&calls, fiber.StatusInternalServerError))
	key := map[string]string{HeaderIdempotencyKey: "retry-me"}

	body(t, app, "POST", "/pay", key)
	body(t, app, "POST", "/pay", key)
	assert.EqualValues(t, 2, calls.Load())
}

func TestIdempotencyExpiry(t *testing.T) {
	var calls atomic.Int32
	store := idempotency.NewMemoryStore()
	app := idempotentApp(store, time.Hour, counting(&calls, fiber.StatusOK))
	key := map[string]string{HeaderIdempotencyKey: "old"}

	require.NoError(t, store.Save(context.Background(), "fam", "old", idempotency.Record{
		Method: "POST", Path: "/pay", StatusCode: fiber.StatusOK, Body: []byte(`{}`),
		CreatedAt: time.Now().Add(-2 * time.Hour),
	}))

	body(t, app, "POST", "/pay", key)
	assert.EqualValues(t, 1, calls.Load())
}

func TestIdempotencyKeyTooLong(t *testing.T) {
	var calls atomic.Int32
	app := idempotentApp(idempotency.NewMemoryStore(), time.Hour, counting(&calls, fiber.StatusOK))

	status, _, _ := body(t, app, "POST", "/pay", map[string]string{HeaderIdempotencyKey: strings.Repeat("k", maxKeyLength+1)})
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Zero(t, calls.Load())
}

type failingStore struct{ idempotency.Store }

func (failingStore) Get(context.Context, string, string) (idempotency.Record, bool, error) {
	return idempotency.Record{}, false, errors.New("store down")
}

func TestIdempotencyStoreFailure(t *testing.T) {
	var calls atomic.Int32
	app := idempotentApp(failingStore{idempotency.NewMemoryStore()}, time.Hour, counting(&calls, fiber.StatusOK))

	status, _, _ := body(t, app, "POST", "/pay", map[string]string{HeaderIdempotencyKey: "k"})
	assert.Equal(t, fiber.StatusInternalServerError, status)
	assert.Zero(t, calls.Load())
}

func TestIdempotencyConcurrentRetries(t *testing.T) {
	var calls atomic.Int32
	slow := func(c fiber.Ctx) error {
		n := calls.Add(1)
		time.Sleep(20 * time.Millisecond)
		return c.JSON(fiber.Map{"call": n})
	}
	app := idempotentApp(idempotency.NewMemoryStore(), time.Hour, slow)

	var wg sync.WaitGroup
	for range 5 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			req := httptest.NewRequest("POST", "/pay", nil)
			req.Header.Set(HeaderIdempotencyKey, "same")
			resp, err := app.Test(req)
			if assert.NoError(t, err) {
				assert.Equal(t, fiber.StatusOK, resp.StatusCode)
			}
		}()
	}
	wg.Wait()
	assert.EqualValues(t, 1, calls.Load())
}

func TestAccessLog(t *testing.T) {
	log, hook := test.NewNullLogger()
	app := fiber.New()
	app.Use(AccessLog(logrus.NewEntry(log)))
	app.Get("/ok", func(c fiber.Ctx) error { return c.SendString("ok") })
	app.Get("/boom", func(c fiber.Ctx) error { return errors.New("boom") })

	body(t, app, "GET", "/ok", nil)
	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.InfoLevel, entry.Level)
	assert.Equal(t, fiber.StatusOK, entry.Data["status"])
	assert.Equal(t, "/ok", entry.Data["path"])

	body(t, app, "GET", "/boom", nil)
	entry = hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.ErrorLevel, entry.Level)
	assert.Equal(t, fiber.StatusInternalServerError, entry.Data["status"])
}
