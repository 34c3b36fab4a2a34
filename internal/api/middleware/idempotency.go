package middleware

import (
	"hash/fnv"
	"slices"
	"sync"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/sirupsen/logrus"

	"github.com/JhonesBR/go-ledger/internal/idempotency"
)

const (
	HeaderIdempotencyKey = "Idempotency-Key"
	HeaderReplayed       = "Idempotent-Replayed"
	maxKeyLength         = 255
)

// Idempotency replays the stored response when a request repeats a key the
// same owner used within ttl. Server errors are not stored, so they can be
// retried.
func Idempotency(store idempotency.Store, ttl time.Duration, log *logrus.Entry) fiber.Handler {
	var locks keyLocks

	return func(c fiber.Ctx) error {
		key := c.Get(HeaderIdempotencyKey)
		if key == "" || c.Method() == fiber.MethodGet || c.Method() == fiber.MethodHead {
			return c.Next()
		}
		if len(key) > maxKeyLength {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Idempotency-Key is too long",
			})
		}

		owner := OwnerID(c)
		method, path := c.Method(), c.Path()

		// Requests sharing a key run one at a time, so the second sees the
		// first one's stored response.
		unlock := locks.lock(owner + "\x00" + key)
		defer unlock()

		rec, found, err := store.Get(c.RequestCtx(), owner, key)
		if err != nil {
			return err
		}
		if found && time.Since(rec.CreatedAt) < ttl {
			if !rec.Matches(method, path) {
				return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
					"error": "Idempotency-Key was already used for a different request",
				})
			}
			log.WithFields(logrus.Fields{"owner": owner, "key": key}).Debug("idempotent replay")
			c.Set(HeaderReplayed, "true")
			c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
			return c.Status(rec.StatusCode).Send(rec.Body)
		}

		if err := c.Next(); err != nil {
			return err
		}

		status := c.Response().StatusCode()
		if status >= fiber.StatusInternalServerError {
			return nil
		}
		err = store.Save(c.RequestCtx(), owner, key, idempotency.Record{
			Method:     method,
			Path:       path,
			StatusCode: status,
			Body:       slices.Clone(c.Response().Body()),
			CreatedAt:  time.Now().UTC(),
		})
		if err != nil {
			log.WithError(err).WithField("key", key).Warn("save idempotency key")
		}
		return nil
	}
}

// keyLocks is a fixed set of mutexes picked by key hash.
type keyLocks struct {
	stripes [64]sync.Mutex
}

func (l *keyLocks) lock(key string) func() {
	h := fnv.New32a()
	h.Write([]byte(key))
	mu := &l.stripes[h.Sum32()%uint32(len(l.stripes))]
	mu.Lock()
	return mu.Unlock
}
