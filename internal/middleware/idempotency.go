package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

const (
	idempotencyHeader  = "Idempotency-Key"
	idempotencyTTL     = 24 * time.Hour
	idempotencyLockTTL = 30 * time.Second
	maxIdempotencyKey  = 255
)

// storedResponse is a completed response kept for replay.
type storedResponse struct {
	Status      int    `json:"status"`
	ContentType string `json:"content_type,omitempty"`
	Body        []byte `json:"body"`
}

// capturingWriter tees the response body so it can be stored after the handler runs.
type capturingWriter struct {
	gin.ResponseWriter
	body bytes.Buffer
}

func (w *capturingWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

// replayStore keeps responses and in-flight markers under "idempotency:" keys.
type replayStore struct {
	client redis.Cmdable
}

func (s replayStore) load(ctx context.Context, key string) (*storedResponse, error) {
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		return nil, err
	}
	var resp storedResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (s replayStore) save(ctx context.Context, key string, resp storedResponse) error {
	data, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, key, data, idempotencyTTL).Err()
}

func (s replayStore) claim(ctx context.Context, key string) (bool, error) {
	return s.client.SetNX(ctx, key+":lock", "1", idempotencyLockTTL).Result()
}

func (s replayStore) release(ctx context.Context, key string) {
	s.client.Del(ctx, key+":lock")
}

// IdempotencyMiddleware replays the stored response for a repeated Idempotency-Key.
// Keys are scoped to the caller and route. A second request arriving while the first
// is still running gets 409. Server errors are not stored, so the client may retry them.
// When Redis is unavailable the request runs without replay protection.
func IdempotencyMiddleware(client redis.Cmdable) gin.HandlerFunc {
	store := replayStore{client: client}

	return func(c *gin.Context) {
		key := c.GetHeader(idempotencyHeader)
		if key == "" || !mutating(c.Request.Method) {
			c.Next()
			return
		}
		if len(key) > maxIdempotencyKey {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Idempotency-Key too long"})
			return
		}

		ctx := c.Request.Context()
		storeKey := replayKey(c, key)

		stored, err := store.load(ctx, storeKey)
		switch {
		case err == nil:
			contentType := stored.ContentType
			if contentType == "" {
				contentType = "application/json"
			}
			c.Header("Idempotent-Replayed", "true")
			c.Data(stored.Status, contentType, stored.Body)
			c.Abort()
			return
		case !errors.Is(err, redis.Nil):
			c.Next()
			return
		}

		claimed, err := store.claim(ctx, storeKey)
		if err == nil && !claimed {
			c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "a request with this Idempotency-Key is already in progress"})
			return
		}
		if err == nil {
			defer store.release(context.WithoutCancel(ctx), storeKey)
		}

		w := &capturingWriter{ResponseWriter: c.Writer}
		c.Writer = w
		c.Next()

		status := w.Status()
		if status >= http.StatusInternalServerError {
			return
		}
		_ = store.save(context.WithoutCancel(ctx), storeKey, storedResponse{
			Status:      status,
			ContentType: w.Header().Get("Content-Type"),
			Body:        w.body.Bytes(),
		})
	}
}

// IdempotencyKeyFrom returns the client's Idempotency-Key header.
func IdempotencyKeyFrom(c *gin.Context) string {
	return c.GetHeader(idempotencyHeader)
}

func mutating(method string) bool {
	return method == http.MethodPost || method == http.MethodPut || method == http.MethodPatch
}

func replayKey(c *gin.Context, key string) string {
	scope := "anonymous"
	if p := PrincipalFrom(c); p != nil {
		scope = p.ID
	}
	return "idempotency:" + scope + ":" + c.Request.Method + ":" + c.FullPath() + ":" + key
}
