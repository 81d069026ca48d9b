package middleware

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/cinema-ops-manager/internal/config"
)

// captureWriter tees the response body into buf up to limit bytes.
type captureWriter struct {
	http.ResponseWriter
	status    int
	buf       bytes.Buffer
	limit     int
	truncated bool
}

func (cw *captureWriter) WriteHeader(code int) {
	cw.status = code
	cw.ResponseWriter.WriteHeader(code)
}

func (cw *captureWriter) Write(b []byte) (int, error) {
	if !cw.truncated {
		if cw.limit > 0 && cw.buf.Len()+len(b) > cw.limit {
			cw.truncated = true
		} else {
			cw.buf.Write(b)
		}
	}
	return cw.ResponseWriter.Write(b)
}

// Cache serves GET responses of the public catalog from Redis.  Entries
// live under one prefix so that Purge can drop them all after a catalog
// write.
type Cache struct {
	cfg config.CacheConfig
	rdb redis.UniversalClient
	log logrus.FieldLogger
}

// NewCache returns a cache; a nil client or disabled config makes both
// Middleware and Purge no-ops.
func NewCache(cfg config.CacheConfig, rdb redis.UniversalClient, log logrus.FieldLogger) *Cache {
	if !cfg.Enabled {
		rdb = nil
	}
	return &Cache{cfg: cfg, rdb: rdb, log: log}
}

func (ca *Cache) key(c echo.Context) string {
	sum := sha1.Sum([]byte(c.Path() + "?" + c.Request().URL.RawQuery + "#" + c.Request().URL.Path))
	return fmt.Sprintf("%s:%x", ca.cfg.Prefix, sum[:])
}

// Middleware caches successful GET responses for cfg.TTL.
func (ca *Cache) Middleware() echo.MiddlewareFunc {
	if ca.rdb == nil {
		return passthrough
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if c.Request().Method != http.MethodGet {
				return next(c)
			}
			ctx := c.Request().Context()
			key := ca.key(c)

			if bs, err := ca.rdb.Get(ctx, key).Bytes(); err == nil {
				if status, hdr, body, ok := decodePayload(bs); ok {
					for k, vals := range hdr {
						if strings.EqualFold(k, echo.HeaderContentLength) || k == HeaderCorrelationID {
							continue
						}
						for _, v := range vals {
							c.Response().Header().Add(k, v)
						}
					}
					c.Response().Header().Set("X-Cache", "HIT")
					return c.Blob(status, hdr.Get(echo.HeaderContentType), body)
				}
			}

			cw := &captureWriter{ResponseWriter: c.Response().Writer, status: http.StatusOK, limit: ca.cfg.MaxBodyBytes}
			c.Response().Writer = cw
			c.Response().Header().Set("X-Cache", "MISS")
			if err := next(c); err != nil {
				return err
			}
			if cw.status != http.StatusOK || cw.truncated {
				return nil
			}
			payload, err := encodePayload(cw.status, c.Response().Header().Clone(), cw.buf.Bytes())
			if err != nil {
				return nil
			}
			if err := ca.rdb.Set(context.WithoutCancel(ctx), key, payload, ca.cfg.TTL).Err(); err != nil {
				ca.log.WithError(err).Warn("cache store failed")
			}
			return nil
		}
	}
}

// Purge deletes every cached response under the prefix.
func (ca *Cache) Purge(ctx context.Context) {
	if ca.rdb == nil {
		return
	}
	iter := ca.rdb.Scan(ctx, 0, ca.cfg.Prefix+":*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		ca.log.WithError(err).Warn("cache purge scan failed")
		return
	}
	if len(keys) == 0 {
		return
	}
	if err := ca.rdb.Del(ctx, keys...).Err(); err != nil {
		ca.log.WithError(err).Warn("cache purge failed")
	}
}

// encodePayload packs [4 bytes status][4 bytes header length][header JSON][body].
func encodePayload(status int, header http.Header, body []byte) ([]byte, error) {
	hdr, err := json.Marshal(header)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 8+len(hdr)+len(body))
	binary.BigEndian.PutUint32(out[0:4], uint32(status))
	binary.BigEndian.PutUint32(out[4:8], uint32(len(hdr)))
	copy(out[8:], hdr)
	copy(out[8+len(hdr):], body)
	return out, nil
}

func decodePayload(bs []byte) (int, http.Header, []byte, bool) {
	if len(bs) < 8 {
		return 0, nil, nil, false
	}
	status := int(binary.BigEndian.Uint32(bs[0:4]))
	hlen := int(binary.BigEndian.Uint32(bs[4:8]))
	if 8+hlen > len(bs) {
		return 0, nil, nil, false
	}
	hdr := make(http.Header)
	if hlen > 0 {
		if err := json.Unmarshal(bs[8:8+hlen], &hdr); err != nil {
			return 0, nil, nil, false
		}
	}
	return status, hdr, bs[8+hlen:], true
}
