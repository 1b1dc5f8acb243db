package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	metaKey      = "response_meta"
	metaStartKey = "response_meta_start"
	cacheHeader  = "X-Cache"
)

// WithResponseMeta opens a per-request meta map that handlers can fill and
// pass to response.JSON via ExtractMeta.
func WithResponseMeta() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(metaStartKey, time.Now())
		c.Set(metaKey, map[string]interface{}{})
		c.Next()
	}
}

// PublicCache lets clients and proxies keep successful responses for
// maxAge. Error responses still override it with no-store.
func PublicCache(maxAge time.Duration) gin.HandlerFunc {
	value := "public, max-age=" + strconv.Itoa(int(maxAge/time.Second))
	return func(c *gin.Context) {
		c.Header("Cache-Control", value)
		c.Next()
	}
}

// SetCacheHit records whether an aggregate came from the cache, in the meta
// map and in an X-Cache header.
func SetCacheHit(c *gin.Context, hit bool) {
	metaFor(c)["cache_hit"] = hit
	if hit {
		c.Header(cacheHeader, "HIT")
	} else {
		c.Header(cacheHeader, "MISS")
	}
}

// ExtractMeta returns the request's meta map with the elapsed processing
// time filled in, or nil when WithResponseMeta never ran.
func ExtractMeta(c *gin.Context) map[string]interface{} {
	if c == nil {
		return nil
	}
	raw, ok := c.Get(metaKey)
	if !ok {
		return nil
	}
	meta, _ := raw.(map[string]interface{})
	if meta == nil {
		return nil
	}
	if start, ok := c.Get(metaStartKey); ok {
		if t, ok := start.(time.Time); ok {
			meta["processing_time_ms"] = time.Since(t).Milliseconds()
		}
	}
	return meta
}

func metaFor(c *gin.Context) map[string]interface{} {
	if meta := ExtractMeta(c); meta != nil {
		return meta
	}
	meta := map[string]interface{}{}
	c.Set(metaKey, meta)
	return meta
}
