package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// Headers carrying response metadata on routes that answer without the envelope.
const (
	HeaderCacheHit       = "X-Cache-Hit"
	HeaderProcessingTime = "X-Processing-Time-Ms"
)

const (
	responseMetaKey  = "response_meta"
	requestStartKey  = "request_start"
	cacheHitKey      = "cache_hit"
	processingTimeMs = "processing_time_ms"
)

// WithResponseMeta initialises response metadata storage on the request context.
func WithResponseMeta() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(requestStartKey, time.Now())
		c.Set(responseMetaKey, map[string]interface{}{})
		c.Next()
	}
}

// SetCacheHit records cache hit information for the current response.
func SetCacheHit(c *gin.Context, hit bool) {
	meta := ensureMeta(c)
	meta[cacheHitKey] = hit
}

// ExtractMeta returns the metadata collected for the current response, stamped
// with the time spent so far. It returns nil when nothing was recorded.
func ExtractMeta(c *gin.Context) map[string]interface{} {
	if c == nil {
		return nil
	}
	value, exists := c.Get(responseMetaKey)
	if !exists {
		return nil
	}
	meta, ok := value.(map[string]interface{})
	if !ok || len(meta) == 0 {
		return nil
	}
	if start, ok := c.Get(requestStartKey); ok {
		if started, ok := start.(time.Time); ok {
			meta[processingTimeMs] = time.Since(started).Milliseconds()
		}
	}
	return meta
}

// WriteMetaHeaders copies the collected metadata into response headers.
func WriteMetaHeaders(c *gin.Context) {
	meta := ExtractMeta(c)
	if hit, ok := meta[cacheHitKey].(bool); ok {
		c.Header(HeaderCacheHit, strconv.FormatBool(hit))
	}
	if ms, ok := meta[processingTimeMs].(int64); ok {
		c.Header(HeaderProcessingTime, strconv.FormatInt(ms, 10))
	}
}

func ensureMeta(c *gin.Context) map[string]interface{} {
	if c == nil {
		return map[string]interface{}{}
	}
	if meta, exists := c.Get(responseMetaKey); exists {
		if typed, ok := meta.(map[string]interface{}); ok {
			return typed
		}
	}
	newMeta := make(map[string]interface{})
	c.Set(responseMetaKey, newMeta)
	return newMeta
}
