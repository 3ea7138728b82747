package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/siap-api/pkg/middleware/requestid"
)

const responseMetaKey = "response_meta"

type responseMeta struct {
	start  time.Time
	values gin.H
}

// WithResponseMeta starts the clock for the envelope's meta block.
func WithResponseMeta() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(responseMetaKey, &responseMeta{start: time.Now(), values: gin.H{}})
		c.Next()
	}
}

// SetCacheHit marks whether the payload was served from the stats cache.
func SetCacheHit(c *gin.Context, hit bool) {
	metaOf(c).values["cache_hit"] = hit
}

// ExtractMeta snapshots the meta block: values set by the handler, the
// request id and the time spent so far.
func ExtractMeta(c *gin.Context) map[string]interface{} {
	m := metaOf(c)
	out := make(map[string]interface{}, len(m.values)+2)
	for k, v := range m.values {
		out[k] = v
	}
	out["processing_time_ms"] = time.Since(m.start).Milliseconds()
	if id := requestid.Value(c); id != "" {
		out["request_id"] = id
	}
	return out
}

func metaOf(c *gin.Context) *responseMeta {
	if v, ok := c.Get(responseMetaKey); ok {
		if m, ok := v.(*responseMeta); ok {
			return m
		}
	}
	m := &responseMeta{start: time.Now(), values: gin.H{}}
	c.Set(responseMetaKey, m)
	return m
}
