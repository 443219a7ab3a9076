package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

type rateWindow struct {
	count   int
	resetAt time.Time
}

// RateLimit caps requests per client IP over a fixed window. State is
// in-process only, matching the single-process deployment model of the rest
// of the service.
func RateLimit(max int, window time.Duration) gin.HandlerFunc {
	var mu sync.Mutex
	windows := make(map[string]*rateWindow)

	return func(c *gin.Context) {
		now := time.Now()
		ip := c.ClientIP()

		mu.Lock()
		w, ok := windows[ip]
		if !ok || now.After(w.resetAt) {
			w = &rateWindow{resetAt: now.Add(window)}
			windows[ip] = w
			// Opportunistic cleanup so long-gone clients don't pile up.
			for k, v := range windows {
				if now.After(v.resetAt) {
					delete(windows, k)
				}
			}
		}
		w.count++
		exceeded := w.count > max
		mu.Unlock()

		if exceeded {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"success": false, "error": "Too many requests"})
			return
		}
		c.Next()
	}
}
