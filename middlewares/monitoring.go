package middlewares

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"nexura/internal/metrics"
	"nexura/pkg/log"
)

// Monitor records request counts and latency by route template
func Monitor() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		metrics.HTTPRequestsTotal.WithLabelValues(path, c.Request.Method, strconv.Itoa(c.Writer.Status())).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(path, c.Request.Method).Observe(time.Since(start).Seconds())
	}
}

// RequestLogger logs one line per request
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		line := "%s %s %d %s"
		args := []interface{}{c.Request.Method, c.Request.URL.Path, status, time.Since(start)}
		switch {
		case status >= http.StatusInternalServerError:
			log.Errorf(line, args...)
		case status >= http.StatusBadRequest:
			log.Warnf(line, args...)
		default:
			log.Infof(line, args...)
		}
	}
}

// MetricsHandler serves the Prometheus registry behind basic auth. Empty
// credentials disable the endpoint.
func MetricsHandler(user, pass string) gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		u, p, ok := c.Request.BasicAuth()
		if user == "" || !ok || u != user || p != pass {
			c.Header("WWW-Authenticate", `Basic realm="Metrics"`)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		h.ServeHTTP(c.Writer, c.Request)
	}
}
