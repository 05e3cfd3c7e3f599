package main

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// newRouter returns the HTTP routes of the demo server
func newRouter(d *Demo, reg *prometheus.Registry) *gin.Engine {

	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(d.log))

	api := r.Group("/api")
	api.Use(cors.Default())
	{
		api.GET("/ping", Ping)
		api.GET("/tracks", d.Tracks)
	}

	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg,
		promhttp.HandlerOpts{Registry: reg})))
	r.GET("/stream", d.Stream)

	return r
}

// Ping is the liveness check
func Ping(c *gin.Context) {
	c.Header("Cache-Control", "no-store")
	c.JSON(200, gin.H{"status": "ok"})
}

// requestLogger logs each request once it completes.  Streams are logged
// when the client disconnects
func requestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		log.Debug("Request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)))
	}
}
