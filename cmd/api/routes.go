package main

import (
	"ivr-service/internal/httpapi"
	"ivr-service/internal/telephony"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// registerRoutes wires HTTP routes to handlers.
// Keep this file free of business logic. Handlers should delegate to internal modules.
// feedGuard runs before the activity feed; it is empty when auth is disabled.
func registerRoutes(r *gin.Engine, h httpapi.Handlers, feedGuard ...gin.HandlerFunc) {
	// public
	r.GET("/healthz", h.Healthz)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Provider webhooks (public).
	// NOTE: These endpoints should be protected by Twilio signature validation in production.
	r.POST("/voice", h.Voice)
	r.POST(telephony.PathVoicemailComplete, h.RecordedVoicemail)
	r.POST(telephony.PathOutboundVoice, h.OutboundVoice)
	r.POST(telephony.PathOutboundStatus, h.OutboundStatus)

	// Reporting
	feed := append(append([]gin.HandlerFunc{}, feedGuard...), h.ActivityFeed)
	r.GET("/activity-feed", feed...)
}
