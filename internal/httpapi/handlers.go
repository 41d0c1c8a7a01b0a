package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"ivr-service/internal/calls"
	"ivr-service/internal/ivr"
	"ivr-service/internal/reporting"
	"ivr-service/internal/telephony"
	"ivr-service/pkg/logger"

	"github.com/gin-gonic/gin"
)

const healthTimeout = 2 * time.Second

// Handlers groups HTTP handlers for dependency injection.
// Keep these thin: parse/validate input, call internal services, write TwiML or JSON.
type Handlers struct {
	Dispatcher *ivr.Dispatcher
	Feed       *reporting.Service
	Store      calls.Store
}

// --- Provider webhooks ---

// Voice handles the inbound-call webhook (Digits, From).
// NOTE: Twilio signature validation belongs in front of this route in production.
func (h Handlers) Voice(c *gin.Context) {
	ctx := c.Request.Context()

	form, err := telephony.ParseInboundCall(c.Request)
	if err != nil {
		h.invalidEvent(c, err)
		return
	}

	res, err := h.Dispatcher.HandleInboundEvent(ctx, form)
	if err != nil {
		// The call must not be acknowledged as routed when it was not recorded.
		_ = c.Error(err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "call not recorded"})
		return
	}
	writeTwiML(c, res.TwiML)
}

// RecordedVoicemail handles the recording-completion callback (CallId, RecordingUrl).
func (h Handlers) RecordedVoicemail(c *gin.Context) {
	ctx := c.Request.Context()

	form, err := telephony.ParseVoicemail(c.Request)
	if err != nil {
		h.invalidEvent(c, err)
		return
	}

	if form.NoRecording {
		doc, err := h.Dispatcher.HandleVoicemailSkipped(ctx, form.CallID)
		if err != nil {
			_ = c.Error(err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "response rendering failed"})
			return
		}
		writeTwiML(c, doc)
		return
	}

	doc, err := h.Dispatcher.HandleVoicemailEvent(ctx, form.CallID, form.RecordingURL)
	if err != nil {
		// Already alerted by the dispatcher; the caller is still thanked.
		_ = c.Error(err)
	}
	if doc == "" {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "response rendering failed"})
		return
	}
	writeTwiML(c, doc)
}

// OutboundVoice is the answer URL of the bridge leg.
func (h Handlers) OutboundVoice(c *gin.Context) {
	doc, err := h.Dispatcher.HandleOutboundAnswer()
	if err != nil {
		_ = c.Error(err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "response rendering failed"})
		return
	}
	writeTwiML(c, doc)
}

// OutboundStatus is the status callback of the bridge leg.
func (h Handlers) OutboundStatus(c *gin.Context) {
	ctx := c.Request.Context()

	form, err := telephony.ParseOutboundStatus(c.Request)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.Dispatcher.HandleOutboundStatus(ctx, form); err != nil {
		_ = c.Error(err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "status not processed"})
		return
	}
	c.Status(http.StatusNoContent)
}

// invalidEvent answers a malformed webhook with the safe invalid-selection document
// so the provider always gets valid markup.
func (h Handlers) invalidEvent(c *gin.Context, cause error) {
	logger.FromGin(c).Warn("invalid webhook", "path", c.Request.URL.Path, "err", cause)

	doc, err := h.Dispatcher.InvalidEventResponse()
	if err != nil {
		_ = c.Error(err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "response rendering failed"})
		return
	}
	writeTwiML(c, doc)
}

// --- Reporting ---

// ActivityFeed returns every call joined with its voicemail URL.
func (h Handlers) ActivityFeed(c *gin.Context) {
	entries, err := h.Feed.Assemble(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		if errors.Is(err, reporting.ErrFeedUnavailable) {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "activity feed unavailable"})
			return
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "activity feed failed"})
		return
	}
	c.JSON(http.StatusOK, entries)
}

// --- Ops ---

func (h Handlers) Healthz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
	defer cancel()

	if h.Store != nil {
		if err := h.Store.Ping(ctx); err != nil {
			logger.FromGin(c).Warn("store ping failed", "err", err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "store": "unreachable"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func writeTwiML(c *gin.Context, doc string) {
	c.Data(http.StatusOK, telephony.ContentTypeTwiML, []byte(doc))
}
