package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/imrishuroy/go-servientrega-webhook/internal/pipeline"
	"github.com/imrishuroy/go-servientrega-webhook/internal/validation"
)

// Processor runs the guide pipeline for one notification.
type Processor interface {
	Process(ctx context.Context, model string, rawID interface{}) (pipeline.Result, error)
}

// HandlerConfig groups dependencies for the webhook handler.
type HandlerConfig struct {
	Pipeline Processor
}

// RegisterWebhookRoutes registers POST /webhook.
func RegisterWebhookRoutes(r *gin.Engine, cfg HandlerConfig) {
	v := validation.New()

	r.POST("/webhook", func(c *gin.Context) {
		ctx := c.Request.Context()

		// an empty body is a notification without an id
		var n validation.Notification
		if c.Request.ContentLength != 0 {
			if err := validation.BindAndValidate(c, &n, v); err != nil {
				// BindAndValidate already wrote a 400
				return
			}
		}

		res, err := cfg.Pipeline.Process(ctx, n.Model, n.RecordID())
		if err != nil {
			writeError(c, err)
			return
		}

		switch res.Outcome {
		case pipeline.Skipped:
			body := gin.H{"ok": true, "skipped": true}
			if res.Reason == pipeline.ReasonNonOrderModel {
				body["reason"] = res.Reason
			}
			c.JSON(http.StatusOK, body)
		case pipeline.Existing:
			c.JSON(http.StatusOK, gin.H{"ok": true, "guia": res.Guide, "url": res.URL, "message": pipeline.ExistingMessage})
		default:
			c.JSON(http.StatusOK, gin.H{"ok": true, "guia": res.Guide, "url": res.URL})
		}
	})
}

func writeError(c *gin.Context, err error) {
	var pe *pipeline.Error
	if !errors.As(err, &pe) {
		zerolog.Ctx(c.Request.Context()).Error().Err(err).Msg("unexpected pipeline error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error", "detail": err.Error()})
		return
	}

	zerolog.Ctx(c.Request.Context()).Warn().Err(err).Str("kind", pe.Kind.String()).Msg("notification not processed")

	switch pe.Kind {
	case pipeline.KindClient:
		c.JSON(http.StatusBadRequest, gin.H{"error": pe.Code, "detail": pe.Detail})
	case pipeline.KindNotFound:
		c.JSON(http.StatusNotFound, gin.H{"error": pe.Code, "detail": pe.Detail})
	case pipeline.KindValidation:
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": pe.Code, "detail": pe.Detail, "problems": pe.Problems})
	default:
		c.JSON(http.StatusBadGateway, gin.H{"ok": false, "detail": gin.H{"ok": false, "mensaje": pe.Detail}})
	}
}
