package handlers

import (
	"context"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/PratikDhanave/returns-ledger-service/internal/pipeline"
)

const maxBodyBytes = 1 << 20

// Processor runs a delivery through the pipeline.
type Processor interface {
	Process(ctx context.Context, body []byte) pipeline.Result
}

// WebhookRecorder counts deliveries by outcome.
type WebhookRecorder interface {
	ObserveWebhook(outcome string)
}

// RegisterWebhookRoutes registers the inbound returns webhook.
//
// POST {path}
// - Body: return notification JSON from the returns platform
// - Always answers 200 "OK"; problems are logged, never reported to the sender
func RegisterWebhookRoutes(r gin.IRoutes, path string, proc Processor, rec WebhookRecorder, logger *zap.Logger) {
	if logger == nil {
		logger = zap.NewNop()
	}
	r.POST(path, func(c *gin.Context) {
		deliveryID := uuid.NewString()
		log := logger.With(zap.String("delivery_id", deliveryID))

		body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxBodyBytes))
		if err != nil {
			log.Warn("read webhook body", zap.Error(err))
			observe(rec, "unreadable")
			c.String(http.StatusOK, "OK")
			return
		}

		// The delivery is finished even if the sender hangs up first.
		res := proc.Process(context.WithoutCancel(c.Request.Context()), body)
		switch {
		case res.Invalid:
			observe(rec, "invalid")
		case res.Failed > 0:
			observe(rec, "append_failed")
		case len(res.Rows) == 0:
			observe(rec, "skipped")
		default:
			observe(rec, "processed")
		}

		log.Debug("webhook handled",
			zap.String("return_id", res.ReturnID),
			zap.Int("appended", res.Appended),
			zap.Int("failed", res.Failed),
		)
		c.String(http.StatusOK, "OK")
	})
}

func observe(rec WebhookRecorder, outcome string) {
	if rec != nil {
		rec.ObserveWebhook(outcome)
	}
}
