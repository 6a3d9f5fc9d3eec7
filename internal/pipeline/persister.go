package pipeline

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/imrishuroy/go-servientrega-webhook/internal/odoo"
	"github.com/imrishuroy/go-servientrega-webhook/internal/servientrega"
	"github.com/imrishuroy/go-servientrega-webhook/internal/shipping"
)

// Upstream fields written back on a created guide.
const (
	fieldTrackingRef = "carrier_tracking_ref"
	fieldTrackingURL = "carrier_tracking_url"
	fieldOtherFlag   = "x_studio_tcc"
)

// Persister writes a created guide back to the upstream order.
type Persister struct {
	store odoo.Store
}

func NewPersister(store odoo.Store) *Persister {
	return &Persister{store: store}
}

// Persist writes the tracking reference, URL and carrier flags. Only that
// write can fail the call: the audit note and the label attachment that follow
// are logged on failure and otherwise ignored.
func (p *Persister) Persist(ctx context.Context, orderID int64, guide, url string, label servientrega.LabelResult) error {
	logger := zerolog.Ctx(ctx).With().Int64("order_id", orderID).Str("guide", guide).Logger()
	logger.Info().Msg("persisting guide")

	err := p.store.Write(ctx, shipping.ModelOrder, []int64{orderID}, map[string]interface{}{
		fieldTrackingRef:          guide,
		fieldTrackingURL:          url,
		shipping.CarrierFlagField: true,
		fieldOtherFlag:            false,
	})
	if err != nil {
		logger.Error().Err(err).Msg("guide write-back failed")
		return fmt.Errorf("write %s %d: %w", shipping.ModelOrder, orderID, err)
	}

	if err := p.store.PostNote(ctx, shipping.ModelOrder, orderID, "Guía Servientrega generada: "+guide); err != nil {
		logger.Warn().Err(err).Msg("audit note not posted")
	}

	if fetched, ok := label.(servientrega.LabelFetched); ok {
		id, err := p.store.Create(ctx, shipping.ModelAttachment, map[string]interface{}{
			"name":      "Guia_" + guide + ".pdf",
			"type":      "binary",
			"datas":     fetched.Encoded,
			"res_model": shipping.ModelOrder,
			"res_id":    orderID,
			"mimetype":  "application/pdf",
		})
		if err != nil {
			logger.Warn().Err(err).Msg("label not attached")
		} else {
			logger.Info().Int64("attachment_id", id).Msg("label attached")
		}
	}
	return nil
}
