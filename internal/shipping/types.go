package shipping

import "github.com/imrishuroy/go-servientrega-webhook/internal/odoo"

// Upstream models read by the pipeline.
const (
	ModelOrder      = "stock.picking"
	ModelPartner    = "res.partner"
	ModelMove       = "stock.move"
	ModelAttachment = "ir.attachment"
)

// StateDone is the terminal order state required before shipping.
const StateDone = "done"

// CarrierFlagField is a custom boolean that only exists in non-production schemas.
const CarrierFlagField = "x_studio_servientrega"

// Order is a read-only snapshot of a stock.picking.
type Order struct {
	ID             int64
	Name           string
	State          string
	TrackingRef    string
	MoveLineIDs    []int64
	MoveIDs        []int64
	PartnerID      int64
	ShippingWeight float64
	Weight         float64
	CarrierID      int64
	CarrierName    string
	CarrierFlag    bool
}

// Party is the recipient res.partner.
type Party struct {
	Name   string `json:"name" validate:"required"`
	Street string `json:"street" validate:"required"`
	City   string `json:"city" validate:"required"`
	Phone  string `json:"phone"`
	Mobile string `json:"mobile"`
	VAT    string `json:"vat"`
}

// LineItem is one stock.move of the order.
type LineItem struct {
	ProductID   int64
	ProductName string
	Quantity    float64
	UnitPrice   float64
}

// OrderFields lists every order field the pipeline needs. The carrier flag is
// only requested where the schema carries it.
func OrderFields(withCarrierFlag bool) []string {
	fields := []string{
		"id",
		"name",
		"state",
		"carrier_tracking_ref",
		"move_line_ids",
		"partner_id",
		"shipping_weight",
		"weight",
		"move_ids",
		"carrier_id",
	}
	if withCarrierFlag {
		fields = append(fields, CarrierFlagField)
	}
	return fields
}

// PartyFields are read from res.partner.
var PartyFields = []string{"name", "street", "city", "phone", "mobile", "vat"}

// LineItemFields are read from stock.move.
var LineItemFields = []string{"product_id", "product_uom_qty", "price_unit"}

// OrderFromRecord decodes a stock.picking row.
func OrderFromRecord(rec odoo.Record) Order {
	o := Order{
		ID:             int64(rec.Float("id")),
		Name:           rec.String("name"),
		State:          rec.String("state"),
		TrackingRef:    rec.String("carrier_tracking_ref"),
		MoveLineIDs:    rec.IDs("move_line_ids"),
		MoveIDs:        rec.IDs("move_ids"),
		ShippingWeight: rec.Float("shipping_weight"),
		Weight:         rec.Float("weight"),
		CarrierFlag:    rec.Bool(CarrierFlagField),
	}
	o.PartnerID, _, _ = rec.Many2One("partner_id")
	o.CarrierID, o.CarrierName, _ = rec.Many2One("carrier_id")
	return o
}

// PartyFromRecord decodes a res.partner row.
func PartyFromRecord(rec odoo.Record) Party {
	return Party{
		Name:   rec.String("name"),
		Street: rec.String("street"),
		City:   rec.String("city"),
		Phone:  rec.String("phone"),
		Mobile: rec.String("mobile"),
		VAT:    rec.String("vat"),
	}
}

// LineItemsFromRecords decodes stock.move rows.
func LineItemsFromRecords(recs []odoo.Record) []LineItem {
	out := make([]LineItem, 0, len(recs))
	for _, rec := range recs {
		item := LineItem{
			Quantity:  rec.Float("product_uom_qty"),
			UnitPrice: rec.Float("price_unit"),
		}
		item.ProductID, item.ProductName, _ = rec.Many2One("product_id")
		out = append(out, item)
	}
	return out
}
