package shipping

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	validatorv10 "github.com/go-playground/validator/v10"

	"github.com/imrishuroy/go-servientrega-webhook/internal/validation"
)

// Derivation floors and fallbacks.
const (
	MinWeight        = 1.0
	MinDeclaredValue = 5000.0
	MaxContentLength = 50
	GenericContent   = "MERCANCIA GENERAL"
	PlaceholderVAT   = "0000000000"
	RecipientCountry = "CO"
	Pieces           = 1
)

// Contact is a sender or recipient block.
type Contact struct {
	Name           string
	Address        string
	City           string
	Country        string
	Phone          string
	Identification string
}

// ShipmentPayload is the carrier-neutral description of one shipment.
type ShipmentPayload struct {
	Reference     string  `json:"referencia" validate:"required"`
	Content       string  `json:"contenido" validate:"required"`
	Pieces        int     `json:"numeroPiezas" validate:"eq=1"`
	TotalWeight   float64 `json:"pesoTotal" validate:"gte=1"`
	DeclaredValue float64 `json:"valorDeclarado" validate:"gte=5000"`
	Sender        Contact `json:"remitente"`
	Recipient     Contact `json:"destinatario"`
}

// Goods is the aggregate derived from an order's line items.
type Goods struct {
	DeclaredValue float64
	Content       string
}

// MissingFieldError reports required Party fields that were empty.
type MissingFieldError struct {
	Fields []string
}

func (e *MissingFieldError) Error() string {
	return "missing required field(s): " + strings.Join(e.Fields, ", ")
}

// Builder turns an order, its party and its goods into a ShipmentPayload.
type Builder struct {
	sender   Contact
	validate *validatorv10.Validate
}

// NewBuilder returns a Builder with a static sender block.
func NewBuilder(sender Contact) *Builder {
	v := validation.New()
	v.RegisterStructValidation(contentLengthValidation, ShipmentPayload{})
	return &Builder{sender: sender, validate: v}
}

// Build performs no I/O. It fails only when the party lacks required fields.
func (b *Builder) Build(o Order, p Party, g Goods) (ShipmentPayload, error) {
	if err := b.validate.Struct(p); err != nil {
		var ve validatorv10.ValidationErrors
		if errors.As(err, &ve) {
			fields := make([]string, 0, len(ve))
			for _, fe := range ve {
				fields = append(fields, fe.Field())
			}
			sort.Strings(fields)
			return ShipmentPayload{}, &MissingFieldError{Fields: fields}
		}
		return ShipmentPayload{}, fmt.Errorf("validate party: %w", err)
	}

	content := g.Content
	if content == "" {
		content = GenericContent
	}

	payload := ShipmentPayload{
		Reference:     o.Name,
		Content:       truncate(content, MaxContentLength),
		Pieces:        Pieces,
		TotalWeight:   Weight(o),
		DeclaredValue: floorValue(g.DeclaredValue),
		Sender:        b.sender,
		Recipient: Contact{
			Name:           p.Name,
			Address:        p.Street,
			City:           p.City,
			Country:        RecipientCountry,
			Phone:          firstNonEmpty(p.Phone, p.Mobile),
			Identification: firstNonEmpty(p.VAT, PlaceholderVAT),
		},
	}

	if err := b.validate.Struct(payload); err != nil {
		return ShipmentPayload{}, fmt.Errorf("payload invariants: %s", strings.Join(validation.Problems(err), "; "))
	}
	return payload, nil
}

// Weight prefers shipping_weight, then weight, then 1.0, clamped to MinWeight.
func Weight(o Order) float64 {
	w := o.ShippingWeight
	if w == 0 {
		w = o.Weight
	}
	if w < MinWeight {
		w = MinWeight
	}
	return w
}

// Summarize derives the declared value and content description of the items.
func Summarize(items []LineItem) Goods {
	return Goods{
		DeclaredValue: DeclaredValue(items),
		Content:       Content(items),
	}
}

// DeclaredValue sums quantity × unit price, floored at MinDeclaredValue.
func DeclaredValue(items []LineItem) float64 {
	var total float64
	for _, it := range items {
		total += it.Quantity * it.UnitPrice
	}
	return floorValue(total)
}

// Content joins a two-word short name per product, drops bracketed SKU
// prefixes and truncates to MaxContentLength characters.
func Content(items []LineItem) string {
	var names []string
	for _, it := range items {
		if short := shortName(it.ProductName); short != "" {
			names = append(names, short)
		}
	}
	content := truncate(strings.Join(names, ", "), MaxContentLength)
	if content == "" {
		return GenericContent
	}
	return content
}

func shortName(full string) string {
	if _, after, found := strings.Cut(full, "]"); found {
		full = after
	}
	words := strings.Fields(full)
	if len(words) > 2 {
		words = words[:2]
	}
	return strings.Join(words, " ")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func floorValue(v float64) float64 {
	if v < MinDeclaredValue {
		return MinDeclaredValue
	}
	return v
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func contentLengthValidation(sl validatorv10.StructLevel) {
	p := sl.Current().Interface().(ShipmentPayload)
	if len([]rune(p.Content)) > MaxContentLength {
		sl.ReportError(p.Content, "contenido", "Content", "max_content", fmt.Sprint(MaxContentLength))
	}
}
