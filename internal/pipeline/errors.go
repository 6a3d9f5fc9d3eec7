package pipeline

import "fmt"

// Kind classifies why a notification was not turned into a guide.
type Kind int

const (
	// KindClient is a bad or missing identifier.
	KindClient Kind = iota + 1
	// KindNotFound is a referenced upstream record that does not exist.
	KindNotFound
	// KindValidation is an order that may not be shipped as it stands.
	KindValidation
	// KindTransport is a carrier that could not be reached in time.
	KindTransport
	// KindCarrier is a carrier that answered without a guide.
	KindCarrier
)

func (k Kind) String() string {
	switch k {
	case KindClient:
		return "client"
	case KindNotFound:
		return "not_found"
	case KindValidation:
		return "validation"
	case KindTransport:
		return "transport"
	case KindCarrier:
		return "carrier"
	}
	return "unknown"
}

// Error codes reported to the webhook caller.
const (
	CodeMissingID         = "missing_id"
	CodeInvalidID         = "invalid_id"
	CodePickingNotFound   = "picking_not_found"
	CodePartnerNotFound   = "partner_not_found"
	CodeValidationFailed  = "validation_failed"
	CodePartnerIncomplete = "partner_incomplete"
	CodeTransport         = "carrier_unreachable"
	CodeCarrier           = "carrier_failure"
)

// Error is a rejected or failed notification.
type Error struct {
	Kind   Kind
	Code   string
	Detail string
	// Problems lists every violated rule for KindValidation.
	Problems []string
	Err      error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Detail, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Detail)
}

func (e *Error) Unwrap() error { return e.Err }
