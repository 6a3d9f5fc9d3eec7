package servientrega

import "strings"

// NoGuideNumber is the failure message when a reply carries neither a guide nor errors.
const NoGuideNumber = "no guide number returned"

// GuideOutcome is either GuideCreated or GuideRejected.
type GuideOutcome interface {
	isGuideOutcome()
}

// GuideCreated carries the accepted air-waybill number.
type GuideCreated struct {
	Number string
}

// GuideRejected carries the carrier's error strings, in reply order.
type GuideRejected struct {
	Messages []string
}

func (GuideCreated) isGuideOutcome()  {}
func (GuideRejected) isGuideOutcome() {}

// Message joins the carrier messages for display.
func (r GuideRejected) Message() string {
	return strings.Join(r.Messages, " | ")
}

// LabelResult is either LabelFetched or LabelUnavailable.
type LabelResult interface {
	isLabelResult()
}

// LabelFetched holds the printable sticker as returned (base64) and decoded.
type LabelFetched struct {
	Encoded  string
	Document []byte
}

// LabelUnavailable explains why no sticker could be obtained.
type LabelUnavailable struct {
	Reason string
}

func (LabelFetched) isLabelResult()     {}
func (LabelUnavailable) isLabelResult() {}
