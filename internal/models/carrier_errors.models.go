package models

import "time"

// CarrierErrors is the structured failure record persisted on a shipment
// after an unsuccessful submission attempt. It is the only thing an
// operator has to work with, so it keeps both the raw provider text and
// the translated operator-facing message.
type CarrierErrors struct {
	ID            string
	ErrorCategory string
	// Message is the operator-facing translation of RawMessage.
	Message    string
	RawMessage string
	Details    []CarrierErrorDetail
	CanRetry   bool
	OccurredAt time.Time
}

// CarrierErrorDetail is one structured error entry as returned by a
// carrier API (code + human text), kept verbatim.
type CarrierErrorDetail struct {
	Code    string
	Message string
}
