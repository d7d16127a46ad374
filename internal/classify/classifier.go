// Package classify maps arbitrary carrier error text onto a fixed,
// actionable taxonomy. Carriers return free-form messages; operators
// need a category, a retry verdict and a readable summary. The cascade
// here is deliberately dumb substring matching: it has to work on any
// provider's wording without per-carrier parsers.
package classify

import (
	"strings"
	"time"

	"github.com/usama216/shipping-market-sub001/internal/models"
)

// Error categories. Every classified failure lands in exactly one.
const (
	CategoryAuth               = "auth_error"
	CategoryAddressValidation  = "address_validation"
	CategoryPackageValidation  = "package_validation"
	CategoryRateLimited        = "rate_limited"
	CategoryNetwork            = "network_error"
	CategoryServiceUnavailable = "service_unavailable"
	CategoryAPI                = "api_error"
	// CategoryAPIRejection is a carrier business rejection we could not
	// classify further; CategorySystem is a local/infrastructure fault.
	CategoryAPIRejection = "api_rejection"
	CategorySystem       = "system_error"
)

// ClassifiedError is the ephemeral result of classification, carried to
// the store as a models.CarrierErrors record.
type ClassifiedError struct {
	Category   string
	Message    string // operator-facing translation
	RawMessage string
	Details    []models.CarrierErrorDetail
	CanRetry   bool
	OccurredAt time.Time
}

// categoryRule is one step of the cascade. Order matters: the first rule
// whose keywords hit the message wins.
type categoryRule struct {
	category string
	keywords []string
}

var cascade = []categoryRule{
	{CategoryAuth, []string{"authentication", "credential", "unauthorized", "api key", "access token"}},
	{CategoryAddressValidation, []string{"address", "postal", "zip", "city", "country code"}},
	{CategoryPackageValidation, []string{"weight", "dimension", "oversize", "girth"}},
	{CategoryRateLimited, []string{"rate limit", "throttl", "too many requests"}},
	{CategoryNetwork, []string{"timeout", "timed out", "connection", "no such host", "eof"}},
	{CategoryServiceUnavailable, []string{"service unavailable", "unavailable", "maintenance", "503"}},
}

// retryable is the fixed category -> can_retry table. Transient faults
// may be retried by an operator; everything else needs a data or
// configuration fix first.
var retryable = map[string]bool{
	CategoryNetwork:            true,
	CategoryRateLimited:        true,
	CategoryServiceUnavailable: true,
	CategorySystem:             true,
}

// friendly maps categories to operator-facing phrasing, independent of
// whatever the provider said.
var friendly = map[string]string{
	CategoryAuth:               "Carrier rejected our credentials. Check the API keys for this carrier.",
	CategoryAddressValidation:  "The carrier could not validate the destination address.",
	CategoryPackageValidation:  "The carrier rejected the package weight or dimensions.",
	CategoryRateLimited:        "The carrier is rate limiting us. Retry after a short wait.",
	CategoryNetwork:            "Could not reach the carrier. Retry once connectivity recovers.",
	CategoryServiceUnavailable: "The carrier API is temporarily unavailable. Retry later.",
	CategoryAPI:                "The carrier returned an unrecognized error. See the raw message.",
	CategoryAPIRejection:       "The carrier rejected the shipment without details.",
	CategorySystem:             "An internal error interrupted the submission. Safe to retry.",
}

// Classify buckets a raw carrier message into exactly one category. An
// empty or unmatched message falls through to api_error.
func Classify(raw string) ClassifiedError {
	lower := strings.ToLower(raw)
	category := CategoryAPI
	for _, rule := range cascade {
		if matchesAny(lower, rule.keywords) {
			category = rule.category
			break
		}
	}
	return build(category, raw)
}

// ClassifyErr classifies a transport-level fault by its message. The
// same cascade applies; context deadline wording lands in network_error.
func ClassifyErr(err error) ClassifiedError {
	if err == nil {
		return build(CategorySystem, "")
	}
	msg := err.Error()
	// context.DeadlineExceeded prints "context deadline exceeded",
	// which no cascade keyword covers; it is a timeout.
	if strings.Contains(msg, "deadline exceeded") || strings.Contains(msg, "context canceled") {
		return build(CategoryNetwork, msg)
	}
	return Classify(msg)
}

// System builds the generic local-fault record used for configuration
// and validation errors and for the outermost catch-all.
func System(msg string) ClassifiedError {
	return build(CategorySystem, msg)
}

// Rejection builds the record for a carrier business rejection that
// carried no message at all.
func Rejection() ClassifiedError {
	return build(CategoryAPIRejection, "")
}

// CanRetry reports the fixed retry verdict for a category.
func CanRetry(category string) bool {
	return retryable[category]
}

// WithDetails attaches the carrier's structured error list.
func (c ClassifiedError) WithDetails(details []models.CarrierErrorDetail) ClassifiedError {
	c.Details = details
	return c
}

func build(category, raw string) ClassifiedError {
	return ClassifiedError{
		Category:   category,
		Message:    friendly[category],
		RawMessage: raw,
		CanRetry:   retryable[category],
		OccurredAt: time.Now().UTC(),
	}
}

func matchesAny(lower string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
