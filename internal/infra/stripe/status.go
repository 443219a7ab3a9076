package stripe

import "strings"

// NormalizeIntentStatus collapses Stripe's payment-intent statuses into the
// coarse outcomes callers act on: succeeded, requires_action, processing or
// failed.
func NormalizeIntentStatus(s string) string {
	switch strings.TrimSpace(s) {
	case "":
		return "failed"
	case "succeeded":
		return "succeeded"
	case "requires_action", "requires_confirmation", "requires_payment_method", "requires_capture":
		return "requires_action"
	case "processing":
		return "processing"
	case "canceled":
		return "failed"
	default:
		return strings.TrimSpace(s)
	}
}
