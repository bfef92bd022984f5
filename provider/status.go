package provider

// StatusPaid is the provider value for a fully paid charge.
const StatusPaid = "PAID"

// StatusPolicy maps a provider's raw charge status to the value returned to
// the frontend.
type StatusPolicy func(raw string) string

// PaidOrVerbatim reports PAID for a paid charge and passes every other value
// through unchanged.
func PaidOrVerbatim(raw string) string {
	if raw == StatusPaid {
		return StatusPaid
	}
	return raw
}

// Verbatim passes the provider value through with no normalization.
func Verbatim(raw string) string {
	return raw
}
