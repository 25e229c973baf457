package ingestion

import "strings"

// FormatAddress склеивает непустые части адреса через ", ".
func FormatAddress(a Address) string {
	parts := []string{a.Address1, a.Address2, a.City, a.State, a.Postcode, a.Country}
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, ", ")
}

// RecipientAddress prefers the shipping address when it has a first name.
func RecipientAddress(o *Order) string {
	if strings.TrimSpace(o.Shipping.FirstName) != "" {
		return FormatAddress(o.Shipping)
	}
	return FormatAddress(o.Billing)
}
