// Package intel extracts structured threat intelligence from scammer
// messages and accumulates it across conversation turns. The output schema
// matches the reporting callback contract exactly.
package intel

// Intelligence categories tracked per session. The buffer always carries
// all five, even when empty, so downstream consumers never see a partial
// schema.
const (
	CategoryBankAccounts       = "bankAccounts"
	CategoryUPIIDs             = "upiIds"
	CategoryPhishingLinks      = "phishingLinks"
	CategoryPhoneNumbers       = "phoneNumbers"
	CategorySuspiciousKeywords = "suspiciousKeywords"
)

// Categories lists all buffer categories in canonical order.
var Categories = []string{
	CategoryBankAccounts,
	CategoryUPIIDs,
	CategoryPhishingLinks,
	CategoryPhoneNumbers,
	CategorySuspiciousKeywords,
}

// Buffer maps category -> deduplicated values in insertion order.
// Serialized as JSON lists; treated as sets for merging.
type Buffer map[string][]string

// NewBuffer returns a buffer with every category present and empty.
func NewBuffer() Buffer {
	b := make(Buffer, len(Categories))
	for _, c := range Categories {
		b[c] = []string{}
	}
	return b
}

// Add appends values to a category, skipping duplicates and empty strings.
func (b Buffer) Add(category string, values ...string) {
	existing := b[category]
	for _, v := range values {
		if v == "" || contains(existing, v) {
			continue
		}
		existing = append(existing, v)
	}
	b[category] = existing
}

// Merge unions another buffer into this one per category.
// Idempotent: merging the same data twice changes nothing.
func (b Buffer) Merge(other Buffer) {
	for _, c := range Categories {
		b.Add(c, other[c]...)
	}
}

// Missing returns the categories that have no values yet, in canonical
// order. Used to steer the agent toward entities not yet extracted.
func (b Buffer) Missing() []string {
	var missing []string
	for _, c := range Categories {
		if len(b[c]) == 0 {
			missing = append(missing, c)
		}
	}
	return missing
}

// Total counts values across all categories.
func (b Buffer) Total() int {
	n := 0
	for _, vs := range b {
		n += len(vs)
	}
	return n
}

// Clone returns a deep copy.
func (b Buffer) Clone() Buffer {
	out := make(Buffer, len(b))
	for c, vs := range b {
		cp := make([]string, len(vs))
		copy(cp, vs)
		out[c] = cp
	}
	return out
}

// Normalize ensures all five categories exist (after JSON decoding of
// buffers written by older versions or external producers).
func (b Buffer) Normalize() {
	for _, c := range Categories {
		if b[c] == nil {
			b[c] = []string{}
		}
	}
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
