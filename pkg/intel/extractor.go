package intel

import (
	"regexp"
	"strings"
)

// Extraction patterns. Compiled once; safe for concurrent use.
var (
	upiPattern = regexp.MustCompile(
		`(?i)[a-zA-Z0-9._-]+@(ybl|paytm|okaxis|oksbi|okhdfcbank|axl|upi|ibl|apl|waaxis|freecharge|icici|kotak|indus)`)

	phonePattern = regexp.MustCompile(`\b(?:\+91[\s-]?)?[6-9]\d{9}\b`)

	urlPattern = regexp.MustCompile(`(?i)https?://[^\s<>"']+`)

	// Indian bank account numbers are typically 9-18 digits; matched only
	// when the message mentions an account at all (context gate below).
	accountPattern = regexp.MustCompile(`\b\d{9,18}\b`)

	phoneStripper = regexp.MustCompile(`[\s\-+]`)
)

// URLs containing any of these substrings are never reported as phishing.
var safeDomains = []string{"google.com", "microsoft.com", "apple.com"}

// suspiciousKeywords is the fixed vocabulary flagged when present anywhere
// in the lowercased message.
var suspiciousKeywords = []string{
	"otp", "verify", "blocked", "suspended", "urgent", "immediately",
	"arrest", "police", "legal action", "fine", "penalty", "refund",
	"cashback", "lottery", "winner", "prize", "kyc", "update",
	"link click", "download", "install", "remote", "anydesk", "teamviewer",
}

// Extract mines a single message for intelligence entities. Pure function;
// every returned buffer is independent and fully populated (all categories
// present, possibly empty).
func Extract(text string) Buffer {
	result := NewBuffer()
	lower := strings.ToLower(text)

	for _, match := range upiPattern.FindAllString(text, -1) {
		result.Add(CategoryUPIIDs, strings.ToLower(match))
	}

	for _, match := range phonePattern.FindAllString(text, -1) {
		result.Add(CategoryPhoneNumbers, normalizePhone(match))
	}

	for _, match := range urlPattern.FindAllString(text, -1) {
		if !isSafeURL(match) {
			result.Add(CategoryPhishingLinks, match)
		}
	}

	// Bare digit runs are too noisy to report unconditionally; require the
	// message to talk about an account.
	if strings.Contains(lower, "account") || strings.Contains(lower, "a/c") || strings.Contains(lower, "bank") {
		result.Add(CategoryBankAccounts, accountPattern.FindAllString(text, -1)...)
	}

	for _, keyword := range suspiciousKeywords {
		if strings.Contains(lower, keyword) {
			result.Add(CategorySuspiciousKeywords, keyword)
		}
	}

	return result
}

// normalizePhone strips formatting and the country prefix so the same
// number always dedupes to one entry.
func normalizePhone(raw string) string {
	normalized := phoneStripper.ReplaceAllString(raw, "")
	if strings.HasPrefix(normalized, "91") && len(normalized) > 10 {
		normalized = normalized[2:]
	}
	return normalized
}

func isSafeURL(url string) bool {
	lower := strings.ToLower(url)
	for _, safe := range safeDomains {
		if strings.Contains(lower, safe) {
			return true
		}
	}
	return false
}
