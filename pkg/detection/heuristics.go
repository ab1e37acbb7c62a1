package detection

import "regexp"

// heuristicRule flags a definitive scam entity or template. Each rule
// contributes its weight once per message regardless of match count.
type heuristicRule struct {
	name    string
	pattern *regexp.Regexp
	// exclude drops pattern matches that also match it. Used where the
	// reference ruleset relies on lookahead, which RE2 does not support.
	exclude     *regexp.Regexp
	weight      float64
	explanation string
	// category labels the scam family for sender profiling. Empty for
	// rules that signal evasion rather than a scheme.
	category string
}

var heuristicRules = []heuristicRule{
	// Payment / redirection
	{
		name:        "upi_id",
		pattern:     regexp.MustCompile(`(?i)[a-zA-Z0-9._-]+@(ybl|paytm|okaxis|oksbi|okhdfcbank|axl|upi|ibl)`),
		weight:      0.4,
		explanation: "L1: UPI ID blocklist entity found",
		category:    "upi_payment_fraud",
	},
	{
		name:        "upi_link",
		pattern:     regexp.MustCompile(`(?i)upi://pay\?`),
		weight:      0.5,
		explanation: "L1: Deep-link payment redirection",
		category:    "upi_payment_fraud",
	},
	// Institutional impersonation
	{
		name:        "bank_impersonation",
		pattern:     regexp.MustCompile(`(?i)\b(sbi|hdfc|icici|axis|rbi|reserve\s*bank|bank\s*of\s*india)\s*(bank|customer\s*care|support)?\b`),
		weight:      0.3,
		explanation: "L1: Banking institution impersonation",
		category:    "bank_impersonation",
	},
	{
		name:        "govt_impersonation",
		pattern:     regexp.MustCompile(`(?i)\b(income\s*tax|it\s*department|customs|cyber\s*cell|police|government)\b`),
		weight:      0.4,
		explanation: "L1: Authority/Government impersonation",
		category:    "government_impersonation",
	},
	// Critical extraction commands
	{
		name:        "otp_request",
		pattern:     regexp.MustCompile(`(?i)\b(otp|one\s*time\s*password|verification\s*code|pin|cvv)\b`),
		weight:      0.45,
		explanation: "L1: PII/OTP extraction attempt",
		category:    "credential_phishing",
	},
	{
		name:        "password_request",
		pattern:     regexp.MustCompile(`(?i)\b(password|login\s*credentials?|username\s*and\s*password)\b`),
		weight:      0.45,
		explanation: "L1: Credential theft attempt",
		category:    "credential_phishing",
	},
	{
		name:        "bank_details",
		pattern:     regexp.MustCompile(`(?i)\b(bank\s*details?|account\s*number|ifsc|card\s*number|atm\s*pin)\b`),
		weight:      0.45,
		explanation: "L1: Bank details request",
		category:    "credential_phishing",
	},
	{
		name:        "account_threat",
		pattern:     regexp.MustCompile(`(?i)\b(account|card)\s+(is\s+|has\s+been\s+|will\s+be\s+)?(blocked|suspended|frozen|locked|deactivated)\b`),
		weight:      0.35,
		explanation: "L1: Account suspension threat",
		category:    "account_takeover",
	},
	{
		name:        "lottery_scam",
		pattern:     regexp.MustCompile(`(?i)\b(lottery|winner|prize|won|congratulations.*claim|lucky\s*draw)\b`),
		weight:      0.45,
		explanation: "L1: Lottery/Prize scam pattern",
		category:    "lottery_fraud",
	},
	{
		name:        "job_scam",
		pattern:     regexp.MustCompile(`(?i)\b(earn.*from\s*home|daily\s*income|part\s*time.*earn)\b`),
		weight:      0.35,
		explanation: "L1: Employment/Work-from-home scam pattern",
		category:    "job_fraud",
	},
	// Obfuscation anomalies
	{
		name:        "kyc_scam",
		pattern:     regexp.MustCompile(`(?i)\b(kyc.*expir|update.*kyc|verify.*kyc|pan.*link)\b`),
		weight:      0.40,
		explanation: "L1: KYC verification/update urgency",
		category:    "kyc_fraud",
	},
	{
		name:        "obfuscated_text",
		pattern:     regexp.MustCompile(`([a-zA-Z]\.[a-zA-Z]\.[a-zA-Z]\.[a-zA-Z])|([a-zA-Z]![a-zA-Z])`),
		weight:      0.3,
		explanation: "L1: Obfuscation anomaly detected (filter evasion attempt)",
	},
	// Link blocks
	{
		name:        "suspicious_url",
		pattern:     regexp.MustCompile(`(?i)https?://[^\s]+\.(xyz|tk|ml|ga|cf|gq|top|click|link|info)/`),
		exclude:     regexp.MustCompile(`(?i)^https?://www\.(google|microsoft|apple|amazon|facebook|twitter|instagram)\.com`),
		weight:      0.45,
		explanation: "L1: Suspicious TLD URL blocklist match",
		category:    "phishing_link",
	},
	{
		name:        "shortened_url",
		pattern:     regexp.MustCompile(`(?i)https?://(bit\.ly|tinyurl|t\.co|goo\.gl|ow\.ly|is\.gd|buff\.ly)/[^\s]+`),
		weight:      0.35,
		explanation: "L1: Obfuscated URL redirection",
		category:    "phishing_link",
	},
}

func (r heuristicRule) matches(text string) bool {
	if r.exclude == nil {
		return r.pattern.MatchString(text)
	}
	for _, m := range r.pattern.FindAllString(text, -1) {
		if !r.exclude.MatchString(m) {
			return true
		}
	}
	return false
}

// runHeuristics executes the L1 ruleset. The layer score is capped at 1.0;
// the ensemble weight bounds its real contribution.
func runHeuristics(text string) LayerResult {
	var result LayerResult
	seen := make(map[string]bool)
	for _, rule := range heuristicRules {
		if rule.matches(text) {
			result.Score += rule.weight
			result.Explanations = append(result.Explanations, rule.explanation)
			if rule.category != "" && !seen[rule.category] {
				seen[rule.category] = true
				result.Categories = append(result.Categories, rule.category)
			}
		}
	}
	if result.Score > 1.0 {
		result.Score = 1.0
	}
	return result
}
