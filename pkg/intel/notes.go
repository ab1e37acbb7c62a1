package intel

import "strings"

// Tactic labels recorded on sender profiles.
const (
	TacticUrgency       = "urgency"
	TacticThreats       = "threats"
	TacticFinancialLure = "financial_lure"
)

// Harvested keywords grouped by the tactic they betray.
var (
	urgencyWords = map[string]bool{
		"urgent": true, "immediately": true, "verify now": true,
	}
	threatWords = map[string]bool{
		"arrest": true, "police": true, "legal action": true, "fine": true,
		"penalty": true, "blocked": true, "suspended": true,
	}
	lureWords = map[string]bool{
		"refund": true, "cashback": true, "lottery": true, "winner": true,
		"prize": true,
	}
)

// Tactics maps harvested suspicious keywords to coarse tactic labels,
// in stable order.
func Tactics(keywords []string) []string {
	var urgency, threat, lure bool
	for _, k := range keywords {
		switch {
		case urgencyWords[k]:
			urgency = true
		case threatWords[k]:
			threat = true
		case lureWords[k]:
			lure = true
		}
	}

	tactics := make([]string, 0, 3)
	if urgency {
		tactics = append(tactics, TacticUrgency)
	}
	if threat {
		tactics = append(tactics, TacticThreats)
	}
	if lure {
		tactics = append(tactics, TacticFinancialLure)
	}
	return tactics
}

// EngagementNotes renders a human-readable summary of a finished engagement
// for the intelligence callback: observed tactics, what was extracted, and
// how confident detection was.
func EngagementNotes(buf Buffer, scamScore float64) string {
	var notes []string

	for _, tactic := range Tactics(buf[CategorySuspiciousKeywords]) {
		switch tactic {
		case TacticUrgency:
			notes = append(notes, "Scammer used urgency tactics")
		case TacticThreats:
			notes = append(notes, "Scammer used threatening language")
		case TacticFinancialLure:
			notes = append(notes, "Scammer used financial lure tactics")
		}
	}

	if len(buf[CategoryUPIIDs]) > 0 {
		notes = append(notes, "Attempted UPI payment extraction")
	}
	if len(buf[CategoryBankAccounts]) > 0 {
		notes = append(notes, "Bank account details extracted")
	}
	if len(buf[CategoryPhoneNumbers]) > 0 {
		notes = append(notes, "Scammer shared phone contact")
	}
	if len(buf[CategoryPhishingLinks]) > 0 {
		notes = append(notes, "Phishing links detected")
	}

	switch {
	case scamScore >= 0.8:
		notes = append(notes, "High confidence scam detection")
	case scamScore >= 0.5:
		notes = append(notes, "Medium confidence scam detection")
	}

	if len(notes) == 0 {
		return "Scam engagement session completed without specific indicators."
	}
	return strings.Join(notes, ". ") + "."
}
