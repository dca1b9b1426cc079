package ai

import "strings"

var categoryKeywords = []struct {
	category string
	words    []string
}{
	{"Hardware", []string{"laptop", "computer", "hardware", "mouse", "keyboard", "screen", "monitor", "printer"}},
	{"Software", []string{"software", "application", "app", "program", "bug", "crash"}},
	{"Network", []string{"internet", "network", "wifi", "connection", "slow"}},
	{"Account", []string{"account", "login", "password", "access"}},
	{"Billing", []string{"bill", "payment", "charge", "refund", "invoice"}},
	{"Service", []string{"service", "support", "help", "assistance"}},
}

// Categorize assigns a complaint category from keyword hits, first match
// wins. Falls back to "Other".
func Categorize(details string) string {
	lower := strings.ToLower(details)
	for _, c := range categoryKeywords {
		for _, w := range c.words {
			if strings.Contains(lower, w) {
				return c.category
			}
		}
	}
	return "Other"
}
