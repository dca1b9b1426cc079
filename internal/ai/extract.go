package ai

import (
	"regexp"
	"strings"
)

// Extracted carries the structured fields pulled out of a free-text message.
type Extracted struct {
	Name        string
	Mobile      string
	ComplaintID string
	Email       string
	Urgency     string
}

var (
	mobilePatterns = []*regexp.Regexp{
		regexp.MustCompile(`\+\d{1,4}[-.\s]?\d{10,14}`),       // +91-9876543210
		regexp.MustCompile(`\(\d{3}\)\s?\d{3}[-.\s]?\d{4}`),   // (123) 456-7890
		regexp.MustCompile(`\b\d{3}[-.\s]\d{3}[-.\s]\d{4}\b`), // 123-456-7890
		regexp.MustCompile(`\b\d{10,15}\b`),                   // bare digits
	}

	complaintIDPattern = regexp.MustCompile(`(?i)\b(CMP[A-Z0-9]{8})\b`)

	namePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(?:my name is|i am|i'm|name is|call me)\s+([a-zA-Z][a-zA-Z ]{1,40})`),
		regexp.MustCompile(`(?i)name:\s*([a-zA-Z][a-zA-Z ]{1,40})`),
		regexp.MustCompile(`^([A-Z][a-z]+(?:\s+[A-Z][a-z]+){1,3})`),
	}

	emailPattern = regexp.MustCompile(`\b([A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,})\b`)

	separators    = regexp.MustCompile(`[-.\s()]`)
	validMobileRx = regexp.MustCompile(`^\+?[1-9]\d{9,14}$`)
)

var nonNames = map[string]bool{
	"help": true, "what": true, "how": true, "when": true, "where": true,
	"why": true, "yes": true, "no": true, "ok": true, "okay": true,
	"sure": true, "hello": true, "hi": true, "facing": true, "having": true,
}

var urgencyWords = []string{"urgent", "emergency", "asap", "immediately"}

// ExtractDetails pulls names, mobile numbers, complaint IDs, emails and
// urgency hints out of a message. Missing fields stay empty.
func ExtractDetails(message string) Extracted {
	var out Extracted

	for _, p := range mobilePatterns {
		if m := p.FindString(message); m != "" {
			clean := CleanMobile(m)
			if len(strings.TrimPrefix(clean, "+")) >= 10 {
				out.Mobile = clean
				break
			}
		}
	}

	if m := complaintIDPattern.FindStringSubmatch(message); m != nil {
		out.ComplaintID = strings.ToUpper(m[1])
	}

	for _, p := range namePatterns {
		m := p.FindStringSubmatch(message)
		if m == nil {
			continue
		}
		if name, ok := normalizeName(m[1]); ok {
			out.Name = name
			break
		}
	}

	if m := emailPattern.FindStringSubmatch(message); m != nil {
		out.Email = strings.ToLower(m[1])
	}

	lower := strings.ToLower(message)
	for _, w := range urgencyWords {
		if strings.Contains(lower, w) {
			out.Urgency = "high"
			break
		}
	}

	return out
}

// NameFromMessage treats a whole short alphabetic message as a name.
// Used while the conversation is collecting the caller's name.
func NameFromMessage(message string) (string, bool) {
	message = strings.TrimSpace(message)
	words := strings.Fields(message)
	if len(words) == 0 || len(words) > 4 {
		return "", false
	}
	return normalizeName(message)
}

func normalizeName(raw string) (string, bool) {
	words := strings.Fields(strings.TrimSpace(raw))
	if len(words) == 0 || len(words) > 4 {
		return "", false
	}
	for _, w := range words {
		if len(w) < 2 || len(w) > 20 || !alphabetic(w) {
			return "", false
		}
		if nonNames[strings.ToLower(w)] {
			return "", false
		}
	}
	capped := make([]string, len(words))
	for i, w := range words {
		capped[i] = strings.ToUpper(w[:1]) + strings.ToLower(w[1:])
	}
	return strings.Join(capped, " "), true
}

func alphabetic(s string) bool {
	for _, r := range s {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') {
			return false
		}
	}
	return true
}

// CleanMobile strips separators from a phone number.
func CleanMobile(mobile string) string {
	return separators.ReplaceAllString(strings.TrimSpace(mobile), "")
}

func ValidMobile(mobile string) bool {
	return validMobileRx.MatchString(CleanMobile(mobile))
}

// ValidName is deliberately permissive: length bounds, at least one
// letter, and not an obvious non-name word.
func ValidName(name string) bool {
	name = strings.TrimSpace(name)
	if len(name) < 2 || len(name) > 50 {
		return false
	}
	hasLetter := false
	for _, r := range name {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
			hasLetter = true
			break
		}
	}
	if !hasLetter {
		return false
	}
	return !nonNames[strings.ToLower(name)]
}
