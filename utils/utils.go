package utils

import (
	"fmt"
	"net/url"
	"strings"
)

// ContainsString checks if a string slice contains a specific string.
func ContainsString(slice []string, item string) bool {
	for _, a := range slice {
		if a == item {
			return true
		}
	}
	return false
}

// WhatsAppLink builds the pre-filled contact deep link shown on the results
// page. The message template receives (correct, total, percentage); the
// rendered text is URL-encoded into the wa.me link. Returns "" when no
// destination number is configured so the template can skip the button.
func WhatsAppLink(number, template string, correct, total int, percentage float64) string {
	number = strings.TrimPrefix(strings.TrimSpace(number), "+")
	number = strings.ReplaceAll(number, " ", "")
	if number == "" {
		return ""
	}
	message := fmt.Sprintf(template, correct, total, percentage)
	return fmt.Sprintf("https://wa.me/%s?text=%s", number, url.QueryEscape(message))
}
