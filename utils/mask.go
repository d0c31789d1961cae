package utils

import (
	"strings"
	"unicode/utf8"
)

// MaskEmail hides most of the local part: juanperez@gmail.com -> ju******z@gmail.com
func MaskEmail(email string) string {
	local, domain, ok := strings.Cut(email, "@")
	if !ok {
		return email
	}
	r := []rune(local)
	var masked string
	switch {
	case len(r) == 0:
		masked = ""
	case len(r) <= 3:
		masked = string(r[0]) + strings.Repeat("*", len(r)-1)
	default:
		masked = string(r[:2]) + strings.Repeat("*", len(r)-3) + string(r[len(r)-1])
	}
	return masked + "@" + domain
}

// ShortEmail abbreviates an address for tight spaces: cesar.rodriguez@gmail.com -> cesar.ro…@g.com
func ShortEmail(email string) string {
	local, domain, ok := strings.Cut(email, "@")
	if !ok {
		return email
	}
	if utf8.RuneCountInString(local) > 9 {
		local = string([]rune(local)[:8]) + "…"
	}
	parts := strings.Split(domain, ".")
	if len(parts) == 1 {
		domain = prefix(parts[0], 5)
	} else {
		domain = prefix(parts[0], 1) + "." + prefix(parts[len(parts)-1], 4)
	}
	return local + "@" + domain
}

// MaskCard keeps the last four digits of a card number
func MaskCard(number string) string {
	if number == "" {
		return "**** **** **** ****"
	}
	return "**** **** **** " + suffix(number, 4)
}

func prefix(s string, n int) string {
	r := []rune(s)
	if len(r) > n {
		r = r[:n]
	}
	return string(r)
}

func suffix(s string, n int) string {
	r := []rune(s)
	if len(r) > n {
		r = r[len(r)-n:]
	}
	return string(r)
}
