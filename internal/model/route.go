package model

import (
	"regexp"
	"strings"
)

var nonDigit = regexp.MustCompile(`\D`)

// CountryFromRoute extracts the country label embedded in a route
// string, the part before the first dash ("Germany-Tele2-1" gives
// "Germany").
func CountryFromRoute(route string) string {
	if route == "" {
		return "Unknown"
	}
	country, _, _ := strings.Cut(route, "-")
	country = strings.TrimSpace(country)
	if country == "" {
		return "Unknown"
	}
	return country
}

// CleanNumber normalizes a recipient number for display: digits only,
// with a leading plus for anything that looks internationally dialable.
func CleanNumber(number string) string {
	if number == "" {
		return "N/A"
	}
	digits := nonDigit.ReplaceAllString(number, "")
	if len(digits) >= 10 {
		return "+" + digits
	}
	if !strings.HasPrefix(number, "+") {
		return "+" + number
	}
	return number
}
