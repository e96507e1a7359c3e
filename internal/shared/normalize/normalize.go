// Package normalize canonicalizes single lead fields. Every function is
// total: absent or malformed input yields nil or "", never an error.
package normalize

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Company size buckets, the only values a lead's company size may hold.
const (
	Size1To10     = "1-10"
	Size11To50    = "11-50"
	Size51To200   = "51-200"
	Size201To1000 = "201-1000"
	Size1000Plus  = "1000+"
)

var sizeBuckets = []struct {
	below  int
	bucket string
}{
	{10, Size1To10},
	{50, Size11To50},
	{200, Size51To200},
	{1000, Size201To1000},
}

var whitespaceRun = regexp.MustCompile(`\s+`)

// CompanySize maps a raw headcount to its bucket using half-open intervals.
func CompanySize(employees *int) *string {
	if employees == nil {
		return nil
	}
	for _, b := range sizeBuckets {
		if *employees < b.below {
			bucket := b.bucket
			return &bucket
		}
	}
	bucket := Size1000Plus
	return &bucket
}

// IsSizeBucket reports whether s is one of the fixed buckets.
func IsSizeBucket(s string) bool {
	switch s {
	case Size1To10, Size11To50, Size51To200, Size201To1000, Size1000Plus:
		return true
	}
	return false
}

// LinkedInURL derives a company profile URL from a company name.
func LinkedInURL(companyName string) string {
	slug := whitespaceRun.ReplaceAllString(strings.ToLower(strings.TrimSpace(companyName)), "-")
	return "https://linkedin.com/company/" + slug
}

// Domain returns the part of an email address after the first "@".
func Domain(email *string) *string {
	if email == nil {
		return nil
	}
	_, domain, ok := strings.Cut(strings.TrimSpace(*email), "@")
	if !ok || domain == "" {
		return nil
	}
	domain = strings.ToLower(domain)
	return &domain
}

// Text trims s; blank values become nil.
func Text(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

// Truncate cuts s to at most n runes.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}
