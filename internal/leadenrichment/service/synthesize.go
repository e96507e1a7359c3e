package service

import (
	"strings"

	"lead_capture_backend/internal/shared/normalize"
)

type industryRule struct {
	keywords []string
	industry string
	size     string
}

// Domain keyword rules, first match wins.
var industryRules = []industryRule{
	{keywords: []string{"bank", "finance"}, industry: "Financial Services", size: normalize.Size1000Plus},
	{keywords: []string{"health", "medical"}, industry: "Healthcare", size: normalize.Size201To1000},
	{keywords: []string{"edu"}, industry: "Education", size: normalize.Size1000Plus},
}

var defaultIndustry = industryRule{industry: "Technology", size: normalize.Size51To200}

// Synthesize builds a profile without any network access.
func Synthesize(domain, company *string) Profile {
	rule := defaultIndustry
	if domain != nil {
		lower := strings.ToLower(*domain)
		for _, r := range industryRules {
			if containsAny(lower, r.keywords) {
				rule = r
				break
			}
		}
	}

	name := companyName(domain, company)
	industry := rule.industry
	size := rule.size

	profile := Profile{
		Name:        name,
		Domain:      domain,
		Industry:    &industry,
		CompanySize: &size,
		Provenance:  ProvenanceSynthesized,
	}
	if name != "" {
		profile.LinkedInURL = normalize.Ptr(normalize.LinkedInURL(name))
		profile.Description = normalize.Ptr(name + " - " + industry + " company")
	}
	if domain != nil {
		profile.Website = normalize.Ptr("https://" + *domain)
	}
	return profile
}

// companyName prefers the supplied company, else derives one from the domain:
// "acme.com" -> "acme", "health.example.org" -> "health example org".
func companyName(domain, company *string) string {
	if company != nil && strings.TrimSpace(*company) != "" {
		return strings.TrimSpace(*company)
	}
	if domain == nil {
		return ""
	}
	name := strings.TrimSuffix(*domain, ".com")
	return strings.ReplaceAll(name, ".", " ")
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
