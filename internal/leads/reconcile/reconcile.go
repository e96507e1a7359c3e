// Package reconcile merges partial views of a lead into one consistent record.
//
// Precedence, per field group, falling back to the existing value whenever a
// payload or one of its fields is absent:
//
//	identity (name, email, company, role, phone)  scan
//	intelligence (intent ... confidence_score)    context
//	background (industry, company_size)           enrichment
//
// A user edit outranks all three. Absent fields never clear stored values, so
// merging the same payloads twice yields the same lead.
package reconcile

import "lead_capture_backend/internal/leads/domain"

// Merge returns the next state of existing after applying the payloads.
// Any payload may be nil. Merge is pure: existing is not modified.
func Merge(existing domain.Lead, scan *domain.ScanPayload, ctx *domain.ContextPayload, enr *domain.EnrichmentPayload) domain.Lead {
	next := existing

	if scan != nil {
		next.Name = pick(scan.Name, existing.Name)
		next.Email = pick(scan.Email, existing.Email)
		next.Company = pick(scan.Company, existing.Company)
		next.Role = pick(scan.Role, existing.Role)
		next.Phone = pick(scan.Phone, existing.Phone)
	}

	if ctx != nil {
		next.Intent = pick(ctx.Intent, existing.Intent)
		next.ProductInterest = pick(ctx.ProductInterest, existing.ProductInterest)
		next.Notes = pick(ctx.Notes, existing.Notes)
		next.FollowUpMessage = pick(ctx.FollowUpMessage, existing.FollowUpMessage)
		next.ConfidenceScore = pick(clampConfidence(ctx.ConfidenceScore), existing.ConfidenceScore)
	}

	if enr != nil {
		next.Industry = pick(enr.Industry, existing.Industry)
		next.CompanySize = pick(enr.CompanySize, existing.CompanySize)
	}

	next.Source = DeriveSource(existing.Source, scan, ctx)
	return next
}

// ApplyEdit overlays a user edit. Source and identity metadata are untouched.
func ApplyEdit(existing domain.Lead, edit domain.LeadEdit) domain.Lead {
	next := existing

	next.Name = pick(edit.Name, existing.Name)
	next.Email = pick(edit.Email, existing.Email)
	next.Company = pick(edit.Company, existing.Company)
	next.Role = pick(edit.Role, existing.Role)
	next.Phone = pick(edit.Phone, existing.Phone)

	next.Intent = pick(edit.Intent, existing.Intent)
	next.ProductInterest = pick(edit.ProductInterest, existing.ProductInterest)
	next.Notes = pick(edit.Notes, existing.Notes)
	next.FollowUpMessage = pick(edit.FollowUpMessage, existing.FollowUpMessage)
	next.ConfidenceScore = pick(clampConfidence(edit.ConfidenceScore), existing.ConfidenceScore)

	next.Industry = pick(edit.Industry, existing.Industry)
	next.CompanySize = pick(edit.CompanySize, existing.CompanySize)
	next.LinkedInURL = pick(edit.LinkedInURL, existing.LinkedInURL)
	next.Website = pick(edit.Website, existing.Website)
	next.Description = pick(edit.Description, existing.Description)

	return next
}

// DeriveSource recomputes a lead's source for one merge call: "both" when the
// scan names the person and the context carries any field, "scan" or "voice"
// when only one of them does, else prior.
func DeriveSource(prior domain.Source, scan *domain.ScanPayload, ctx *domain.ContextPayload) domain.Source {
	hasScan := scan.HasIdentity()
	hasContext := ctx.HasAny()
	switch {
	case hasScan && hasContext:
		return domain.SourceBoth
	case hasScan:
		return domain.SourceScan
	case hasContext:
		return domain.SourceVoice
	default:
		return prior
	}
}

func pick[T any](incoming, current *T) *T {
	if incoming == nil {
		return current
	}
	v := *incoming
	return &v
}

func clampConfidence(score *int) *int {
	if score == nil {
		return nil
	}
	v := min(max(*score, domain.MinConfidence), domain.MaxConfidence)
	return &v
}
