// Package scan turns raw QR payloads and OCR text from business cards into
// scan payloads.
package scan

import (
	"encoding/json"
	"regexp"
	"strings"

	"lead_capture_backend/internal/leads/domain"
	"lead_capture_backend/internal/shared/normalize"
	"lead_capture_backend/platform/phone"
	"lead_capture_backend/platform/sanitize"
)

var (
	emailPattern = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)
	phonePattern = regexp.MustCompile(`\+?[\d \t\-().]{10,}`)
	mailtoPrefix = regexp.MustCompile(`(?i)mailto:`)
)

const nameSeparators = " \t,;:<>()[]|-"

// Parser parses scans for one default phone region.
type Parser struct {
	region string
}

func NewParser(region string) *Parser {
	return &Parser{region: region}
}

// ParseQR accepts a JSON object, a vCard, text carrying an email address
// (any other text becomes the name) or, failing those, treats the whole text
// as a name.
func (p *Parser) ParseQR(text string) domain.ScanPayload {
	text = strings.TrimSpace(text)
	if text == "" {
		return domain.ScanPayload{}
	}

	if payload, ok := p.parseJSON(text); ok {
		return payload
	}
	if strings.HasPrefix(strings.ToUpper(text), "BEGIN:VCARD") {
		return p.parseVCard(text)
	}
	if email := emailPattern.FindString(text); email != "" {
		return domain.ScanPayload{Name: nameBeside(text, email), Email: clean(email)}
	}
	return domain.ScanPayload{Name: clean(text)}
}

// ParseOCR reads a business card: first email, first phone-like run, first
// line as the name and second line as the company.
func (p *Parser) ParseOCR(text string) domain.ScanPayload {
	lines := make([]string, 0)
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}

	var payload domain.ScanPayload
	if email := emailPattern.FindString(text); email != "" {
		payload.Email = clean(email)
	}
	if raw := phonePattern.FindString(text); raw != "" {
		payload.Phone = p.phone(raw)
	}
	if len(lines) > 0 {
		payload.Name = clean(lines[0])
	}
	if len(lines) > 1 {
		payload.Company = clean(lines[1])
	}
	return payload
}

type qrJSON struct {
	Name    any `json:"name"`
	Email   any `json:"email"`
	Company any `json:"company"`
	Role    any `json:"role"`
	Title   any `json:"title"`
	Phone   any `json:"phone"`
}

func (p *Parser) parseJSON(text string) (domain.ScanPayload, bool) {
	if !strings.HasPrefix(text, "{") {
		return domain.ScanPayload{}, false
	}
	var raw qrJSON
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return domain.ScanPayload{}, false
	}

	payload := domain.ScanPayload{
		Name:    cleanAny(raw.Name),
		Email:   cleanAny(raw.Email),
		Company: cleanAny(raw.Company),
		Role:    cleanAny(raw.Role),
	}
	if payload.Role == nil {
		payload.Role = cleanAny(raw.Title)
	}
	if s, ok := raw.Phone.(string); ok {
		payload.Phone = p.phone(s)
	}
	return payload, true
}

func (p *Parser) parseVCard(text string) domain.ScanPayload {
	var payload domain.ScanPayload
	for _, line := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		prop, value, ok := strings.Cut(strings.TrimSpace(line), ":")
		if !ok {
			continue
		}
		// Drop parameters such as EMAIL;TYPE=work.
		name, _, _ := strings.Cut(strings.ToUpper(prop), ";")
		switch name {
		case "FN":
			setOnce(&payload.Name, value)
		case "EMAIL":
			setOnce(&payload.Email, value)
		case "ORG":
			// ORG is "company;department".
			company, _, _ := strings.Cut(value, ";")
			setOnce(&payload.Company, company)
		case "TITLE":
			setOnce(&payload.Role, value)
		case "TEL":
			if payload.Phone == nil {
				payload.Phone = p.phone(value)
			}
		}
	}
	return payload
}

func (p *Parser) phone(raw string) *string {
	return clean(phone.NormalizeE164(raw, p.region))
}

func setOnce(dst **string, value string) {
	if *dst == nil {
		*dst = clean(value)
	}
}

// nameBeside returns the text around an email address as a name, or nil when
// only separators remain.
func nameBeside(text, email string) *string {
	rest := strings.Replace(text, email, " ", 1)
	rest = mailtoPrefix.ReplaceAllString(rest, " ")
	return clean(strings.Trim(rest, nameSeparators))
}

func clean(s string) *string {
	return normalize.Text(normalize.Ptr(sanitize.Line(s)))
}

func cleanAny(v any) *string {
	s, ok := v.(string)
	if !ok {
		return nil
	}
	return clean(s)
}
