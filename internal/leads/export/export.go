// Package export renders leads for download: CSV and XLSX sheets, vCard
// contact cards and QR codes that encode them.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/skip2/go-qrcode"
	"github.com/xuri/excelize/v2"

	"lead_capture_backend/internal/leads/domain"
)

const (
	sheetName = "Leads"

	// QRSize is the edge length in pixels of generated QR codes.
	QRSize = 256
)

// Headers is the column order shared by the CSV and XLSX exports.
var Headers = []string{
	"Name",
	"Email",
	"Company",
	"Role",
	"Industry",
	"Company Size",
	"Intent",
	"Product Interest",
	"Notes",
	"Confidence Score",
}

// Row returns the export cells for a lead. Unset fields are empty strings.
func Row(lead domain.Lead) []string {
	intent := ""
	if lead.Intent != nil {
		intent = string(*lead.Intent)
	}
	confidence := ""
	if lead.ConfidenceScore != nil {
		confidence = strconv.Itoa(*lead.ConfidenceScore)
	}
	return []string{
		value(lead.Name),
		value(lead.Email),
		value(lead.Company),
		value(lead.Role),
		value(lead.Industry),
		value(lead.CompanySize),
		intent,
		value(lead.ProductInterest),
		value(lead.Notes),
		confidence,
	}
}

// WriteCSV writes a header row followed by one row per lead.
func WriteCSV(w io.Writer, leads ...domain.Lead) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(Headers); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, lead := range leads {
		if err := writer.Write(Row(lead)); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	writer.Flush()
	return writer.Error()
}

// XLSX returns a workbook with a single "Leads" sheet.
func XLSX(leads ...domain.Lead) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if index, _ := f.GetSheetIndex(sheetName); index == -1 {
		if _, err := f.NewSheet(sheetName); err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheetName)
	f.SetActiveSheet(activeIndex)
	_ = f.DeleteSheet("Sheet1")

	write := func(col, row int, v any) {
		cell, _ := excelize.CoordinatesToCellName(col, row)
		_ = f.SetCellValue(sheetName, cell, v)
	}

	for i, h := range Headers {
		write(i+1, 1, h)
	}
	for r, lead := range leads {
		for c, v := range Row(lead) {
			if c == len(Headers)-1 && lead.ConfidenceScore != nil {
				write(c+1, r+2, *lead.ConfidenceScore)
				continue
			}
			write(c+1, r+2, v)
		}
	}

	_ = f.SetColWidth(sheetName, "A", "C", 24)
	_ = f.SetColWidth(sheetName, "D", "G", 16)
	_ = f.SetColWidth(sheetName, "H", "H", 22)
	_ = f.SetColWidth(sheetName, "I", "I", 60)
	_ = f.SetColWidth(sheetName, "J", "J", 16)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	return buf.Bytes(), nil
}

// VCard renders the lead as a vCard 3.0 contact.
func VCard(lead domain.Lead) string {
	var b strings.Builder
	b.WriteString("BEGIN:VCARD\r\n")
	b.WriteString("VERSION:3.0\r\n")
	fmt.Fprintf(&b, "FN:%s\r\n", escapeVCard(value(lead.Name)))
	if lead.Email != nil {
		fmt.Fprintf(&b, "EMAIL:%s\r\n", escapeVCard(*lead.Email))
	}
	if lead.Phone != nil {
		fmt.Fprintf(&b, "TEL:%s\r\n", escapeVCard(*lead.Phone))
	}
	if lead.Company != nil {
		fmt.Fprintf(&b, "ORG:%s\r\n", escapeVCard(*lead.Company))
	}
	if lead.Role != nil {
		fmt.Fprintf(&b, "TITLE:%s\r\n", escapeVCard(*lead.Role))
	}
	if lead.Website != nil {
		fmt.Fprintf(&b, "URL:%s\r\n", escapeVCard(*lead.Website))
	}
	b.WriteString("END:VCARD\r\n")
	return b.String()
}

// QRCode encodes the lead's vCard as a PNG.
func QRCode(lead domain.Lead) ([]byte, error) {
	png, err := qrcode.Encode(VCard(lead), qrcode.Medium, QRSize)
	if err != nil {
		return nil, fmt.Errorf("encode qr: %w", err)
	}
	return png, nil
}

var vcardEscaper = strings.NewReplacer(
	`\`, `\\`,
	"\r\n", `\n`,
	"\n", `\n`,
	",", `\,`,
	";", `\;`,
)

func escapeVCard(s string) string {
	return vcardEscaper.Replace(s)
}

func value(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
