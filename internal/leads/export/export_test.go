package export

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"lead_capture_backend/internal/leads/domain"
)

func sampleLead() domain.Lead {
	lead := domain.NewLead(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	name := "Jane Doe"
	email := "jane@acme.com"
	company := "Acme, Inc"
	industry := "Technology"
	notes := "Asked about \"pricing\"\nand rollout"
	intent := domain.IntentHot
	lead.Name = &name
	lead.Email = &email
	lead.Company = &company
	lead.Industry = &industry
	lead.Notes = &notes
	lead.Intent = &intent
	return lead
}

func TestWriteCSVQuotesValues(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, sampleLead()); err != nil {
		t.Fatalf("write csv: %v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("read back csv: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected header and one row, got %d records", len(records))
	}
	if strings.Join(records[0], ",") != "Name,Email,Company,Role,Industry,Company Size,Intent,Product Interest,Notes,Confidence Score" {
		t.Fatalf("unexpected header %v", records[0])
	}
	row := records[1]
	if row[2] != "Acme, Inc" || row[3] != "" || row[6] != "Hot" || row[9] != "50" {
		t.Fatalf("unexpected row %v", row)
	}
	if row[8] != "Asked about \"pricing\"\nand rollout" {
		t.Fatalf("notes not preserved: %q", row[8])
	}
}

func TestXLSXWritesLeadsSheet(t *testing.T) {
	data, err := XLSX(sampleLead(), domain.NewLead(time.Now()))
	if err != nil {
		t.Fatalf("xlsx: %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer func() { _ = f.Close() }()

	rows, err := f.GetRows(sheetName)
	if err != nil {
		t.Fatalf("get rows: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	if rows[0][0] != "Name" || rows[1][0] != "Jane Doe" {
		t.Fatalf("unexpected cells %v / %v", rows[0], rows[1])
	}
	if got, _ := f.GetCellValue(sheetName, "J2"); got != "50" {
		t.Fatalf("expected confidence 50, got %q", got)
	}
}

func TestVCardEscapesAndSkipsUnset(t *testing.T) {
	card := VCard(sampleLead())
	if !strings.HasPrefix(card, "BEGIN:VCARD\r\nVERSION:3.0\r\nFN:Jane Doe\r\n") {
		t.Fatalf("unexpected vcard start %q", card)
	}
	if !strings.Contains(card, "ORG:Acme\\, Inc\r\n") {
		t.Fatalf("expected escaped ORG, got %q", card)
	}
	if strings.Contains(card, "TITLE:") || strings.Contains(card, "TEL:") {
		t.Fatalf("unset fields must be omitted: %q", card)
	}
}

func TestQRCodeIsPNG(t *testing.T) {
	png, err := QRCode(sampleLead())
	if err != nil {
		t.Fatalf("qr: %v", err)
	}
	if !bytes.HasPrefix(png, []byte("\x89PNG\r\n\x1a\n")) {
		t.Fatalf("expected PNG signature")
	}
}
