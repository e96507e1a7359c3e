package email

import (
	"strings"
	"testing"

	gomail "github.com/wneessen/go-mail"
)

type testSMTPConfig struct {
	host string
}

func (c testSMTPConfig) GetSMTPHost() string         { return c.host }
func (c testSMTPConfig) GetSMTPPort() int            { return 587 }
func (c testSMTPConfig) GetSMTPUsername() string     { return "user" }
func (c testSMTPConfig) GetSMTPPassword() string     { return "pass" }
func (c testSMTPConfig) GetEmailFromName() string    { return "Booth Team" }
func (c testSMTPConfig) GetEmailFromAddress() string { return "booth@example.com" }
func (c testSMTPConfig) IsEmailEnabled() bool        { return c.host != "" }

func TestNewSMTPSenderFromConfigDisabledWithoutHost(t *testing.T) {
	if NewSMTPSenderFromConfig(testSMTPConfig{}) != nil {
		t.Fatalf("expected nil sender without SMTP host")
	}
	if NewSMTPSenderFromConfig(testSMTPConfig{host: "smtp.example.com"}) == nil {
		t.Fatalf("expected sender with SMTP host")
	}
}

func TestFollowUpMessageAddressesLead(t *testing.T) {
	sender := NewSMTPSenderFromConfig(testSMTPConfig{host: "smtp.example.com"})

	msg, err := sender.followUpMessage("jane@acme.com", "Jane Doe", "Thanks for stopping by.\n\nTalk soon!")
	if err != nil {
		t.Fatalf("build message: %v", err)
	}

	subject := msg.GetGenHeader(gomail.HeaderSubject)
	if len(subject) != 1 || subject[0] != "Great meeting you, Jane" {
		t.Fatalf("unexpected subject %v", subject)
	}

	recipients, err := msg.GetRecipients()
	if err != nil {
		t.Fatalf("recipients: %v", err)
	}
	if len(recipients) != 1 || recipients[0] != "jane@acme.com" {
		t.Fatalf("unexpected recipients %v", recipients)
	}
}

func TestFollowUpMessageWithoutName(t *testing.T) {
	sender := NewSMTPSender("smtp.example.com", 587, "", "", "booth@example.com", "Booth Team")

	msg, err := sender.followUpMessage("ops@acme.com", "  ", "Hello")
	if err != nil {
		t.Fatalf("build message: %v", err)
	}
	subject := msg.GetGenHeader(gomail.HeaderSubject)
	if len(subject) != 1 || subject[0] != subjectFollowUpFallback {
		t.Fatalf("unexpected subject %v", subject)
	}
}

func TestFollowUpMessageRejectsBadAddress(t *testing.T) {
	sender := NewSMTPSender("smtp.example.com", 587, "", "", "booth@example.com", "Booth Team")
	if _, err := sender.followUpMessage("not-an-address", "", "Hello"); err == nil {
		t.Fatalf("expected invalid recipient error")
	}
}

func TestRenderFollowUpEscapesHTML(t *testing.T) {
	html, err := renderEmailTemplate("follow_up.html", followUpEmailData{
		baseEmailData: baseEmailData{Title: "Hi", Footer: "Booth Team"},
		Greeting:      "Hi Jane,",
		Paragraphs:    paragraphs("First line\nwraps here.\n\n<script>alert(1)</script>"),
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(html, "First line wraps here.") {
		t.Fatalf("expected folded paragraph, got %s", html)
	}
	if strings.Contains(html, "<script>") {
		t.Fatalf("expected script tag to be escaped")
	}
	if !strings.Contains(html, "Booth Team") {
		t.Fatalf("expected footer in output")
	}
}

func TestParagraphsDropsBlankBlocks(t *testing.T) {
	got := paragraphs("one\r\n\r\n\n\n  two  \n three ")
	if len(got) != 2 || got[0] != "one" || got[1] != "two three" {
		t.Fatalf("unexpected paragraphs %q", got)
	}
}
