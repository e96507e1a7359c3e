package sanitize

import "testing"

func TestStripHTMLRemovesEncodedTags(t *testing.T) {
	got := StripHTML(" <b>Acme</b> &lt;script&gt;alert(1)&lt;/script&gt; ")
	if got != "Acme alert(1)" {
		t.Fatalf("unexpected result %q", got)
	}
}

func TestTextKeepsNewlines(t *testing.T) {
	got := Text("line one\nline\x00 two")
	if got != "line one\nline two" {
		t.Fatalf("unexpected result %q", got)
	}
}

func TestLineCollapsesWhitespace(t *testing.T) {
	got := Line("  Jane \t\n  Doe ")
	if got != "Jane Doe" {
		t.Fatalf("unexpected result %q", got)
	}
}

func TestPtrHelpersKeepNil(t *testing.T) {
	if TextPtr(nil) != nil || LinePtr(nil) != nil {
		t.Fatalf("expected nil passthrough")
	}
}
