package richtext

import "testing"

func mustParse(t *testing.T, markup string) *Text {
	t.Helper()
	txt, err := Parse(markup)
	if err != nil {
		t.Fatalf("Parse(%q): %v", markup, err)
	}
	return txt
}

func TestParse_StylesAndPlainText(t *testing.T) {
	txt := mustParse(t, "Hello <b>bold <i>both</i></b> <u>under</u>")
	if got := txt.String(); got != "Hello bold both under" {
		t.Errorf("plain = %q", got)
	}
	if !txt.HasStyle(6, 10, Bold) {
		t.Error("expected bold on [6,10)")
	}
	if !txt.HasStyle(11, 15, Bold|Italic) {
		t.Error("expected bold+italic on [11,15)")
	}
	if txt.HasStyle(0, 5, Bold) {
		t.Error("unexpected bold on [0,5)")
	}
}

func TestMarkupRoundTrip(t *testing.T) {
	in := `Read <a href="https://example.com"><b>this</b></a> now`
	txt := mustParse(t, in)
	if got := txt.Markup(); got != in {
		t.Errorf("markup = %q, want %q", got, in)
	}
}

func TestToggle_AddsThenRemoves(t *testing.T) {
	txt := New("Hello world")
	txt.Toggle(0, 5, Bold)
	if got := txt.Markup(); got != "<b>Hello</b> world" {
		t.Fatalf("after first toggle = %q", got)
	}
	txt.Toggle(0, 5, Bold)
	if got := txt.Markup(); got != "Hello world" {
		t.Errorf("after second toggle = %q", got)
	}
	if len(txt.Spans()) != 1 {
		t.Errorf("spans = %d, want 1 after merge", len(txt.Spans()))
	}
}

func TestToggle_PartialRangeAddsEverywhere(t *testing.T) {
	txt := mustParse(t, "<b>Hello</b> world")
	txt.Toggle(0, 11, Bold)
	if got := txt.Markup(); got != "<b>Hello world</b>" {
		t.Errorf("markup = %q", got)
	}
}

func TestToggle_EmptyRangeNoop(t *testing.T) {
	txt := New("abc")
	txt.Toggle(2, 2, Italic)
	if got := txt.Markup(); got != "abc" {
		t.Errorf("markup = %q", got)
	}
}

func TestReplace_KeepsFormattingOfReplacedRun(t *testing.T) {
	txt := mustParse(t, "Hello <b>world</b>")
	txt.Replace(6, 11, "there")
	if got := txt.Markup(); got != "Hello <b>there</b>" {
		t.Errorf("markup = %q", got)
	}
}

func TestReplace_InsertAtStart(t *testing.T) {
	txt := New("abc")
	txt.Replace(0, 0, "x")
	if got := txt.String(); got != "xabc" {
		t.Errorf("plain = %q", got)
	}
}

func TestReplace_OutOfRangeIsClamped(t *testing.T) {
	txt := New("abc")
	txt.Replace(2, 99, "Z")
	if got := txt.String(); got != "abZ" {
		t.Errorf("plain = %q", got)
	}
}

func TestSetLink(t *testing.T) {
	txt := New("see docs")
	txt.SetLink(4, 8, "https://docs.example")
	if got := txt.Markup(); got != `see <a href="https://docs.example">docs</a>` {
		t.Errorf("markup = %q", got)
	}
	txt.SetLink(4, 8, "")
	if got := txt.Markup(); got != "see docs" {
		t.Errorf("markup after unlink = %q", got)
	}
}

func TestSlice(t *testing.T) {
	txt := mustParse(t, "héllo <i>wörld</i>")
	if got := txt.Slice(6, 11); got != "wörld" {
		t.Errorf("slice = %q", got)
	}
	if got := txt.Len(); got != 11 {
		t.Errorf("len = %d, want 11", got)
	}
}

func TestIsBlank(t *testing.T) {
	cases := map[string]bool{
		"":               true,
		"   ":            true,
		"&nbsp;<br>":     true,
		"<b> </b>":       true,
		"<i>x</i>":       false,
		"text":           false,
		"<br>still here": false,
	}
	for in, want := range cases {
		if got := IsBlank(in); got != want {
			t.Errorf("IsBlank(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestPlain_NormalizesNFC(t *testing.T) {
	if got := Plain("cafe\u0301"); got != "caf\u00e9" {
		t.Errorf("plain = %q", got)
	}
}

func TestMarkdown(t *testing.T) {
	txt := mustParse(t, `<b>Bold</b> and <i>it</i> <a href="/x">link</a>`)
	if got := txt.Markdown(); got != "**Bold** and _it_ [link](/x)" {
		t.Errorf("markdown = %q", got)
	}
}
