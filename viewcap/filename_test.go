package viewcap

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/hazyhaar/viewcap/viewcap/internal/page/pagetest"
	"github.com/hazyhaar/viewcap/viewcap/internal/prompt/prompttest"
)

func TestCleanFilename(t *testing.T) {
	cases := []struct{ in, want string }{
		{"Quarterly Report", "Quarterly Report.pdf"},
		{"scan.pdf", "scan.pdf"},
		{"Scan.PDF", "Scan.PDF"},
		{"  notes  ", "notes.pdf"},
		{"../../etc/passwd", "passwd.pdf"},
		{`C:\Users\op\minutes`, "minutes.pdf"},
		{"bell\x07 and\ttab", "bell andtab.pdf"},
		{"", ""},
		{"..", ""},
		{"/", ""},
		{"\x00\x01", ""},
	}
	for _, c := range cases {
		if got := CleanFilename(c.in); got != c.want {
			t.Errorf("CleanFilename(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestResolveFilename_ExplicitUnchanged(t *testing.T) {
	v := pagetest.NewViewer(1, 0)
	v.FileName = "Detected"
	e := newTestExporter(testConfig(), &prompttest.Script{})

	got, err := e.ResolveFilename(context.Background(), v, "out/dir/custom")
	if err != nil {
		t.Fatal(err)
	}
	if got != "out/dir/custom" {
		t.Errorf("name = %q, want explicit name as given", got)
	}
}

func TestResolveFilename_Detected(t *testing.T) {
	v := pagetest.NewViewer(1, 0)
	v.FileName = "Board minutes 2024"
	script := &prompttest.Script{}

	got, err := newTestExporter(testConfig(), script).ResolveFilename(context.Background(), v, "")
	if err != nil {
		t.Fatal(err)
	}
	if got != "Board minutes 2024.pdf" {
		t.Errorf("name = %q", got)
	}
	if len(script.Asked()) != 0 {
		t.Error("operator asked although the title was found")
	}
}

func TestResolveFilename_UnusableTitleFallsBack(t *testing.T) {
	v := pagetest.NewViewer(1, 0)
	v.FileName = "/"
	script := &prompttest.Script{Answers: []string{"..", "typed"}}

	got, err := newTestExporter(testConfig(), script).ResolveFilename(context.Background(), v, "")
	if err != nil {
		t.Fatal(err)
	}
	if got != "typed.pdf" {
		t.Errorf("name = %q", got)
	}
}

func TestResolveFilename_PromptClosed(t *testing.T) {
	_, err := newTestExporter(testConfig(), &prompttest.Script{}).
		ResolveFilename(context.Background(), pagetest.NewViewer(1, 0), "")
	if !errors.Is(err, io.EOF) {
		t.Fatalf("err = %v, want io.EOF", err)
	}
}
