package services

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/nguyenthenguyen/docx"
)

func renderedContent(t *testing.T, report *Report) string {
	t.Helper()

	doc, err := docx.ReadDocxFromMemory(bytes.NewReader(report.Content), int64(len(report.Content)))
	if err != nil {
		t.Fatalf("rendered report is not a readable docx: %v", err)
	}
	defer doc.Close()

	return doc.Editable().GetContent()
}

func TestReportRendererFillsTemplate(t *testing.T) {
	generated := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)

	report, err := NewReportRenderer().Render(ReportData{
		FileName:      "jane_doe.pdf",
		Domain:        "fullstack",
		MatchScore:    87,
		Selected:      true,
		KeyStrengths:  []string{"Strong React skills", "Node & Express"},
		MissingSkills: []string{"No <MongoDB> experience"},
		FullAnalysis:  "Match Score: 87/100\nSelected: YES",
		GeneratedAt:   generated,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if report.FileName != "Report_1772357400000_jane_doe.docx" {
		t.Errorf("unexpected file name: %s", report.FileName)
	}

	content := renderedContent(t, report)
	for _, want := range []string{
		"Domain Resume Screening Report",
		"File: jane_doe.pdf",
		"Domain: fullstack",
		"Match Score: 87/100",
		"Selected: YES",
		"• Strong React skills",
		"• Node &amp; Express",
		"• No &lt;MongoDB&gt; experience",
		"Match Score: 87/100" + runBreak + "Selected: YES",
		"Generated: Sun, 01 Mar 2026 09:30:00 UTC",
	} {
		if !strings.Contains(content, want) {
			t.Errorf("report missing %q", want)
		}
	}
	if strings.Contains(content, "{{") {
		t.Error("report still contains template placeholders")
	}
}

func TestReportRendererNotSelected(t *testing.T) {
	report, err := NewReportRenderer().Render(ReportData{
		FileName:      "candidate.pdf",
		Domain:        "iot",
		KeyStrengths:  []string{},
		MissingSkills: []string{"Processing error"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	content := renderedContent(t, report)
	if !strings.Contains(content, "Selected: NO") || !strings.Contains(content, "Match Score: 0/100") {
		t.Fatal("expected NO selection and zero score in report")
	}
	if !strings.HasPrefix(report.FileName, "Report_") || !strings.HasSuffix(report.FileName, "_candidate.docx") {
		t.Errorf("unexpected file name: %s", report.FileName)
	}
}

func TestReportRoundTripsThroughExtractor(t *testing.T) {
	report, err := NewReportRenderer().Render(ReportData{
		FileName:      "r.pdf",
		Domain:        "datasci",
		MatchScore:    42,
		KeyStrengths:  []string{"Pandas"},
		MissingSkills: []string{"Deep Learning"},
		FullAnalysis:  "line one\nline two",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	text, err := NewTextExtractor().Extract("report.docx", "", report.Content)
	if err != nil {
		t.Fatalf("unexpected extraction error: %v", err)
	}

	for _, want := range []string{"Domain: datasci", "• Pandas", "• Deep Learning", "line one\nline two"} {
		if !strings.Contains(text, want) {
			t.Errorf("extracted text missing %q:\n%s", want, text)
		}
	}
}

func TestReportBaseName(t *testing.T) {
	cases := map[string]string{
		"resume.pdf":           "resume",
		"../../etc/passwd.pdf": "passwd",
		`C:\Users\a\cv.pdf`:    "cv",
		"":                     "resume",
		"..":                   "resume",
		"no_extension":         "no_extension",
	}

	for in, want := range cases {
		if got := ReportBaseName(in); got != want {
			t.Errorf("ReportBaseName(%q) = %q, want %q", in, got, want)
		}
	}
}
