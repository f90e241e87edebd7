package services

import (
	"bytes"
	_ "embed"
	"encoding/xml"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/nguyenthenguyen/docx"
)

//go:embed templates/report.docx
var reportTemplate []byte

// ReportData is everything the renderer needs for one screened resume.
type ReportData struct {
	FileName      string
	Domain        string
	MatchScore    int
	Selected      bool
	KeyStrengths  []string
	MissingSkills []string
	FullAnalysis  string
	GeneratedAt   time.Time
}

type Report struct {
	FileName string
	Content  []byte
}

type ReportRenderer interface {
	Render(data ReportData) (*Report, error)
}

type reportRenderer struct {
	template []byte
}

func NewReportRenderer() ReportRenderer {
	return &reportRenderer{template: reportTemplate}
}

const (
	runBreak       = `</w:t><w:br/><w:t xml:space="preserve">`
	bulletParaNext = `</w:t></w:r></w:p><w:p><w:pPr><w:pStyle w:val="ListBullet"/></w:pPr><w:r><w:t xml:space="preserve">`
)

// Render fills the DOCX template and suggests Report_<unix-ms>_<base>.docx as the name.
func (r *reportRenderer) Render(data ReportData) (*Report, error) {
	if data.GeneratedAt.IsZero() {
		data.GeneratedAt = time.Now()
	}

	tmpl, err := docx.ReadDocxFromMemory(bytes.NewReader(r.template), int64(len(r.template)))
	if err != nil {
		return nil, fmt.Errorf("failed to open report template: %w", err)
	}
	defer tmpl.Close()

	selected := "NO"
	if data.Selected {
		selected = "YES"
	}

	doc := tmpl.Editable()
	doc.SetContent(strings.NewReplacer(
		"{{FILE_NAME}}", escapeXML(data.FileName),
		"{{DOMAIN}}", escapeXML(data.Domain),
		"{{MATCH_SCORE}}", strconv.Itoa(data.MatchScore),
		"{{SELECTED}}", selected,
		"{{KEY_STRENGTHS}}", bulletRuns(data.KeyStrengths),
		"{{MISSING_SKILLS}}", bulletRuns(data.MissingSkills),
		"{{FULL_ANALYSIS}}", lineRuns(data.FullAnalysis),
		"{{GENERATED_AT}}", data.GeneratedAt.Format(time.RFC1123),
	).Replace(doc.GetContent()))

	var buf bytes.Buffer
	if err := doc.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to write report: %w", err)
	}

	return &Report{
		FileName: fmt.Sprintf("Report_%d_%s.docx", data.GeneratedAt.UnixMilli(), ReportBaseName(data.FileName)),
		Content:  buf.Bytes(),
	}, nil
}

// ReportBaseName strips directories and the .pdf extension from a resume name.
func ReportBaseName(fileName string) string {
	base := filepath.Base(strings.ReplaceAll(fileName, `\`, "/"))
	base = strings.TrimSuffix(base, filepath.Ext(base))
	if base == "" || base == "." || base == "/" {
		return "resume"
	}
	return base
}

func bulletRuns(items []string) string {
	escaped := make([]string, 0, len(items))
	for _, item := range items {
		escaped = append(escaped, "• "+escapeXML(item))
	}
	return strings.Join(escaped, bulletParaNext)
}

func lineRuns(text string) string {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	for i, line := range lines {
		lines[i] = escapeXML(line)
	}
	return strings.Join(lines, runBreak)
}

func escapeXML(s string) string {
	var b strings.Builder
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}
