package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"alfredoptarigan/resume-screener/internal/services"
)

// findResumes lists the PDF files directly inside dir, sorted by name.
func findResumes(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".pdf") {
			continue
		}
		files = append(files, filepath.Join(dir, entry.Name()))
	}
	sort.Strings(files)

	return files, nil
}

func consoleReportName(fileName string) string {
	return fmt.Sprintf("Domain_Report_%s.docx", services.ReportBaseName(fileName))
}

// screenFolder screens resumes one at a time and writes a report for each.
func screenFolder(
	ctx context.Context,
	w io.Writer,
	screener services.ScreenerService,
	renderer services.ReportRenderer,
	domain string,
	resumes []string,
	outDir string,
) error {
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return fmt.Errorf("failed to create output folder: %w", err)
	}

	fmt.Fprintf(w, "\n📊 Found %d resumes...\n", len(resumes))

	guidance := screener.Guidance(ctx, domain)

	for _, path := range resumes {
		name := filepath.Base(path)
		fmt.Fprintf(w, "\n🔄 Screening %s for %s domain...\n", name, domain)

		result, err := screener.ScreenResume(ctx, domain, services.ResumeFile{
			Name: name,
			Path: path,
			Mime: services.MimePDF,
		}, guidance)
		if err != nil {
			return err
		}

		if result.Failed {
			fmt.Fprintf(w, "❌ Failed: %s (%s)\n", name, result.FullAnalysis)
		} else {
			fmt.Fprintf(w, "✅ Completed: %s (score %d, selected %t)\n", name, result.MatchScore, result.Selected)
		}

		report, err := renderer.Render(services.ReportData{
			FileName:      result.FileName,
			Domain:        result.Domain,
			MatchScore:    result.MatchScore,
			Selected:      result.Selected,
			KeyStrengths:  result.KeyStrengths,
			MissingSkills: result.MissingSkills,
			FullAnalysis:  result.FullAnalysis,
			GeneratedAt:   result.Timestamp,
		})
		if err != nil {
			return err
		}

		if err := os.WriteFile(filepath.Join(outDir, consoleReportName(name)), report.Content, 0644); err != nil {
			return fmt.Errorf("failed to write report for %s: %w", name, err)
		}

		if err := ctx.Err(); err != nil {
			return err
		}
	}

	fmt.Fprintln(w, "\n🎉 Domain Screening Completed!")
	return nil
}
