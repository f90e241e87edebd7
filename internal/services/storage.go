package services

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrInvalidFileType   = errors.New("only PDF files are allowed")
	ErrInvalidReportName = errors.New("invalid report name")
)

type StorageService interface {
	EnsureDirs() error
	SaveUpload(file *multipart.FileHeader) (string, error)
	DeleteFile(path string) error
	SaveReport(name string, content []byte) (string, error)
	ReportPath(name string) (string, error)
}

type storageService struct {
	uploadPath string
	reportPath string
}

func NewStorageService(uploadPath, reportPath string) StorageService {
	return &storageService{
		uploadPath: uploadPath,
		reportPath: reportPath,
	}
}

func (s *storageService) EnsureDirs() error {
	for _, dir := range []string{s.uploadPath, s.reportPath} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}

// SaveUpload stores an uploaded PDF under a unique name and returns its path.
func (s *storageService) SaveUpload(file *multipart.FileHeader) (string, error) {
	if err := ValidatePDFUpload(file); err != nil {
		return "", err
	}

	filePath := filepath.Join(s.uploadPath, fmt.Sprintf("resume_%s.pdf", uuid.New().String()))

	src, err := file.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer src.Close()

	dst, err := os.Create(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to create destination file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		os.Remove(filePath)
		return "", fmt.Errorf("failed to save file: %w", err)
	}

	return filePath, nil
}

func (s *storageService) DeleteFile(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

func (s *storageService) SaveReport(name string, content []byte) (string, error) {
	path, err := s.ReportPath(name)
	if err != nil {
		return "", err
	}

	if err := os.WriteFile(path, content, 0644); err != nil {
		return "", fmt.Errorf("failed to write report: %w", err)
	}

	return path, nil
}

// ReportPath resolves a bare .docx name inside the reports directory.
func (s *storageService) ReportPath(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || strings.ContainsAny(name, `/\`) ||
		strings.HasPrefix(name, ".") || !strings.EqualFold(filepath.Ext(name), ".docx") {
		return "", ErrInvalidReportName
	}

	return filepath.Join(s.reportPath, name), nil
}

// ValidatePDFUpload accepts files with a .pdf extension and a PDF (or unspecified) content type.
func ValidatePDFUpload(file *multipart.FileHeader) error {
	if !strings.EqualFold(filepath.Ext(file.Filename), ".pdf") {
		return fmt.Errorf("%w: %s", ErrInvalidFileType, file.Filename)
	}

	switch contentType := file.Header.Get("Content-Type"); contentType {
	case "", MimePDF, "application/octet-stream":
		return nil
	default:
		return fmt.Errorf("%w: %s has content type %s", ErrInvalidFileType, file.Filename, contentType)
	}
}
