package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"alfredoptarigan/resume-screener/internal/models"
	"alfredoptarigan/resume-screener/internal/repositories"
	"alfredoptarigan/resume-screener/internal/services"
)

type stubScreener struct {
	domain string
	files  []services.ResumeFile
}

func (s *stubScreener) ScreenBatch(_ context.Context, domain string, files []services.ResumeFile) ([]models.ScreeningResult, error) {
	s.domain = domain
	s.files = files

	results := make([]models.ScreeningResult, len(files))
	for i, f := range files {
		if _, err := os.Stat(f.Path); err != nil {
			return nil, err
		}
		results[i] = models.ScreeningResult{
			FileName:      f.Name,
			Domain:        domain,
			MatchScore:    70 + i,
			KeyStrengths:  []string{"Go"},
			MissingSkills: []string{"Rust"},
			Timestamp:     time.Now().UTC(),
		}
	}
	return results, nil
}

func (s *stubScreener) ScreenResume(context.Context, string, services.ResumeFile, string) (models.ScreeningResult, error) {
	return models.ScreeningResult{}, nil
}

func (s *stubScreener) Guidance(context.Context, string) string { return "" }

func (s *stubScreener) ProcessJob(context.Context, uuid.UUID) error { return nil }

type stubWorker struct {
	enqueued []uuid.UUID
}

func (w *stubWorker) Start(context.Context)      {}
func (w *stubWorker) Stop()                      {}
func (w *stubWorker) EnqueueJob(jobID uuid.UUID) { w.enqueued = append(w.enqueued, jobID) }

type memoryJobRepo struct {
	jobs map[uuid.UUID]*models.ScreeningJob
}

func (m *memoryJobRepo) Create(job *models.ScreeningJob) error {
	m.jobs[job.ID] = job
	return nil
}

func (m *memoryJobRepo) FindByID(id uuid.UUID) (*models.ScreeningJob, error) {
	if job, ok := m.jobs[id]; ok {
		return job, nil
	}
	return nil, repositories.ErrJobNotFound
}

func (m *memoryJobRepo) Claim(uuid.UUID) (bool, error) { return true, nil }
func (m *memoryJobRepo) MarkCompleted(id uuid.UUID) error {
	m.jobs[id].Status = models.StatusCompleted
	return nil
}
func (m *memoryJobRepo) UpdateError(uuid.UUID, string) error                { return nil }
func (m *memoryJobRepo) FindPendingJobs(int) ([]models.ScreeningJob, error) { return nil, nil }

type memoryRecordRepo struct {
	records []models.ScreeningRecord
	limit   int
	domain  string
}

func (m *memoryRecordRepo) Create(record *models.ScreeningRecord) error {
	m.records = append(m.records, *record)
	return nil
}

func (m *memoryRecordRepo) FindByID(id uuid.UUID) (*models.ScreeningRecord, error) {
	for i := range m.records {
		if m.records[i].ID == id {
			return &m.records[i], nil
		}
	}
	return nil, repositories.ErrRecordNotFound
}

func (m *memoryRecordRepo) FindByJobID(jobID uuid.UUID) ([]models.ScreeningRecord, error) {
	var out []models.ScreeningRecord
	for _, r := range m.records {
		if r.JobID != nil && *r.JobID == jobID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memoryRecordRepo) ListByDomain(domain string, limit int) ([]models.ScreeningRecord, error) {
	m.domain, m.limit = domain, limit
	return m.records, nil
}

type stubArchive struct {
	names []string
}

func (a *stubArchive) Upload(_ context.Context, name string, _ []byte) (string, error) {
	a.names = append(a.names, name)
	return "s3://bucket/" + name, nil
}

type testEnv struct {
	app       *fiber.App
	screener  *stubScreener
	worker    *stubWorker
	jobs      *memoryJobRepo
	records   *memoryRecordRepo
	archive   *stubArchive
	uploadDir string
	reportDir string
}

func newTestEnv(t *testing.T, withHistory bool) *testEnv {
	t.Helper()

	catalog, err := services.NewSkillCatalog(map[string]string{
		"fullstack": "React, Node.js",
		"iot":       "Arduino, STM32",
	})
	if err != nil {
		t.Fatalf("failed to build catalog: %v", err)
	}

	root := t.TempDir()
	env := &testEnv{
		screener:  &stubScreener{},
		worker:    &stubWorker{},
		jobs:      &memoryJobRepo{jobs: map[uuid.UUID]*models.ScreeningJob{}},
		records:   &memoryRecordRepo{},
		archive:   &stubArchive{},
		uploadDir: filepath.Join(root, "uploads"),
		reportDir: filepath.Join(root, "reports"),
	}

	storage := services.NewStorageService(env.uploadDir, env.reportDir)
	if err := storage.EnsureDirs(); err != nil {
		t.Fatalf("failed to create dirs: %v", err)
	}

	log := zap.NewNop()
	screening := NewScreeningHandler(nil, nil, nil, catalog, storage, 1024, log)
	if withHistory {
		screening = NewScreeningHandler(env.jobs, env.records, env.worker, catalog, storage, 1024, log)
	}

	env.app = fiber.New(fiber.Config{ErrorHandler: ErrorHandler(log)})
	Router{
		Meta:      NewMetaHandler(catalog, filepath.Join(root, "index.html")),
		Analyze:   NewAnalyzeHandler(env.screener, catalog, storage, 1024, log),
		Report:    NewReportHandler(services.NewReportRenderer(), storage, env.archive, log),
		Screening: screening,
	}.Register(env.app)

	return env
}

type upload struct {
	name, contentType string
	content           []byte
}

func multipartRequest(t *testing.T, target, domain string, uploads ...upload) *http.Request {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	if domain != "" {
		writer.WriteField("domain", domain)
	}
	for _, u := range uploads {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", `form-data; name="files"; filename="`+u.name+`"`)
		header.Set("Content-Type", u.contentType)
		part, err := writer.CreatePart(header)
		if err != nil {
			t.Fatalf("failed to create part: %v", err)
		}
		part.Write(u.content)
	}
	writer.Close()

	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func doRequest(t *testing.T, app *fiber.App, req *http.Request, out any) int {
	t.Helper()

	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if out != nil {
		data, _ := io.ReadAll(resp.Body)
		if err := json.Unmarshal(data, out); err != nil {
			t.Fatalf("invalid JSON response %q: %v", data, err)
		}
	}
	return resp.StatusCode
}

func pdfUpload(name string) upload {
	return upload{name: name, contentType: "application/pdf", content: []byte("%PDF-1.4 test")}
}

func TestAnalyze(t *testing.T) {
	env := newTestEnv(t, false)

	var resp models.AnalyzeResponse
	status := doRequest(t, env.app, multipartRequest(t, "/api/analyze", "fullstack", pdfUpload("a.pdf"), pdfUpload("b.pdf")), &resp)

	if status != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	if !resp.Success || resp.Message != "Analyzed 2 resume(s)" || len(resp.Results) != 2 {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if resp.Results[0].FileName != "a.pdf" || resp.Results[1].FileName != "b.pdf" {
		t.Errorf("results out of order: %+v", resp.Results)
	}
	if env.screener.domain != "fullstack" {
		t.Errorf("unexpected domain: %s", env.screener.domain)
	}

	entries, _ := os.ReadDir(env.uploadDir)
	if len(entries) != 0 {
		t.Errorf("uploads should be removed after analysis, found %d", len(entries))
	}
}

func TestAnalyzeValidation(t *testing.T) {
	env := newTestEnv(t, false)

	cases := []struct {
		name    string
		req     *http.Request
		message string
	}{
		{"unknown domain", multipartRequest(t, "/api/analyze", "marketing", pdfUpload("a.pdf")), "Invalid domain selected"},
		{"missing domain", multipartRequest(t, "/api/analyze", "", pdfUpload("a.pdf")), "Invalid domain selected"},
		{"no files", multipartRequest(t, "/api/analyze", "iot"), "No files uploaded"},
		{"not a pdf", multipartRequest(t, "/api/analyze", "iot", upload{"cv.docx", "application/pdf", []byte("x")}), "only PDF files are allowed"},
		{"too large", multipartRequest(t, "/api/analyze", "iot", upload{"big.pdf", "application/pdf", bytes.Repeat([]byte("x"), 2048)}), "too large"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var resp models.ErrorResponse
			status := doRequest(t, env.app, tc.req, &resp)

			if status != fiber.StatusBadRequest {
				t.Fatalf("expected 400, got %d", status)
			}
			if resp.Success || !strings.Contains(resp.Error, tc.message) {
				t.Fatalf("unexpected error response: %+v", resp)
			}
		})
	}

	if env.screener.files != nil {
		t.Fatal("screener must not run for invalid requests")
	}
}

func TestGenerateAndDownloadReport(t *testing.T) {
	env := newTestEnv(t, false)

	body, _ := json.Marshal(models.ReportRequest{
		FileName:      "jane.pdf",
		Domain:        "fullstack",
		MatchScore:    88,
		Selected:      true,
		KeyStrengths:  []string{"React"},
		MissingSkills: []string{"MongoDB"},
		FullAnalysis:  "Match Score: 88/100",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/generate-report", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	var resp models.ReportResponse
	if status := doRequest(t, env.app, req, &resp); status != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}

	if !resp.Success || resp.Message != "Report generated successfully" {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if !strings.HasPrefix(resp.FileName, "Report_") || !strings.HasSuffix(resp.FileName, "_jane.docx") {
		t.Errorf("unexpected report name: %s", resp.FileName)
	}
	if filepath.Dir(resp.FilePath) != env.reportDir {
		t.Errorf("report written outside reports dir: %s", resp.FilePath)
	}
	if resp.ArchiveLocation != "s3://bucket/"+resp.FileName {
		t.Errorf("unexpected archive location: %s", resp.ArchiveLocation)
	}

	download, err := env.app.Test(httptest.NewRequest(http.MethodGet, "/api/reports/"+resp.FileName, nil), -1)
	if err != nil {
		t.Fatalf("download failed: %v", err)
	}
	defer download.Body.Close()
	if download.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200 download, got %d", download.StatusCode)
	}
	data, _ := io.ReadAll(download.Body)
	stored, _ := os.ReadFile(resp.FilePath)
	if !bytes.Equal(data, stored) {
		t.Error("downloaded report differs from stored report")
	}
}

func TestGenerateReportValidation(t *testing.T) {
	env := newTestEnv(t, false)

	req := httptest.NewRequest(http.MethodPost, "/api/generate-report", strings.NewReader(`{"domain":"iot"}`))
	req.Header.Set("Content-Type", "application/json")

	var resp models.ErrorResponse
	if status := doRequest(t, env.app, req, &resp); status != fiber.StatusBadRequest {
		t.Fatalf("expected 400, got %d", status)
	}
	if resp.Error != "fileName is required" {
		t.Errorf("unexpected error: %s", resp.Error)
	}
}

func TestDownloadReportErrors(t *testing.T) {
	env := newTestEnv(t, false)

	if status := doRequest(t, env.app, httptest.NewRequest(http.MethodGet, "/api/reports/missing.docx", nil), nil); status != fiber.StatusNotFound {
		t.Errorf("expected 404, got %d", status)
	}
	if status := doRequest(t, env.app, httptest.NewRequest(http.MethodGet, "/api/reports/notes.txt", nil), nil); status != fiber.StatusBadRequest {
		t.Errorf("expected 400, got %d", status)
	}
}

func TestScreeningsDisabled(t *testing.T) {
	env := newTestEnv(t, false)

	var resp models.ErrorResponse
	status := doRequest(t, env.app, multipartRequest(t, "/api/screenings", "iot", pdfUpload("a.pdf")), &resp)
	if status != fiber.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", status)
	}
	if resp.Error != services.ErrHistoryDisabled.Error() {
		t.Errorf("unexpected error: %s", resp.Error)
	}

	if status := doRequest(t, env.app, httptest.NewRequest(http.MethodGet, "/api/results", nil), nil); status != fiber.StatusServiceUnavailable {
		t.Errorf("expected 503 for results, got %d", status)
	}
}

func TestCreateAndGetScreening(t *testing.T) {
	env := newTestEnv(t, true)

	var created models.JobResponse
	status := doRequest(t, env.app, multipartRequest(t, "/api/screenings", "iot", pdfUpload("a.pdf"), pdfUpload("b.pdf")), &created)
	if status != fiber.StatusAccepted {
		t.Fatalf("expected 202, got %d", status)
	}
	if created.Status != "queued" || created.Domain != "iot" || len(created.Files) != 2 {
		t.Fatalf("unexpected response: %+v", created)
	}

	jobID := uuid.MustParse(created.ID)
	if len(env.worker.enqueued) != 1 || env.worker.enqueued[0] != jobID {
		t.Fatalf("job was not enqueued: %v", env.worker.enqueued)
	}
	job := env.jobs.jobs[jobID]
	for _, path := range job.FilePaths {
		if _, err := os.Stat(path); err != nil {
			t.Errorf("stored upload missing: %v", err)
		}
	}

	job.Status = models.StatusCompleted
	recordID := uuid.New()
	env.records.records = append(env.records.records, models.ScreeningRecord{
		ID:         recordID,
		JobID:      &jobID,
		FileName:   "a.pdf",
		Domain:     "iot",
		MatchScore: 64,
	})

	var fetched models.JobResponse
	if status := doRequest(t, env.app, httptest.NewRequest(http.MethodGet, "/api/screenings/"+created.ID, nil), &fetched); status != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	if fetched.Status != "completed" || len(fetched.Results) != 1 || fetched.Results[0].MatchScore != 64 {
		t.Fatalf("unexpected job response: %+v", fetched)
	}
	if fetched.Results[0].ID != recordID.String() || fetched.Results[0].MissingSkills == nil {
		t.Errorf("unexpected result: %+v", fetched.Results[0])
	}

	var result models.ScreeningResult
	if status := doRequest(t, env.app, httptest.NewRequest(http.MethodGet, "/api/results/"+recordID.String(), nil), &result); status != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	if result.FileName != "a.pdf" {
		t.Errorf("unexpected result: %+v", result)
	}
}

func TestGetScreeningErrors(t *testing.T) {
	env := newTestEnv(t, true)

	if status := doRequest(t, env.app, httptest.NewRequest(http.MethodGet, "/api/screenings/not-a-uuid", nil), nil); status != fiber.StatusBadRequest {
		t.Errorf("expected 400, got %d", status)
	}
	if status := doRequest(t, env.app, httptest.NewRequest(http.MethodGet, "/api/screenings/"+uuid.NewString(), nil), nil); status != fiber.StatusNotFound {
		t.Errorf("expected 404, got %d", status)
	}
	if status := doRequest(t, env.app, httptest.NewRequest(http.MethodGet, "/api/results/"+uuid.NewString(), nil), nil); status != fiber.StatusNotFound {
		t.Errorf("expected 404, got %d", status)
	}
}

func TestListResults(t *testing.T) {
	env := newTestEnv(t, true)
	env.records.records = []models.ScreeningRecord{{ID: uuid.New(), Domain: "iot", FileName: "x.pdf"}}

	var resp struct {
		Success bool                     `json:"success"`
		Results []models.ScreeningResult `json:"results"`
	}
	if status := doRequest(t, env.app, httptest.NewRequest(http.MethodGet, "/api/results?domain=iot&limit=5", nil), &resp); status != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	if !resp.Success || len(resp.Results) != 1 || env.records.domain != "iot" || env.records.limit != 5 {
		t.Fatalf("unexpected list: %+v (domain %q, limit %d)", resp, env.records.domain, env.records.limit)
	}

	if status := doRequest(t, env.app, httptest.NewRequest(http.MethodGet, "/api/results?limit=500", nil), nil); status != fiber.StatusBadRequest {
		t.Errorf("expected 400 for oversized limit, got %d", status)
	}
	if status := doRequest(t, env.app, httptest.NewRequest(http.MethodGet, "/api/results?domain=marketing", nil), nil); status != fiber.StatusBadRequest {
		t.Errorf("expected 400 for unknown domain, got %d", status)
	}
}

func TestMetaRoutes(t *testing.T) {
	env := newTestEnv(t, false)

	var health map[string]any
	if status := doRequest(t, env.app, httptest.NewRequest(http.MethodGet, "/api/health", nil), &health); status != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	if health["status"] != "ok" || health["timestamp"] == nil {
		t.Errorf("unexpected health: %v", health)
	}

	var skills map[string]string
	doRequest(t, env.app, httptest.NewRequest(http.MethodGet, "/api/domain-skills", nil), &skills)
	if skills["iot"] != "Arduino, STM32" || len(skills) != 2 {
		t.Errorf("unexpected skills: %v", skills)
	}

	resp, err := env.app.Test(httptest.NewRequest(http.MethodGet, "/", nil), -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()
	text, _ := io.ReadAll(resp.Body)
	if string(text) != banner {
		t.Errorf("unexpected index: %q", text)
	}
}

func TestErrorHandler(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(zap.NewNop())})
	app.Get("/teapot", func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusTeapot, "short and stout")
	})

	var resp models.ErrorResponse
	if status := doRequest(t, app, httptest.NewRequest(http.MethodGet, "/teapot", nil), &resp); status != fiber.StatusTeapot {
		t.Fatalf("expected 418, got %d", status)
	}
	if resp.Success || resp.Error != "short and stout" {
		t.Errorf("unexpected body: %+v", resp)
	}

	if status := doRequest(t, app, httptest.NewRequest(http.MethodGet, "/missing", nil), &resp); status != fiber.StatusNotFound {
		t.Fatalf("expected 404, got %d", status)
	}
}

type flakyStorage struct {
	services.StorageService
	saved   int
	failAt  int
	deleted []string
}

func (f *flakyStorage) SaveUpload(file *multipart.FileHeader) (string, error) {
	f.saved++
	if f.saved == f.failAt {
		return "", errors.New("disk full")
	}
	return "uploads/" + file.Filename, nil
}

func (f *flakyStorage) DeleteFile(path string) error {
	f.deleted = append(f.deleted, path)
	return errors.New("permission denied")
}

func TestSaveUploadsRollbackLogsDeleteFailures(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	storage := &flakyStorage{failAt: 3}
	files := []*multipart.FileHeader{{Filename: "a.pdf"}, {Filename: "b.pdf"}, {Filename: "c.pdf"}}

	if _, err := saveUploads(storage, files, zap.New(core)); err == nil {
		t.Fatal("expected save error")
	}

	if len(storage.deleted) != 2 {
		t.Fatalf("expected both saved uploads to be removed, got %v", storage.deleted)
	}
	if logs.FilterMessage("failed to remove upload").Len() != 2 {
		t.Errorf("expected a warning per failed removal, got %d", logs.Len())
	}
}
