package handlers

import "github.com/gofiber/fiber/v2"

type Router struct {
	Meta      *MetaHandler
	Analyze   *AnalyzeHandler
	Report    *ReportHandler
	Screening *ScreeningHandler
}

// Register mounts every route on app.
func (r Router) Register(app *fiber.App) {
	api := app.Group("/api")

	api.Get("/health", r.Meta.HandleHealth)
	api.Get("/domain-skills", r.Meta.HandleDomainSkills)

	api.Post("/analyze", r.Analyze.HandleAnalyze)
	api.Post("/generate-report", r.Report.HandleGenerateReport)
	api.Get("/reports/:name", r.Report.HandleDownloadReport)

	api.Post("/screenings", r.Screening.HandleCreateScreening)
	api.Get("/screenings/:id", r.Screening.HandleGetScreening)
	api.Get("/results", r.Screening.HandleListResults)
	api.Get("/results/:id", r.Screening.HandleGetResult)

	app.Get("/", r.Meta.HandleIndex)
}
