package api

import (
	"go-segment-report/internal/api/handler"
	"go-segment-report/pkg/router"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "go-segment-report/docs"
)

// NewRouter wires every route of the report server.
func NewRouter(h *handler.ReportHandler) *router.Router {
	r := router.New()
	RegisterRoutes(r, h)
	return r
}

func RegisterRoutes(r *router.Router, h *handler.ReportHandler) {
	r.GET("/", h.Dashboard)
	r.GET("/chart/usage.png", h.UsageChart)

	r.GET("/api/v1/categories", h.ListCategories)
	r.GET("/api/v1/report", h.GetReport)
	r.GET("/api/v1/sections/{name}", h.GetSection)
	r.GET("/api/v1/session", h.GetSession)
	r.POST("/api/v1/session/reload", h.ReloadSession)
	r.POST("/api/v1/export", h.ExportReport)
	r.POST("/api/v1/export/db", h.ExportDatabase)
	r.GET("/api/v1/runs", h.ListRuns)
	r.GET("/api/v1/runs/{id}", h.GetRun)
	r.GET("/api/v1/download/{run}/{file}", h.DownloadFile)

	r.Handle("/metrics", promhttp.Handler())
	r.Handle("/swagger/*", httpSwagger.WrapHandler)
}
