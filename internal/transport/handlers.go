// Package transport exposes a running batch over HTTP: progress, results and cancel
package transport

import (
	"math"

	"github.com/UnendingLoop/ImageBatcher/internal/model"
	"github.com/wb-go/wbf/ginext"
)

type StatusHandler struct {
	service BatchService
}

type BatchService interface {
	Progress() model.ProgressSnapshot
	LastReport() (*model.BatchReport, error) // отчет последнего завершенного прогона
	Cancel()                                 // файлы в работе дорабатывают, остальные пропускаются
}

func NewStatusHandler(svc BatchService) *StatusHandler {
	return &StatusHandler{
		service: svc,
	}
}

func (h StatusHandler) SimplePinger(ctx *ginext.Context) {
	ctx.JSON(200, map[string]string{"message": "pong"})
}

type progressView struct {
	model.ProgressSnapshot
	Percent *float64 `json:"percent"`
}

func (h StatusHandler) Progress(ctx *ginext.Context) {
	snap := h.service.Progress()

	view := progressView{ProgressSnapshot: snap}
	// NaN при пустом батче не сериализуется в JSON, отдаем null
	if p := snap.Percent(); !math.IsNaN(p) {
		view.Percent = &p
	}

	ctx.JSON(200, view)
}

func (h StatusHandler) Results(ctx *ginext.Context) {
	var req model.ResultsQuery
	if err := ctx.ShouldBindQuery(&req); err != nil {
		ctx.JSON(400, map[string]string{"error": "failed to parse query-params"})
		return
	}
	status, err := model.ParseStatus(req.Status)
	if err != nil {
		ctx.JSON(errorCodeDefiner(err), map[string]string{"error": err.Error()})
		return
	}

	report, err := h.service.LastReport()
	if err != nil {
		ctx.JSON(errorCodeDefiner(err), map[string]string{"error": err.Error()})
		return
	}

	if status == "" {
		ctx.JSON(200, report)
		return
	}

	filtered := *report
	filtered.Results = make([]model.FileResult, 0, len(report.Results))
	for _, r := range report.Results {
		if r.Status == status {
			filtered.Results = append(filtered.Results, r)
		}
	}
	ctx.JSON(200, filtered)
}

func (h StatusHandler) Cancel(ctx *ginext.Context) {
	h.service.Cancel()
	ctx.JSON(202, map[string]string{"message": "cancellation requested"})
}
