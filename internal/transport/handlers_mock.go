package transport

import (
	"github.com/UnendingLoop/ImageBatcher/internal/model"
	"github.com/gin-gonic/gin"
)

type mockBatchService struct {
	progressFn   func() model.ProgressSnapshot
	lastReportFn func() (*model.BatchReport, error)
	cancelled    int
}

func (m *mockBatchService) Progress() model.ProgressSnapshot {
	return m.progressFn()
}

func (m *mockBatchService) LastReport() (*model.BatchReport, error) {
	return m.lastReportFn()
}

func (m *mockBatchService) Cancel() {
	m.cancelled++
}

func init() {
	gin.SetMode(gin.TestMode)
}
