package main

import (
	"context"

	"github.com/UnendingLoop/ImageBatcher/internal/model"
)

// BatchRunner - все, что нужно main от пайплайна
type BatchRunner interface {
	Run(ctx context.Context) (*model.BatchReport, error)
	Cancel()
	Close() error
	Progress() model.ProgressSnapshot
	LastReport() (*model.BatchReport, error)
}

// Closer - продюсер кафки или любой другой ресурс, который надо закрыть на выходе
type Closer interface {
	Close() error
}
