// Package model provides data-structs for internal app-usage
package model

import (
	"errors"
	"math"
	"path/filepath"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
)

type Status string

const (
	StatusDone    Status = "done"
	StatusFailed  Status = "failed"
	StatusSkipped Status = "skipped"
)

// Defaults for Options fields left at zero value.
const (
	DefaultMaxWidth  = 1280
	DefaultMaxHeight = 720
	DefaultOpacity   = 0.5
	DefaultWorkers   = 5
)

// Output subfolders created under the input folder.
const (
	ResizeDir      = "resize"
	WatermarkedDir = "watermarked"
)

//---------------------

// Options is the constructor-time configuration of a batch pipeline.
type Options struct {
	InputDir      string  `json:"input_dir"`
	WatermarkPath string  `json:"watermark_path"`
	MaxWidth      int     `json:"max_width"`
	MaxHeight     int     `json:"max_height"`
	Opacity       float64 `json:"opacity"`
	Workers       int     `json:"workers"`
}

// WithDefaults fills zero-valued size and worker fields. Opacity 0 is a valid
// setting, so its default is applied by the config loader instead.
func (o Options) WithDefaults() Options {
	if o.MaxWidth == 0 {
		o.MaxWidth = DefaultMaxWidth
	}
	if o.MaxHeight == 0 {
		o.MaxHeight = DefaultMaxHeight
	}
	if o.Workers == 0 {
		o.Workers = DefaultWorkers
	}
	return o
}

func (o Options) Validate() error {
	switch {
	case o.InputDir == "":
		return errors.Join(ErrInvalidOptions, errors.New("input folder is empty"))
	case o.WatermarkPath == "":
		return errors.Join(ErrInvalidOptions, errors.New("watermark path is empty"))
	case o.MaxWidth <= 0 || o.MaxHeight <= 0:
		return errors.Join(ErrInvalidOptions, ErrInvalidGeometry)
	case o.Workers <= 0:
		return errors.Join(ErrInvalidOptions, errors.New("workers must be positive"))
	case math.IsNaN(o.Opacity) || o.Opacity < 0 || o.Opacity > 1:
		return errors.Join(ErrInvalidOptions, ErrInvalidOpacity)
	}
	return nil
}

//---------------------

// FileResult is the outcome of one file going through the pipeline.
type FileResult struct {
	RunID          uuid.UUID     `json:"run_id"`
	Name           string        `json:"name"`
	Status         Status        `json:"status"`
	Err            error         `json:"-"`
	ErrMsg         string        `json:"error,omitempty"`
	SourceWidth    int           `json:"source_width,omitempty"`
	SourceHeight   int           `json:"source_height,omitempty"`
	Width          int           `json:"width,omitempty"`
	Height         int           `json:"height,omitempty"`
	WatermarkX     int           `json:"watermark_x,omitempty"`
	WatermarkY     int           `json:"watermark_y,omitempty"`
	ResizedKey     string        `json:"resized_key,omitempty"`
	WatermarkedKey string        `json:"watermarked_key,omitempty"`
	Elapsed        time.Duration `json:"elapsed_ns,omitempty"`
}

// BatchReport aggregates results of one Run in input order.
type BatchReport struct {
	RunID     uuid.UUID    `json:"run_id"`
	Total     int          `json:"total"`
	Processed int          `json:"processed"`
	Failed    int          `json:"failed"`
	Skipped   int          `json:"skipped"`
	Cancelled bool         `json:"cancelled"`
	Results   []FileResult `json:"results"`
}

// ResultsQuery filters BatchReport.Results by status when Status is set.
type ResultsQuery struct {
	Status string `form:"status"`
}

// ParseStatus validates a status filter. Empty means no filter.
func ParseStatus(s string) (Status, error) {
	switch st := Status(strings.ToLower(s)); st {
	case "", StatusDone, StatusFailed, StatusSkipped:
		return st, nil
	}
	return "", ErrIncorrectStatus
}

// ProgressSnapshot is a consistent view of batch progress.
type ProgressSnapshot struct {
	Total     int    `json:"total"`
	Processed int    `json:"processed"`
	Current   string `json:"current,omitempty"`
}

// Percent returns Processed/Total*100. The result is NaN when Total is 0.
func (p ProgressSnapshot) Percent() float64 {
	if p.Total == 0 {
		return math.NaN()
	}
	return float64(p.Processed) / float64(p.Total) * 100
}

// ------------------

var (
	ErrFolderNotFound    error = errors.New("input folder not found")
	ErrFileNotFound      error = errors.New("watermark file not found")
	ErrInvalidOptions    error = errors.New("invalid pipeline options")
	ErrInvalidGeometry   error = errors.New("invalid image geometry")
	ErrInvalidOpacity    error = errors.New("opacity must be within [0,1]")
	ErrInvalidStride     error = errors.New("stride too small for width")
	ErrDecode            error = errors.New("failed to decode image")
	ErrEncode            error = errors.New("failed to encode image")
	ErrSave              error = errors.New("failed to save image")
	ErrUnexpected        error = errors.New("unexpected fault while processing file")
	ErrPipelineClosed    error = errors.New("pipeline is closed")
	ErrResultNotReady    error = errors.New("no finished batch yet")
	ErrIncorrectStatus   error = errors.New("incorrect status filter")
	ErrUnsupportedFormat error = errors.New("unsupported image format")
	ErrCommon500         error = errors.New("something went wrong. Try again later")
)

//--------------------

const (
	JPEG = "image/jpeg"
	PNG  = "image/png"
	GIF  = "image/gif"
	BMP  = "image/bmp"
)

// SupportedExt is the allow-list of input extensions, lowercase with dot.
var SupportedExt = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".bmp":  true,
	".gif":  true,
}

var GetCType = map[imaging.Format]string{
	imaging.JPEG: JPEG,
	imaging.GIF:  GIF,
	imaging.PNG:  PNG,
	imaging.BMP:  BMP,
}

// IsSupported reports whether the file name carries an allowed extension.
func IsSupported(name string) bool {
	return SupportedExt[strings.ToLower(filepath.Ext(name))]
}
