// Package appcfg maps env-style configuration keys onto batch settings
package appcfg

import (
	"errors"
	"fmt"
	"strings"

	"github.com/UnendingLoop/ImageBatcher/internal/model"
	"github.com/UnendingLoop/ImageBatcher/internal/storage"
	"github.com/UnendingLoop/ImageBatcher/internal/storage/miniostorage"
	"github.com/spf13/cast"
)

// Getter is the part of *config.Config the loader needs.
type Getter interface {
	GetString(key string) string
}

type Settings struct {
	Options     model.Options
	LogLevel    string
	Backend     string
	Minio       miniostorage.Config
	KafkaBroker string
	KafkaTopic  string
	StatusPort  string
	GinMode     string
}

// Load reads every key, applies defaults and validates the pipeline options.
func Load(g Getter) (Settings, error) {
	var errs []error

	s := Settings{
		Options: model.Options{
			InputDir:      get(g, "INPUT_DIR"),
			WatermarkPath: get(g, "WATERMARK_PATH"),
			MaxWidth:      intOr(g, "MAX_WIDTH", model.DefaultMaxWidth, &errs),
			MaxHeight:     intOr(g, "MAX_HEIGHT", model.DefaultMaxHeight, &errs),
			Opacity:       floatOr(g, "OPACITY", model.DefaultOpacity, &errs),
			Workers:       intOr(g, "MAX_WORKERS", model.DefaultWorkers, &errs),
		},
		LogLevel: strings.ToLower(get(g, "LOG_LEVEL")),
		Backend:  strings.ToLower(get(g, "OUTPUT_BACKEND")),
		Minio: miniostorage.Config{
			Addr:     get(g, "MINIO_ADDR"),
			User:     get(g, "MINIO_USER"),
			Password: get(g, "MINIO_PASS"),
			Bucket:   get(g, "BUCKET_NAME"),
			Secure:   boolOr(g, "MINIO_SECURE", false, &errs),
		},
		KafkaBroker: get(g, "KAFKA_BROKER"),
		KafkaTopic:  get(g, "KAFKA_TOPIC"),
		StatusPort:  get(g, "STATUS_PORT"),
		GinMode:     get(g, "GIN_MODE"),
	}

	if s.LogLevel == "" {
		s.LogLevel = "info"
	}
	if s.Backend == "" {
		s.Backend = storage.BackendLocal
	}
	if s.Backend != storage.BackendLocal && s.Backend != storage.BackendMinio {
		errs = append(errs, fmt.Errorf("OUTPUT_BACKEND: unknown backend %q", s.Backend))
	}
	if s.Backend == storage.BackendMinio && s.Minio.Addr == "" {
		errs = append(errs, errors.New("MINIO_ADDR is required for the minio backend"))
	}
	if s.KafkaBroker != "" && s.KafkaTopic == "" {
		errs = append(errs, errors.New("KAFKA_TOPIC is required when KAFKA_BROKER is set"))
	}

	if err := s.Options.Validate(); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return Settings{}, errors.Join(errs...)
	}
	return s, nil
}

func get(g Getter, key string) string {
	return strings.TrimSpace(g.GetString(key))
}

func intOr(g Getter, key string, def int, errs *[]error) int {
	raw := get(g, key)
	if raw == "" {
		return def
	}
	v, err := cast.ToIntE(raw)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return v
}

func floatOr(g Getter, key string, def float64, errs *[]error) float64 {
	raw := get(g, key)
	if raw == "" {
		return def
	}
	v, err := cast.ToFloat64E(raw)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return v
}

func boolOr(g Getter, key string, def bool, errs *[]error) bool {
	raw := get(g, key)
	if raw == "" {
		return def
	}
	v, err := cast.ToBoolE(raw)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return v
}
