package appcfg

import (
	"testing"

	"github.com/UnendingLoop/ImageBatcher/internal/model"
	"github.com/UnendingLoop/ImageBatcher/internal/storage"
	"github.com/stretchr/testify/require"
)

type mapGetter map[string]string

func (m mapGetter) GetString(key string) string { return m[key] }

func TestLoad_Defaults(t *testing.T) {
	s, err := Load(mapGetter{"INPUT_DIR": "/in", "WATERMARK_PATH": "/wm.png"})
	require.NoError(t, err)

	require.Equal(t, model.Options{
		InputDir:      "/in",
		WatermarkPath: "/wm.png",
		MaxWidth:      1280,
		MaxHeight:     720,
		Opacity:       0.5,
		Workers:       5,
	}, s.Options)
	require.Equal(t, "info", s.LogLevel)
	require.Equal(t, storage.BackendLocal, s.Backend)
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name    string
		env     mapGetter
		wantErr bool
		check   func(t *testing.T, s Settings)
	}{
		{
			name: "overrides",
			env: mapGetter{
				"INPUT_DIR": "/in", "WATERMARK_PATH": "/wm.png",
				"MAX_WIDTH": "800", "MAX_HEIGHT": " 600 ", "OPACITY": "0", "MAX_WORKERS": "2",
				"LOG_LEVEL": "DEBUG", "OUTPUT_BACKEND": "minio", "MINIO_ADDR": "minio:9000", "MINIO_SECURE": "true",
			},
			check: func(t *testing.T, s Settings) {
				require.Equal(t, 800, s.Options.MaxWidth)
				require.Equal(t, 600, s.Options.MaxHeight)
				require.Equal(t, 0.0, s.Options.Opacity)
				require.Equal(t, 2, s.Options.Workers)
				require.Equal(t, "debug", s.LogLevel)
				require.Equal(t, storage.BackendMinio, s.Backend)
				require.True(t, s.Minio.Secure)
			},
		},
		{name: "missing input dir", env: mapGetter{"WATERMARK_PATH": "/wm.png"}, wantErr: true},
		{name: "bad width", env: mapGetter{"INPUT_DIR": "/in", "WATERMARK_PATH": "/wm.png", "MAX_WIDTH": "wide"}, wantErr: true},
		{name: "opacity out of range", env: mapGetter{"INPUT_DIR": "/in", "WATERMARK_PATH": "/wm.png", "OPACITY": "1.5"}, wantErr: true},
		{name: "zero workers", env: mapGetter{"INPUT_DIR": "/in", "WATERMARK_PATH": "/wm.png", "MAX_WORKERS": "0"}, wantErr: true},
		{name: "unknown backend", env: mapGetter{"INPUT_DIR": "/in", "WATERMARK_PATH": "/wm.png", "OUTPUT_BACKEND": "s3"}, wantErr: true},
		{name: "minio without addr", env: mapGetter{"INPUT_DIR": "/in", "WATERMARK_PATH": "/wm.png", "OUTPUT_BACKEND": "minio"}, wantErr: true},
		{name: "broker without topic", env: mapGetter{"INPUT_DIR": "/in", "WATERMARK_PATH": "/wm.png", "KAFKA_BROKER": "kafka:9092"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Load(tt.env)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			tt.check(t, s)
		})
	}
}

func TestLoad_InvalidOptionsWrapSentinel(t *testing.T) {
	_, err := Load(mapGetter{"INPUT_DIR": "/in", "WATERMARK_PATH": "/wm.png", "OPACITY": "-1"})
	require.ErrorIs(t, err, model.ErrInvalidOptions)
	require.ErrorIs(t, err, model.ErrInvalidOpacity)
}
