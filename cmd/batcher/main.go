// Package main runs one batch: resize every image of INPUT_DIR and stamp a watermark on it
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/UnendingLoop/ImageBatcher/internal/appcfg"
	"github.com/UnendingLoop/ImageBatcher/internal/kafka"
	"github.com/UnendingLoop/ImageBatcher/internal/model"
	"github.com/UnendingLoop/ImageBatcher/internal/mwlogger"
	"github.com/UnendingLoop/ImageBatcher/internal/pipeline"
	"github.com/UnendingLoop/ImageBatcher/internal/storage"
	"github.com/UnendingLoop/ImageBatcher/internal/storage/localstorage"
	"github.com/UnendingLoop/ImageBatcher/internal/transport"
	"github.com/wb-go/wbf/config"
	"github.com/wb-go/wbf/ginext"
	"github.com/wb-go/wbf/helpers"
	wbfkafka "github.com/wb-go/wbf/kafka"
	"github.com/wb-go/wbf/zlog"
)

func main() {
	os.Exit(run())
}

func run() int {
	// инициализировать конфиг/ считать энвы
	appConfig := config.New()
	appConfig.EnableEnv("")
	if err := appConfig.LoadEnvFiles("./.env"); err != nil {
		log.Printf("No .env loaded, using process env: %v", err)
	}

	settings, err := appcfg.Load(appConfig)
	if err != nil {
		log.Printf("Invalid configuration: %v\nExiting app...", err)
		return 2
	}

	// стартуем логгер
	zlog.InitConsole()
	if err := zlog.SetLevel(settings.LogLevel); err != nil {
		log.Printf("Failed to init logger: %v", err)
		return 2
	}

	// слушатель прерываний: сигнал не рвет контекст воркеров, а только просит пайплайн остановиться
	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	batchID := helpers.CreateUUID()
	logger := zlog.Logger.With().Str("batch_id", batchID).Logger()
	ctx := mwlogger.WithLogger(context.Background(), logger)

	// подключиться к хранилищу результатов
	mcfg := settings.Minio
	mcfg.Prefix = batchID
	strg, err := storage.NewOutputStorage(sigCtx, settings.Backend, settings.Options.InputDir, mcfg, 5, 5*time.Second)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to init output storage")
		return 1
	}

	var closers []Closer

	// события о результатах в кафку - опционально
	var pub pipeline.ResultPublisher = kafka.NoopPublisher{}
	if settings.KafkaBroker != "" {
		producer, err := connectKafka(sigCtx, settings.KafkaBroker, settings.KafkaTopic)
		if err != nil {
			logger.Error().Err(err).Msg("Failed to init kafka")
			return 1
		}
		closers = append(closers, producer)
		pub = kafka.NewResultPublisher(producer)
	}

	onProgress := func(total, processed int, current string) {
		logger.Info().
			Int("processed", processed).
			Int("total", total).
			Float64("percent", float64(processed)/float64(total)*100).
			Str("current", current).
			Msg("Progress")
	}

	var svc BatchRunner
	svc, err = pipeline.New(settings.Options, localstorage.New(settings.Options.InputDir), strg, pub, onProgress)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to create pipeline")
		shutdown(logger, nil, closers)
		return 1
	}
	closers = append(closers, svc)

	// сервер статуса - опционально
	var srv *http.Server
	if settings.StatusPort != "" {
		srv = startStatusServer(logger, svc, settings.StatusPort, settings.GinMode)
	}

	runDone := make(chan struct{})
	go func() {
		select {
		case <-sigCtx.Done():
			logger.Warn().Msg("Interrupt received!!! Cancelling batch, files in progress will be finished")
			svc.Cancel()
		case <-runDone:
		}
	}()

	report, err := svc.Run(ctx)
	close(runDone)
	if err != nil {
		logger.Error().Err(err).Msg("Batch failed")
		shutdown(logger, srv, closers)
		return 1
	}

	printSummary(report)
	shutdown(logger, srv, closers)

	if report.Failed > 0 {
		return 1
	}
	return 0
}

func connectKafka(ctx context.Context, broker, topic string) (*wbfkafka.Producer, error) {
	// ждем пока кафка раздуплится
	waitCtx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()

	if err := kafka.WaitKafkaReady(waitCtx, broker, 2*time.Second); err != nil {
		return nil, err
	}
	if err := kafka.InitKafkaTopics(waitCtx, broker, 5*time.Second, topic); err != nil {
		return nil, err
	}

	return wbfkafka.NewProducer([]string{broker}, topic), nil
}

func startStatusServer(logger zlog.Zerolog, svc BatchRunner, port, mode string) *http.Server {
	handlers := transport.NewStatusHandler(svc)
	engine := ginext.New(mode)

	engine.GET("/ping", handlers.SimplePinger)
	engine.GET("/progress", handlers.Progress) // прогресс текущего прогона
	engine.GET("/results", handlers.Results)   // итог последнего прогона, ?status=failed
	engine.POST("/cancel", handlers.Cancel)    // мягкая отмена

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           mwlogger.NewMWLogger(engine),
		ReadHeaderTimeout: 5 * time.Second,
	}

	// Server launch
	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("Status server running")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("Status server stopped")
		}
	}()

	return srv
}

func printSummary(report *model.BatchReport) {
	fmt.Printf("run %s: %d total, %d processed, %d failed, %d skipped", report.RunID, report.Total, report.Processed, report.Failed, report.Skipped)
	if report.Cancelled {
		fmt.Print(" (cancelled)")
	}
	fmt.Println()

	for _, r := range report.Results {
		if r.Status == model.StatusFailed {
			fmt.Printf("  %s: %s\n", r.Name, r.ErrMsg)
		}
	}
}

func shutdown(logger zlog.Zerolog, srv *http.Server, closers []Closer) {
	logger.Info().Msg("Starting shutdown sequence...")

	if srv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logger.Warn().Err(err).Msg("Failed to stop status server gracefully")
		}
	}

	// закрываем в обратном порядке: сначала пайплайн, потом продюсер
	for i := len(closers) - 1; i >= 0; i-- {
		if err := closers[i].Close(); err != nil {
			logger.Warn().Err(err).Msg("Failed to close resource")
		}
	}
	logger.Info().Msg("Shutdown complete")
}
