package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/spf13/cobra"

	"github.com/haatos/stageflow/internal"
	"github.com/haatos/stageflow/internal/handler"
	"github.com/haatos/stageflow/internal/layout"
	"github.com/haatos/stageflow/internal/service"
	"github.com/haatos/stageflow/internal/settings"
	"github.com/haatos/stageflow/internal/store"
	"github.com/haatos/stageflow/internal/topology"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the pipeline editing, run and layout API",
		Args:  cobra.NoArgs,
		Run: func(*cobra.Command, []string) {
			serve()
		},
	}
}

func serve() {
	settings.ReadDotenv(internal.DotEnvPath)
	settings.Settings = settings.NewSettings()
	internal.InitializeConfiguration(settings.Settings.ConfigPath)
	rdb := store.InitDatabase(true)
	defer rdb.Close()
	rwdb := store.InitDatabase(false)
	defer rwdb.Close()
	store.RunMigrations(rwdb)

	scheduler := service.NewScheduler()
	defer scheduler.Shutdown()

	pipelineStore := store.NewPipelineSQLiteStore(rdb, rwdb)
	runStore := store.NewRunSQLiteStore(rdb, rwdb)

	config := internal.Config
	pipelineSvc := service.NewPipelineService(pipelineStore, service.NewUUIDGen())
	runSvc := service.NewRunService(
		pipelineSvc,
		pipelineStore,
		runStore,
		scheduler,
		service.WithRunDwell(config.DwellMin.Duration(), config.DwellMax.Duration()),
		service.WithLogInterval(config.LogInterval.Duration()),
	)
	layoutSvc := service.NewLayoutService(
		pipelineSvc,
		layout.NewEngine(config.LayoutOptions()),
		service.WithLayoutPollInterval(config.LayoutPoll.Duration()),
	)
	defer layoutSvc.CloseAll()

	pipelineSvc.OnChange(func(p topology.Pipeline) {
		if err := runSvc.SchedulePipeline(context.Background(), p); err != nil {
			log.Println("err scheduling pipeline:", err)
		}
	})
	pipelineSvc.OnChange(layoutSvc.Invalidate)

	ctx := context.Background()
	if n, err := runSvc.InterruptStaleRuns(ctx); err != nil {
		log.Fatal(err)
	} else if n > 0 {
		log.Printf("marked %d unfinished runs as interrupted\n", n)
	}
	if err := runSvc.InitializeSchedules(ctx); err != nil {
		log.Fatal(err)
	}
	retention := time.Duration(config.RunRetentionDays) * 24 * time.Hour
	if err := runSvc.ScheduleRunPruning(retention); err != nil {
		log.Fatal(err)
	}
	scheduler.Start()

	e := setupEcho()
	api := e.Group("/api")
	handler.SetupPipelineRoutes(api, handler.NewPipelineHandler(
		pipelineSvc,
		runSvc.ForgetPipeline,
		layoutSvc.Close,
	))
	handler.SetupRunRoutes(api, handler.NewRunHandler(runSvc))
	handler.SetupLayoutRoutes(api, handler.NewLayoutHandler(layoutSvc))
	handler.SetupConfigRoutes(api, handler.NewConfigHandler(settings.Settings.ConfigPath))

	log.Println("serving", settings.Settings.Title, "at", settings.Settings.BaseURL())
	internal.GracefulShutdown(e, settings.Settings.Port)
}

func setupEcho() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = handler.ErrorHandler
	e.Use(
		middleware.Recover(),
		middleware.CORSWithConfig(internal.GetCORSConfig()),
		middleware.RateLimiterWithConfig(internal.GetRateLimiterConfig()),
	)
	e.GET("/healthz", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	return e
}
