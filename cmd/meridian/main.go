package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/meridian-hq/meridian/internal/app"
	"github.com/meridian-hq/meridian/internal/finance/accounts"
	"github.com/meridian-hq/meridian/internal/finance/budgets"
	"github.com/meridian-hq/meridian/internal/finance/categories"
	"github.com/meridian-hq/meridian/internal/finance/goals"
	"github.com/meridian-hq/meridian/internal/finance/loans"
	"github.com/meridian-hq/meridian/internal/finance/transactions"
	"github.com/meridian-hq/meridian/internal/observability"
	"github.com/meridian-hq/meridian/internal/platform/cache"
	"github.com/meridian-hq/meridian/internal/platform/db"
	"github.com/meridian-hq/meridian/internal/shared"
	"github.com/meridian-hq/meridian/internal/summary"
	"github.com/meridian-hq/meridian/internal/work/boards"
	"github.com/meridian-hq/meridian/internal/work/pomodoro"
	"github.com/meridian-hq/meridian/internal/work/tasks"
	"github.com/meridian-hq/meridian/internal/work/workspaces"
	"github.com/meridian-hq/meridian/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis unavailable, summary cache disabled", slog.Any("error", err))
		redisClient = nil
	}
	defer func() {
		if redisClient == nil {
			return
		}
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	metrics := observability.NewMetrics()
	auditLogger := shared.NewAuditLogger(pool)

	accountsRepo := accounts.NewRepository(pool)
	accountsService := accounts.NewService(accountsRepo, auditLogger, logger)
	accountsHandler := accounts.NewHandler(logger, accountsService)

	categoriesRepo := categories.NewRepository(pool)
	categoriesService := categories.NewService(categoriesRepo)
	categoriesHandler := categories.NewHandler(logger, categoriesService)

	budgetsRepo := budgets.NewRepository(pool)
	budgetsService := budgets.NewService(budgetsRepo, auditLogger, logger)
	budgetsHandler := budgets.NewHandler(logger, budgetsService)

	goalsRepo := goals.NewRepository(pool)
	goalsService := goals.NewService(goalsRepo)
	goalsHandler := goals.NewHandler(logger, goalsService)

	loansRepo := loans.NewRepository(pool)
	loansService := loans.NewService(loansRepo)
	loansHandler := loans.NewHandler(logger, loansService)

	transactionsRepo := transactions.NewRepository(pool)
	transactionsService := transactions.NewService(transactionsRepo, auditLogger, logger)
	transactionsHandler := transactions.NewHandler(logger, transactionsService)

	workspacesRepo := workspaces.NewRepository(pool)
	workspacesService := workspaces.NewService(workspacesRepo)
	workspacesHandler := workspaces.NewHandler(logger, workspacesService)

	boardsRepo := boards.NewRepository(pool)
	boardsService := boards.NewService(boardsRepo)
	boardsHandler := boards.NewHandler(logger, boardsService)

	tasksRepo := tasks.NewRepository(pool)
	tasksService := tasks.NewService(tasksRepo)
	tasksHandler := tasks.NewHandler(logger, tasksService)

	pomodoroRepo := pomodoro.NewRepository(pool)
	pomodoroService := pomodoro.NewService(pomodoroRepo)
	pomodoroHandler := pomodoro.NewHandler(logger, pomodoroService)

	summaryRepo := summary.NewRepository(pool)
	summaryCache := summary.NewCache(redisClient, cfg.SummaryCacheTTL)
	summaryService := summary.NewService(summaryRepo, summaryCache, logger, "en")
	summaryHandler := summary.NewHandler(logger, summaryService)
	if err := summaryCache.ListenForInvalidation(ctx); err != nil {
		logger.Warn("summary cache subscribe", slog.Any("error", err))
	}

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("init job client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, jobClient, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:              logger,
		Config:              cfg,
		Pool:                pool,
		AccountsHandler:     accountsHandler,
		CategoriesHandler:   categoriesHandler,
		BudgetsHandler:      budgetsHandler,
		GoalsHandler:        goalsHandler,
		LoansHandler:        loansHandler,
		TransactionsHandler: transactionsHandler,
		WorkspacesHandler:   workspacesHandler,
		BoardsHandler:       boardsHandler,
		TasksHandler:        tasksHandler,
		PomodoroHandler:     pomodoroHandler,
		SummaryHandler:      summaryHandler,
		SummaryService:      summaryService,
		JobHandler:          jobHandler,
		Metrics:             metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
