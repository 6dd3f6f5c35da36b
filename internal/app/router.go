package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-hq/meridian/internal/finance/accounts"
	"github.com/meridian-hq/meridian/internal/finance/budgets"
	"github.com/meridian-hq/meridian/internal/finance/categories"
	"github.com/meridian-hq/meridian/internal/finance/goals"
	"github.com/meridian-hq/meridian/internal/finance/loans"
	"github.com/meridian-hq/meridian/internal/finance/transactions"
	"github.com/meridian-hq/meridian/internal/observability"
	"github.com/meridian-hq/meridian/internal/platform/httpx"
	"github.com/meridian-hq/meridian/internal/summary"
	"github.com/meridian-hq/meridian/internal/work/boards"
	"github.com/meridian-hq/meridian/internal/work/pomodoro"
	"github.com/meridian-hq/meridian/internal/work/tasks"
	"github.com/meridian-hq/meridian/internal/work/workspaces"
	"github.com/meridian-hq/meridian/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger *slog.Logger
	Config *Config
	Pool   *pgxpool.Pool

	AccountsHandler     *accounts.Handler
	CategoriesHandler   *categories.Handler
	BudgetsHandler      *budgets.Handler
	GoalsHandler        *goals.Handler
	LoansHandler        *loans.Handler
	TransactionsHandler *transactions.Handler
	WorkspacesHandler   *workspaces.Handler
	BoardsHandler       *boards.Handler
	TasksHandler        *tasks.Handler
	PomodoroHandler     *pomodoro.Handler
	SummaryHandler      *summary.Handler
	SummaryService      *summary.Service
	JobHandler          *jobs.Handler
	Metrics             *observability.Metrics
}

// NewRouter constructs the chi.Router with Meridian defaults. All API routes
// live under /api/v1 and require the owner header; health and metrics do not.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		if params.Pool != nil {
			if err := params.Pool.Ping(req.Context()); err != nil {
				params.Logger.Warn("healthz ping", slog.Any("error", err))
				httpx.Problem(w, http.StatusServiceUnavailable, "Unavailable", "database unreachable")
				return
			}
		}
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}

	r.Route("/api/v1", func(api chi.Router) {
		api.Use(OwnerMiddleware(params.Logger))
		if params.SummaryService != nil {
			api.Use(summary.InvalidateOnWrite(params.SummaryService))
		}

		params.AccountsHandler.MountRoutes(api)
		params.CategoriesHandler.MountRoutes(api)
		params.BudgetsHandler.MountRoutes(api)
		params.GoalsHandler.MountRoutes(api)
		params.LoansHandler.MountRoutes(api)
		params.TransactionsHandler.MountRoutes(api)
		params.WorkspacesHandler.MountRoutes(api)
		params.BoardsHandler.MountRoutes(api)
		params.TasksHandler.MountRoutes(api)
		params.PomodoroHandler.MountRoutes(api)
		params.SummaryHandler.MountRoutes(api)
	})

	return r
}
