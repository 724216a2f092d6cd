package main

import (
	"context"
	"database/sql"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-auth-service"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-logger/glog"
	"github.com/goliatone/go-router"
	"github.com/joho/godotenv"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
	"github.com/uptrace/bun/extra/bundebug"
)

type App struct {
	cfg    *auth.ConfigOptions
	bunDB  *bun.DB
	auth   auth.Authenticator
	auther *auth.RouteAuthenticator
	repo   auth.RepositoryManager
	srv    router.Server[*fiber.App]
	logger *glog.BaseLogger
}

func (a *App) GetLogger(name string) glog.Logger {
	return a.logger.GetLogger(name)
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, using process environment")
	}

	lgr := glog.NewLogger(
		glog.WithLoggerTypePretty(),
		glog.WithLevel(glog.Trace),
		glog.WithName("auth-service"),
		glog.WithAddSource(false),
		glog.WithRichErrorHandler(errors.ToSlogAttributes),
	)

	cfg, err := auth.NewConfigFromEnv()
	if err != nil {
		lgr.Error("configuration error", "error", err)
		os.Exit(1)
	}

	app := &App{
		cfg:    cfg,
		logger: lgr,
	}

	ctx := context.Background()

	if err := WithPersistence(ctx, app); err != nil {
		lgr.Error("persistence setup error", "error", err)
		os.Exit(1)
	}

	if err := WithHTTPServer(ctx, app); err != nil {
		lgr.Error("http server setup error", "error", err)
		os.Exit(1)
	}

	if err := WithHTTPAuth(ctx, app); err != nil {
		lgr.Error("auth setup error", "error", err)
		os.Exit(1)
	}

	DemoRoutes(app)

	addr := os.Getenv("AUTH_HTTP_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	app.srv.Serve(addr)

	WaitExitSignal()
}

func WithPersistence(ctx context.Context, app *App) error {
	dsn := os.Getenv("AUTH_DB_DSN")
	if dsn == "" {
		dsn = "file:auth.db?cache=shared&_fk=1"
	}

	sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
	if err != nil {
		return err
	}

	db := bun.NewDB(sqldb, sqlitedialect.New())
	db.AddQueryHook(bundebug.NewQueryHook(
		bundebug.WithEnabled(os.Getenv("AUTH_DEBUG_SQL") != ""),
	))

	if err := auth.CreateSchema(ctx, db); err != nil {
		return err
	}

	app.bunDB = db
	app.repo = auth.NewRepositoryManager(db)
	app.repo.MustValidate()

	seed := auth.NewSeedAdminHandler(app.repo).
		WithLogger(app.GetLogger("auth:seed"))

	return seed.Execute(ctx, auth.SeedAdminMessage{
		Email:    os.Getenv("AUTH_ADMIN_EMAIL"),
		Password: os.Getenv("AUTH_ADMIN_PASSWORD"),
	})
}

func WithHTTPServer(ctx context.Context, app *App) error {
	srv := router.NewFiberAdapter(func(a *fiber.App) *fiber.App {
		return router.DefaultFiberOptions(fiber.New(fiber.Config{
			UnescapePath:      true,
			EnablePrintRoutes: true,
			StrictRouting:     false,
		}))
	})

	srv.Router().WithLogger(app.GetLogger("router"))

	app.srv = srv
	return nil
}

func WithHTTPAuth(ctx context.Context, app *App) error {
	userProvider := auth.NewUserProvider(app.repo.Users())
	userProvider.WithLogger(app.GetLogger("auth:prv"))

	authenticator := auth.NewAuthenticator(userProvider, app.cfg)
	authenticator.WithLogger(app.GetLogger("auth:authn"))

	app.auth = authenticator

	httpAuth, err := auth.NewHTTPAuthenticator(authenticator, app.cfg)
	if err != nil {
		return err
	}

	httpAuth.WithLogger(app.GetLogger("auth:http"))
	app.auther = httpAuth

	hooks := auth.DefaultLifecycleHooks(app.GetLogger("auth:hooks"))

	auth.RegisterAuthRoutes(app.srv.Router().Group("/"),
		auth.WithControllerRepo(app.repo),
		auth.WithControllerAuther(httpAuth),
		auth.WithControllerConfig(app.cfg),
		auth.WithControllerHooks(hooks),
		auth.WithControllerLogger(app.GetLogger("auth:ctrl")),
	)

	return nil
}

// DemoRoutes mounts the role gate demonstration endpoints.
func DemoRoutes(app *App) {
	p := app.srv.Router()

	errHandler := app.auther.MakeAPIAuthErrorHandler(false)

	protected := app.auther.ProtectedRoute(app.cfg, errHandler)
	adminOnly := app.auther.RequireRoles(app.cfg, errHandler, auth.AdminOnly...)
	auditorOrAdmin := app.auther.RequireRoles(app.cfg, errHandler, auth.AuditorOrAdmin...)

	p.Get("/test/public", func(ctx router.Context) error {
		return ctx.JSON(router.StatusOK, router.ViewContext{
			"message": "This is a public endpoint",
		})
	})

	p.Get("/test/protected", func(ctx router.Context) error {
		session, err := auth.GetRouterSession(ctx, app.cfg.GetContextKey())
		if err != nil {
			return err
		}

		userID, err := session.GetUserIntID()
		if err != nil {
			return err
		}

		user, err := app.repo.Users().GetByID(ctx.Context(), userID)
		if err != nil {
			return err
		}

		body := auth.PublicUser(user)
		body["message"] = "You are authenticated"
		return ctx.JSON(router.StatusOK, body)
	}, protected)

	p.Get("/test/protected-admin", func(ctx router.Context) error {
		return ctx.JSON(router.StatusOK, router.ViewContext{
			"message": "Welcome, admin",
		})
	}, adminOnly)

	p.Get("/test/protected-auditor", func(ctx router.Context) error {
		return ctx.JSON(router.StatusOK, router.ViewContext{
			"message": "Welcome, auditor",
		})
	}, auditorOrAdmin)
}

func WaitExitSignal() os.Signal {
	ch := make(chan os.Signal, 3)
	signal.Notify(ch,
		syscall.SIGINT,
		syscall.SIGQUIT,
		syscall.SIGTERM,
	)
	return <-ch
}
