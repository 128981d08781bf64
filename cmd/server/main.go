package main

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/webtrio/webfolio/assets"
	"github.com/webtrio/webfolio/internal"
	"github.com/webtrio/webfolio/internal/auth"
	authmongo "github.com/webtrio/webfolio/internal/auth/mongodb"
	contentmongo "github.com/webtrio/webfolio/internal/content/mongodb"
	"github.com/webtrio/webfolio/internal/db"
	"github.com/webtrio/webfolio/internal/email"
	"github.com/webtrio/webfolio/internal/email/postmark"
	"github.com/webtrio/webfolio/internal/email/smtp"
	emailview "github.com/webtrio/webfolio/internal/email/view"
	"github.com/webtrio/webfolio/internal/media"
	"github.com/webtrio/webfolio/internal/media/cloudinary"
	"github.com/webtrio/webfolio/internal/web"
	"github.com/webtrio/webfolio/internal/web/view"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	os.Exit(run(ctx, os.Stderr))
}

func run(ctx context.Context, w io.Writer) int {
	logger := slog.New(slog.NewTextHandler(w, nil))

	cfg, err := configFromEnv()
	if err != nil {
		logger.Error("failed to get config from environment", "error", err)
		return 1
	}

	connectCtx, cancel := context.WithTimeout(ctx, cfg.db.connectTimeout)
	defer cancel()

	client, err := db.Connect(connectCtx, cfg.db.uri)
	if err != nil {
		logger.Error("failed to connect to mongodb", "error", err)
		return 1
	}

	defer func() {
		if err := client.Disconnect(context.Background()); err != nil {
			logger.Error("failed to disconnect from mongodb", "error", err)
		}
	}()

	database := client.Database(cfg.db.name)

	codeStore := authmongo.NewCodeStore(database)
	sessionStore := authmongo.NewSessionStore(database)
	contentStore := contentmongo.New(database)

	if err := codeStore.EnsureIndexes(connectCtx); err != nil {
		logger.Error("failed to ensure login code indexes", "error", err)
		return 1
	}
	if err := sessionStore.EnsureIndexes(connectCtx); err != nil {
		logger.Error("failed to ensure session indexes", "error", err)
		return 1
	}
	if err := contentStore.EnsureIndexes(connectCtx); err != nil {
		logger.Error("failed to ensure content indexes", "error", err)
		return 1
	}

	var sender email.Sender
	switch cfg.email.driver {
	case emailDriverSMTP:
		sender = smtp.NewSender(cfg.email.smtp)
	case emailDriverPostmark:
		sender = postmark.NewSender(http.DefaultClient, cfg.email.postmark)
	default:
		logger.Warn("using log email driver, outgoing email is logged instead of delivered")
		sender = email.NewLogSender(logger)
	}

	emailSvc := email.NewService(
		emailview.NewFSRenderer(assets.EmailFS),
		sender,
		cfg.email.from,
	)

	authSvc := auth.NewService(
		codeStore,
		sessionStore,
		emailSvc,
		auth.NewAllowList(cfg.auth.allowList),
		cfg.auth.service,
	)

	var uploader media.Uploader
	if cfg.media.cloudinary.CloudName != "" {
		uploader = cloudinary.NewUploader(http.DefaultClient, cfg.media.cloudinary)
	} else {
		logger.Warn("no cloudinary cloud name configured, uploads are kept in memory")
		uploader = media.NewMemoryUploader()
	}

	srv := &http.Server{
		Addr:         cfg.http.addr,
		ReadTimeout:  cfg.http.readTimeout,
		WriteTimeout: cfg.http.writeTimeout,
		IdleTimeout:  cfg.http.idleTimeout,
		Handler: web.NewServer(&web.ServerDeps{
			Logger:       logger,
			ViewRenderer: view.NewFSRenderer(assets.TemplateFS),
			AuthService:  authSvc,
			ContentStore: contentStore,
			Uploader:     uploader,
			DistFS:       http.FS(assets.DistFS),
		}, cfg.http.server),
	}

	// Two concurrent tasks:
	// - Listen and serving of the HTTP server.
	// - Waiting for a signal to stop the server.

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("starting http server",
			"addr", cfg.http.addr,
			"buildRevision", internal.BuildRevision,
			"buildRevisionTime", internal.BuildRevisionTime,
			"buildLocalModified", internal.BuildLocalModified,
		)
		// ListenAndServe always returns a non-nil error,
		// g will cancel gCtx when an error is returned, so
		// this will also stop the other goroutine.
		return srv.ListenAndServe()
	})

	g.Go(func() error {
		<-gCtx.Done()
		logger.Info("stopping http server")

		shutCtx, cancel := context.WithTimeout(context.Background(), cfg.http.shutdownTimeout)
		defer cancel()

		return srv.Shutdown(shutCtx)
	})

	err = g.Wait()
	if err != nil && err != http.ErrServerClosed {
		logger.Error("http server stopped with error", "error", err)
		return 1
	}

	logger.Info("http server stopped successfully")

	return 0
}
