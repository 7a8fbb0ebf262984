package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/trudify/trudify-core/internal/config"
	"github.com/trudify/trudify-core/internal/domain"
	"github.com/trudify/trudify-core/internal/notify"
	"github.com/trudify/trudify-core/internal/query"
	"github.com/trudify/trudify-core/internal/ranking"
	"github.com/trudify/trudify-core/internal/repository/postgres"
	"github.com/trudify/trudify-core/internal/service"
	myhttp "github.com/trudify/trudify-core/internal/transport/http"
	"github.com/trudify/trudify-core/pkg/logger/sl"
	"github.com/trudify/trudify-core/pkg/logger/slogpretty"
)

const envProd = "prod"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg := config.MustLoad()
	log := slogpretty.SetupLogger(cfg.Env)

	log.Info("starting trudify-core", slog.String("env", cfg.Env))

	contact := domain.ContactMethod(cfg.Applications.ContactDelivery)
	if !contact.IsValid() {
		return fmt.Errorf("unknown contact delivery method %q", cfg.Applications.ContactDelivery)
	}

	pg, err := postgres.NewDB(cfg.Postgres, log)
	if err != nil {
		return fmt.Errorf("failed to init db: %w", err)
	}
	defer func() {
		if err := pg.DB().Close(); err != nil {
			log.Error("db close failed", sl.Err(err))
		}
	}()

	db := pg.DB()

	professionals := postgres.NewProfessionalRepository(db, log)
	tasks := postgres.NewTaskRepository(db, log)
	applications := postgres.NewApplicationRepository(db, log)
	notifications := postgres.NewNotificationRepository(db, log)
	reviews := postgres.NewReviewRepository(db, log)
	recipients := postgres.NewRecipientRepository(db, log)

	dispatcher := notify.NewDispatcher(log, recipients,
		notify.NewTelegram(cfg.Notify.TelegramAPIURL, cfg.Notify.TelegramBotToken, cfg.Notify.Timeout),
		notify.NewSendGrid(
			cfg.Notify.SendGridAPIURL,
			cfg.Notify.SendGridAPIKey,
			cfg.Notify.FromEmail,
			cfg.Notify.FromName,
			cfg.Notify.Templates,
			cfg.Notify.Timeout,
		),
	)
	links := notify.NewMagicLinks(cfg.Auth.JWTSecret, cfg.Auth.MagicLinkTTL, cfg.Auth.BaseURL)

	inviteService := service.NewInviteService(log, professionals, notifications, dispatcher, links, notify.NewLabels(),
		cfg.Invites.Limit, cfg.Invites.Concurrency,
	)

	bg, err := setupBackground(ctx, cfg, log, inviteService)
	if err != nil {
		return err
	}
	defer bg.Close()

	professionalService := service.NewProfessionalService(log, professionals,
		ranking.NewEngine(log, professionals, cfg.Listing.FeaturedPoolSize, cfg.Listing.FeaturedCategoryCap),
		service.ProfessionalOptions{
			Parser: query.Parser{
				DefaultLimit:  cfg.Listing.DefaultLimit,
				MaxLimit:      cfg.Listing.MaxLimit,
				MaxPage:       cfg.Listing.MaxPage,
				MaxTextLength: cfg.Listing.MaxFilterLength,
			},
			FeaturedLimit:       cfg.Listing.FeaturedLimit,
			MostActiveThreshold: cfg.Listing.MostActiveThreshold,
			CheckLeaks:          cfg.Env != envProd,
		},
	)
	taskService := service.NewTaskService(db, db, log, tasks, tasks, reviews, notifications,
		bg.invites, dispatcher, cfg.Reviews.HardBlockThreshold,
	)
	applicationService := service.NewApplicationService(db, log, tasks, applications, notifications,
		dispatcher, bg.withdrawals, contact,
	)

	writeLimiter, err := myhttp.NewWriteLimiter(cfg.RateLimit.Rate, bg.rateStore)
	if err != nil {
		return err
	}

	srv := myhttp.NewServer(log,
		myhttp.Services{
			Professionals: professionalService,
			Tasks:         taskService,
			Applications:  applicationService,
		},
		myhttp.NewAccessTokens(cfg.Auth.JWTSecret),
		writeLimiter,
	)

	httpServer := &http.Server{
		Addr:         net.JoinHostPort(cfg.Server.Host, cfg.Server.Port),
		Handler:      srv.Routes(),
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errChan := make(chan error, 1)

	go startServer(log, httpServer, errChan)

	select {
	case err := <-errChan:
		return fmt.Errorf("http server error: %w", err)

	case <-ctx.Done():
		log.Info("stopping server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("error shutting down http server: %w", err)
	}

	return nil
}

func startServer(log *slog.Logger, httpServer *http.Server, errChan chan error) {
	defer close(errChan)

	log.Info("service started", slog.String("addr", httpServer.Addr))

	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		errChan <- fmt.Errorf("error listening and serving: %w", err)
	}
}
