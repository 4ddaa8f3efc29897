package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"

	"jobsearch.app/internal/auth"
	"jobsearch.app/internal/config"
	"jobsearch.app/internal/httpapi"
	"jobsearch.app/internal/janitor"
	"jobsearch.app/internal/jobboard"
	"jobsearch.app/internal/mail"
	"jobsearch.app/internal/migrate"
	"jobsearch.app/internal/obs"
	"jobsearch.app/internal/store/pg"
)

var (
	version = "0.1.0"
	commit  = "dev"
)

func main() {
	envFile := flag.String("env", ".env", "optional dotenv file")
	flag.Parse()

	log := obs.Logger()
	cfg, err := config.Load(*envFile)
	if err != nil {
		log.WithError(err).Fatal("load config")
	}
	if err := cfg.Validate(); err != nil {
		log.WithError(err).Fatal("invalid config")
	}

	// Инициализация observability
	obs.Init()
	obs.SetLevel(cfg.LogLevel)
	obs.InitBuildInfo(version, commit)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		store jobboard.Store
		probe httpapi.ReadyProbe
		pgdb  *pg.Store
	)
	if cfg.PGDSN != "" {
		pgdb, err = pg.Open(cfg.PGDSN)
		if err != nil {
			log.WithError(err).Fatal("open db")
		}
		defer pgdb.Close()
		if cfg.AutoMigrate {
			if err := migrate.NewManager(pgdb.DB()).Up(); err != nil {
				log.WithError(err).Fatal("migrate")
			}
		}
		store, probe = pgdb, httpapi.ReadyProbe{DB: pgdb.DB()}
	} else {
		log.Warn("JOBBOARD_PG_DSN not set, using in-memory store")
		store = jobboard.NewInMemory()
	}

	sessions, err := sessionStore(cfg, pgdb)
	if err != nil {
		log.WithError(err).Fatal("session store")
	}
	tokens, err := auth.NewService(sessions, auth.Keys{
		Session:           []byte(cfg.SessionSecret),
		EmailConfirmation: []byte(cfg.ConfirmationSecret),
		PasswordReset:     []byte(cfg.ResetSecret),
	})
	if err != nil {
		log.WithError(err).Fatal("token service")
	}

	mailer, err := mailSender(ctx, cfg)
	if err != nil {
		log.WithError(err).Fatal("mail sender")
	}

	svc, err := jobboard.NewService(store, tokens, mailer, jobboard.WithBaseURL(cfg.PublicURL))
	if err != nil {
		log.WithError(err).Fatal("jobboard service")
	}

	jan, err := janitor.New(cfg.JanitorSchedule, map[string]janitor.Task{
		"sessions": janitor.TaskFunc(tokens.PurgeExpired),
		"otps":     janitor.TaskFunc(svc.PurgeExpiredOTPs),
	})
	if err != nil {
		log.WithError(err).Fatal("janitor")
	}
	jan.Start()
	defer jan.Stop()

	api := httpapi.New(svc, auth.NewGate(tokens, svc), probe, httpapi.Options{
		Version:      version,
		RateBurst:    cfg.RateBurst,
		RatePerSec:   cfg.RatePerSec,
		MaxBodyBytes: cfg.MaxBodyBytes,
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.WithFields(logrus.Fields{"version": version, "addr": srv.Addr}).Info("starting jobsearch-api")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("listen")
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("shutdown")
	}
	log.Info("stopped")
}

func sessionStore(cfg config.Config, db *pg.Store) (auth.SessionStore, error) {
	switch cfg.SessionStore {
	case "postgres":
		if db == nil {
			return nil, errors.New("postgres session store needs JOBBOARD_PG_DSN")
		}
		return auth.NewPGSessionStore(db.DB()), nil
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		return auth.NewRedisSessionStore(client), nil
	default:
		return auth.NewMemorySessionStore(), nil
	}
}

func mailSender(ctx context.Context, cfg config.Config) (mail.Sender, error) {
	switch cfg.MailDriver {
	case "smtp":
		return mail.NewSMTPSender(mail.SMTPConfig{
			Host:     cfg.MailHost,
			Port:     cfg.MailPort,
			Username: cfg.MailUsername,
			Password: cfg.MailPassword,
			From:     cfg.MailFrom,
		})
	case "gmail":
		return mail.NewGmailSender(ctx, cfg.GmailCredentials, cfg.GmailToken, cfg.MailFrom)
	default:
		return mail.NewRecorder(), nil
	}
}
