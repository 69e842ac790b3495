package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"taxibot/internal/bot"
	intconfig "taxibot/internal/config"
	intdb "taxibot/internal/db"
	"taxibot/internal/events"
	router "taxibot/internal/http"
	"taxibot/internal/notify"
	"taxibot/internal/reminder"
	"taxibot/internal/repositories"
	"taxibot/internal/services"
	"taxibot/internal/session"

	"github.com/gin-gonic/gin"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func main() {
	env, err := intconfig.LoadEnv()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if env.GinMode != "" {
		gin.SetMode(env.GinMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := intconfig.ConnectDB(env.DSN())
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer intconfig.CloseDB()
	if err := intdb.EnsureSchema(ctx, db); err != nil {
		log.Fatalf("schema: %v", err)
	}

	sessions, closeSessions := openSessions(ctx, env)
	defer closeSessions()

	publisher := openPublisher(env)
	defer publisher.Close()

	var (
		tg       *tgbotapi.BotAPI
		notifier notify.Notifier
	)
	if env.TelegramMode != intconfig.TelegramOff {
		tg, err = tgbotapi.NewBotAPI(env.BotToken)
		if err != nil {
			log.Fatalf("telegram: %v", err)
		}
		log.Printf("authorized as @%s", tg.Self.UserName)
		notifier = notify.NewTelegramNotifier(tg)
	}

	trips := repositories.TripRepository{DB: db}
	bookings := repositories.BookingRepository{DB: db}
	users := repositories.UserRepository{DB: db}
	finance := repositories.FinanceRepository{DB: db}

	booking := services.BookingService{
		DB:        db,
		Trips:     trips,
		Bookings:  bookings,
		Users:     users,
		Finance:   finance,
		Sessions:  sessions,
		Events:    publisher,
		Capacity:  env.MaxSeats,
		TripPrice: env.TripPrice,
		Location:  env.Location,
	}
	if notifier != nil {
		reminders, err := reminder.New(notifier, env.Location)
		if err != nil {
			log.Fatalf("reminders: %v", err)
		}
		reminders.Start()
		defer func() {
			if err := reminders.Stop(); err != nil {
				log.Printf("warning: stop reminders: %v", err)
			}
		}()
		booking.Reminders = reminders
	}

	admin := services.AdminService{Trips: trips, Bookings: bookings, Users: users, Notifier: notifier, Capacity: env.MaxSeats}
	docs := services.DocsService{Admin: admin, FontPath: env.PDFFontPath}
	fin := services.FinanceService{Finance: finance}

	dispatcher := &bot.Dispatcher{
		Booking:  booking,
		Admin:    admin,
		Docs:     docs,
		Finance:  fin,
		Users:    users,
		Notifier: notifier,
		IsAdmin:  env.IsAdmin,
	}

	deps := router.Deps{Admin: admin, Docs: docs, Finance: fin}
	var webhookQueue *bot.Queue
	if env.TelegramMode == intconfig.TelegramWebhook {
		// Workers outlive the signal so accepted updates drain on shutdown.
		webhookQueue = bot.NewQueue(context.WithoutCancel(ctx), dispatcher, env.MaxConcurrentUpdates, 0)
		deps.Updates = webhookQueue
	}
	srv := &http.Server{
		Addr:              env.AppAddr,
		Handler:           router.NewRouter(env, deps),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       20 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Printf("HTTP server listening on %s", env.AppAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("http server: %v", err)
		}
	}()

	pollDone := make(chan struct{})
	if env.TelegramMode == intconfig.TelegramPolling {
		p := &bot.Poller{Source: tg, Handler: dispatcher, MaxConcurrent: env.MaxConcurrentUpdates}
		go func() {
			defer close(pollDone)
			if err := p.Run(ctx); err != nil {
				log.Printf("poller: %v", err)
			}
		}()
	} else {
		close(pollDone)
	}

	<-ctx.Done()
	log.Println("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("http shutdown: %v", err)
	}
	if webhookQueue != nil {
		webhookQueue.Close()
	}
	<-pollDone
	log.Println("stopped cleanly.")
}

func openSessions(ctx context.Context, env intconfig.Env) (session.Store, func()) {
	if env.RedisURL == "" {
		log.Println("sessions: in-memory")
		return session.NewMemoryStore(), func() {}
	}
	rs, err := session.NewRedisStore(ctx, env.RedisURL, env.SessionTTL)
	if err != nil {
		log.Fatalf("sessions: %v", err)
	}
	log.Println("sessions: redis")
	return rs, func() {
		if err := rs.Close(); err != nil {
			log.Printf("warning: close redis: %v", err)
		}
	}
}

func openPublisher(env intconfig.Env) events.Publisher {
	if len(env.KafkaBrokers) == 0 {
		return events.NopPublisher{}
	}
	p, err := events.NewKafkaPublisher(env.KafkaBrokers, env.KafkaTopic)
	if err != nil {
		log.Fatalf("events: %v", err)
	}
	log.Printf("events: kafka topic %s", env.KafkaTopic)
	return p
}
