package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/iliyamo/cinema-ops-manager/internal/booking"
	"github.com/iliyamo/cinema-ops-manager/internal/catalog"
	"github.com/iliyamo/cinema-ops-manager/internal/concessions"
	"github.com/iliyamo/cinema-ops-manager/internal/config"
	"github.com/iliyamo/cinema-ops-manager/internal/database"
	"github.com/iliyamo/cinema-ops-manager/internal/handler"
	"github.com/iliyamo/cinema-ops-manager/internal/inventory"
	"github.com/iliyamo/cinema-ops-manager/internal/lock"
	"github.com/iliyamo/cinema-ops-manager/internal/middleware"
	"github.com/iliyamo/cinema-ops-manager/internal/model"
	"github.com/iliyamo/cinema-ops-manager/internal/pricing"
	"github.com/iliyamo/cinema-ops-manager/internal/queue"
	"github.com/iliyamo/cinema-ops-manager/internal/report"
	"github.com/iliyamo/cinema-ops-manager/internal/repository"
	"github.com/iliyamo/cinema-ops-manager/internal/router"
	"github.com/iliyamo/cinema-ops-manager/internal/store"
	"github.com/iliyamo/cinema-ops-manager/internal/utils"
)

func main() {
	cfg := config.Load()
	log := cfg.NewLogger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.WithError(err).Fatal("server stopped")
	}
}

func run(ctx context.Context, cfg config.Config, log *logrus.Logger) error {
	st, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer closeStore()

	var rdb redis.UniversalClient
	if c := config.NewRedisClient(log); c != nil {
		rdb = c
		defer c.Close()
	}

	rooms := repository.NewRoomRepo(st)
	showtimes := repository.NewShowtimeRepo(st)
	movies := repository.NewMovieRepo(st)
	users := repository.NewUserRepo(st)
	tickets := repository.NewTicketRepo(st)
	payments := repository.NewPaymentRepo(st)
	reservations := repository.NewReservationRepo(st)
	tokens := repository.NewTokenRepo(st)
	menu := repository.NewMenuRepo(st)
	orders := repository.NewOrderRepo(st)

	if err := seedAdmin(ctx, cfg, users, log); err != nil {
		return err
	}

	inv := inventory.New(rooms, showtimes, log)
	locker, err := newLocker(cfg, rdb, log)
	if err != nil {
		return err
	}

	var events booking.Publisher
	if cfg.EventsEnabled {
		pub := queue.NewPublisher(cfg.RabbitURL, log)
		defer pub.Close()
		events = pub
	}

	svc := booking.New(booking.Deps{
		Rooms:        rooms,
		Showtimes:    showtimes,
		Movies:       movies,
		Users:        users,
		Tickets:      tickets,
		Payments:     payments,
		Reservations: reservations,
		Inventory:    inv,
		Pricing:      pricing.New(),
		Locker:       locker,
		Events:       events,
		Log:          log,
	},
		booking.WithHoldTimeout(cfg.HoldTimeout),
		booking.WithReservationTTL(cfg.ReservationTTL),
		booking.WithBookingWindows(cfg.EnforceWindows),
	)

	rep, err := svc.Reconcile(ctx)
	if err != nil {
		return fmt.Errorf("startup reconciliation: %w", err)
	}
	log.WithFields(logrus.Fields{
		"unpaid_tickets": len(rep.UnpaidTickets),
		"orphan_seats":   rep.OrphanSeats,
		"stale_holds":    rep.StaleHolds,
		"corrections":    len(rep.Corrections),
	}).Info("startup reconciliation done")

	cat := catalog.New(rooms, movies, showtimes, inv, log).WithSettlement(svc.SeatSettled)
	food := concessions.New(menu, orders, payments, events, log)
	reports := report.New(payments, tickets, reservations, movies, users)
	cache := middleware.NewCache(config.LoadCacheConfig(), rdb, log)

	e := router.New(router.Handlers{
		Auth:        handler.NewAuthHandler(cfg, users, tokens, log),
		Public:      handler.NewPublicHandler(cat, log),
		Customer:    handler.NewCustomerHandler(svc, log),
		Admin:       handler.NewAdminHandler(cat, svc, reports, cache, log),
		Concessions: handler.NewConcessionHandler(food, log),
		JWTSecret:   cfg.JWTSecret,
		Cache:       cache.Middleware(),
		RateLimit:   middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb, log),
	}, log)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.WithFields(logrus.Fields{"port": cfg.Port, "env": cfg.Env, "store": cfg.StoreDriver}).Info("listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return e.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		booking.NewSweeper(svc, cfg.SweepInterval, log).Start(ctx)
		return nil
	})
	if cfg.EventsEnabled {
		g.Go(func() error {
			return queue.NewConsumer(cfg.RabbitURL, cfg.BookingLogPath, log).Run(ctx)
		})
	}
	return g.Wait()
}

func openStore(ctx context.Context, cfg config.Config) (store.Store, func(), error) {
	if cfg.StoreDriver == "mysql" {
		db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
		if err != nil {
			return nil, nil, err
		}
		ms := store.NewMySQLStore(db)
		if err := ms.EnsureSchema(ctx); err != nil {
			db.Close()
			return nil, nil, err
		}
		return ms, func() { db.Close() }, nil
	}
	js, err := store.NewJSONStore(cfg.DataDir)
	if err != nil {
		return nil, nil, err
	}
	return js, func() {}, nil
}

func newLocker(cfg config.Config, rdb redis.UniversalClient, log logrus.FieldLogger) (lock.Locker, error) {
	if cfg.LockBackend != "redis" {
		return lock.NewLocal(), nil
	}
	if rdb == nil {
		return nil, errors.New("LOCK_BACKEND=redis but redis is unavailable")
	}
	return lock.NewRedis(rdb, "lock", cfg.LockTTL, 0).WithLogger(log), nil
}

// seedAdmin creates the ADMIN_EMAIL account on first start.
func seedAdmin(ctx context.Context, cfg config.Config, users *repository.UserRepo, log logrus.FieldLogger) error {
	if cfg.AdminEmail == "" {
		return nil
	}
	if _, err := users.GetByEmail(ctx, cfg.AdminEmail); err == nil {
		return nil
	} else if !errors.Is(err, model.ErrNotFound) {
		return err
	}
	hash, err := utils.HashPassword(cfg.AdminPassword, cfg.BcryptCost)
	if err != nil {
		return fmt.Errorf("ADMIN_PASSWORD: %w", err)
	}
	u := &model.User{
		Name:         "admin",
		Email:        cfg.AdminEmail,
		PasswordHash: hash,
		BirthDate:    "1970-01-01",
		Role:         model.RoleAdmin,
		CreatedAt:    time.Now().UTC(),
	}
	if _, err := users.Create(ctx, u); err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}
	log.WithField("email", u.Email).Info("admin account created")
	return nil
}
