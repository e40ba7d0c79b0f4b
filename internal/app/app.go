package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Harsha992004/online-bus-booking-app/internal/auth"
	intconfig "github.com/Harsha992004/online-bus-booking-app/internal/config"
	intdb "github.com/Harsha992004/online-bus-booking-app/internal/db"
	api "github.com/Harsha992004/online-bus-booking-app/internal/http"
	"github.com/Harsha992004/online-bus-booking-app/internal/http/handlers"
	"github.com/Harsha992004/online-bus-booking-app/internal/repositories"
	"github.com/Harsha992004/online-bus-booking-app/internal/repositories/memory"
	"github.com/Harsha992004/online-bus-booking-app/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Stores is one storage backend behind the service ports.
type Stores struct {
	Tx         services.Transactor
	Trips      services.TripStore
	Seats      services.SeatHoldStore
	Bookings   services.BookingStore
	Passengers services.PassengerStore
	Users      services.UserStore
	Resets     services.ResetTokenStore

	// Ping is nil for the in-process store.
	Ping func(ctx context.Context) error
}

func MemoryStores() Stores {
	st := memory.New()
	return Stores{
		Tx:         st,
		Trips:      st.Trips,
		Seats:      st.Seats,
		Bookings:   st.Bookings,
		Passengers: st.Passengers,
		Users:      st.Users,
		Resets:     &memory.ResetTokens{},
	}
}

// SQLStores uses Redis for reset tokens when a client is given and falls
// back to process memory otherwise.
func SQLStores(db *sqlx.DB, rdb *redis.Client) Stores {
	st := Stores{
		Tx:         intdb.TxManager{DB: db},
		Trips:      repositories.TripsRepository{DB: db},
		Seats:      repositories.BookingSeatRepo{DB: db},
		Bookings:   repositories.BookingRepo{DB: db},
		Passengers: repositories.PassengerRepository{DB: db},
		Users:      repositories.UserRepo{DB: db},
		Resets:     &memory.ResetTokens{},
		Ping: func(ctx context.Context) error {
			if err := db.PingContext(ctx); err != nil {
				return err
			}
			if !intdb.HasTable(ctx, db, "bookings") {
				return errors.New("schema missing, run migrate")
			}
			return nil
		},
	}
	if rdb != nil {
		st.Resets = repositories.ResetTokenRepo{Client: rdb}
	}
	return st
}

// NewHandler wires the services over st. notifier may be nil.
func NewHandler(st Stores, notifier services.Notifier, mailer services.Mailer, issuer auth.Issuer, baseURL string) *handlers.Handler {
	ledger := services.BookingService{
		Trips:      st.Trips,
		Bookings:   st.Bookings,
		Seats:      st.Seats,
		Passengers: st.Passengers,
		Users:      st.Users,
		Notifier:   notifier,
	}
	seatMap := services.SeatMapService{Trips: st.Trips, Seats: st.Seats}
	return &handlers.Handler{
		Catalog: services.CatalogService{Trips: st.Trips},
		SeatMap: seatMap,
		Ledger:  ledger,
		Reservation: services.ReservationService{
			Tx:       st.Tx,
			Ledger:   ledger,
			SeatMap:  seatMap,
			Notifier: notifier,
		},
		Reports: services.ReportsService{Trips: st.Trips, Bookings: st.Bookings},
		Docs:    services.DocsService{Ledger: ledger, BaseURL: baseURL},
		Accounts: services.AuthService{
			Users:  st.Users,
			Resets: st.Resets,
			Mailer: mailer,
			Tokens: issuer,
		},
		Ping: st.Ping,
	}
}

type App struct {
	Env        intconfig.Env
	Stores     Stores
	Handler    *handlers.Handler
	Dispatcher *services.Dispatcher
	Router     *gin.Engine

	redis *redis.Client
}

// New opens the configured store and builds every component. The caller
// owns Close.
func New(ctx context.Context, env intconfig.Env) (*App, error) {
	a := &App{Env: env}

	switch env.StoreDriver {
	case "memory":
		log.Warn("using in-memory store; data is lost on exit")
		a.Stores = MemoryStores()
	default:
		db, err := intconfig.ConnectDB(env)
		if err != nil {
			return nil, err
		}
		rdb, err := intconfig.ConnectRedis(ctx, env)
		if err != nil {
			intconfig.CloseDB()
			return nil, err
		}
		if rdb == nil {
			log.Warn("REDIS_ADDR not set; password reset tokens are kept in memory")
		}
		a.redis = rdb
		a.Stores = SQLStores(db, rdb)
	}

	mailer := services.NewMailer(env)
	dispatcher, err := services.NewDispatcher(a.Stores.Bookings, mailer, env.PublicBaseURL)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("notifications: %w", err)
	}
	a.Dispatcher = dispatcher

	issuer := auth.NewIssuer(env.JWTSecret, env.TokenTTL)
	a.Handler = NewHandler(a.Stores, dispatcher, mailer, issuer, env.PublicBaseURL)
	a.Router = api.NewRouter(env, a.Handler, issuer)
	return a, nil
}

// Migrate applies the schema and backfills vehicle tags on legacy rows.
func (a *App) Migrate(ctx context.Context) error {
	if intconfig.DB != nil {
		if err := intdb.Migrate(ctx, intconfig.DB); err != nil {
			return err
		}
	}
	n, err := a.Handler.Catalog.BackfillVehicleTags(ctx)
	if err != nil {
		return err
	}
	log.WithField("updated", n).Info("vehicle tags backfilled")
	return nil
}

// Seed inserts the default catalog when empty and ensures the admin account.
func (a *App) Seed(ctx context.Context) error {
	n, err := a.Handler.Catalog.SeedIfEmpty(ctx)
	if err != nil {
		return err
	}
	log.WithField("inserted", n).Info("catalog seeded")
	return a.Handler.Accounts.EnsureAdmin(ctx, a.Env.AdminEmail, a.Env.AdminPassword)
}

// Run serves HTTP and consumes notifications until ctx is done.
func (a *App) Run(ctx context.Context) error {
	if err := a.Handler.Accounts.EnsureAdmin(ctx, a.Env.AdminEmail, a.Env.AdminPassword); err != nil {
		return fmt.Errorf("ensure admin: %w", err)
	}

	srv := &http.Server{
		Addr:              a.Env.AppAddr,
		Handler:           a.Router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       20 * time.Second,
		WriteTimeout:      20 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return a.Dispatcher.Run(ctx)
	})

	g.Go(func() error {
		select {
		case <-a.Dispatcher.Running():
		case <-ctx.Done():
			return nil
		}
		log.WithField("addr", a.Env.AppAddr).Info("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func (a *App) Close() {
	if a.Dispatcher != nil {
		if err := a.Dispatcher.Close(); err != nil {
			log.WithError(err).Warn("closing notifications")
		}
	}
	if a.redis != nil {
		_ = a.redis.Close()
	}
	intconfig.CloseDB()
}
