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

	"github.com/redis/go-redis/v9"
	"github.com/subtech/mina-dashboard/internal/api"
	"github.com/subtech/mina-dashboard/internal/apiclient"
	"github.com/subtech/mina-dashboard/internal/archive"
	"github.com/subtech/mina-dashboard/internal/config"
	"github.com/subtech/mina-dashboard/internal/events"
	"github.com/subtech/mina-dashboard/internal/metrics"
	"github.com/subtech/mina-dashboard/internal/middleware"
	"github.com/subtech/mina-dashboard/internal/monitor"
	"github.com/subtech/mina-dashboard/internal/ratelimit"
	"github.com/subtech/mina-dashboard/internal/session"
	"github.com/subtech/mina-dashboard/internal/tags"
	"github.com/subtech/mina-dashboard/internal/users"
	"github.com/subtech/mina-dashboard/internal/views"
)

const serviceName = "mina-dashboard"

func main() {
	cfg, err := config.Load("")
	if err != nil {
		log.Fatalf("[FATAL] Config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 1. Redis (shared session store and login throttling)
	var rdb *redis.Client
	if cfg.Session.Redis.Addr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Session.Redis.Addr,
			Password: cfg.Session.Redis.Password,
			DB:       cfg.Session.Redis.DB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Printf("[WARN] Redis unreachable at %s: %v", cfg.Session.Redis.Addr, err)
		}
		defer rdb.Close()
	}

	// 2. Session store
	sessions, err := buildSessionStore(ctx, cfg, rdb)
	if err != nil {
		log.Fatalf("[FATAL] Session store: %v", err)
	}
	log.Printf("[INFO] Session store: %s", cfg.Session.Store)

	// 3. Backend client, viewers hub and tag monitor
	hub := api.NewHub(sessions, cfg.Server.AllowedOrigins)
	defer hub.Close()

	client := apiclient.New(cfg.API.URL, sessions,
		apiclient.WithTimeout(cfg.API.Timeout),
		apiclient.WithRedirect(hub.Redirect),
	)

	walker := tags.NewWalker(client)
	walker.Limit = cfg.Polling.PageLimit
	walker.OnPage = func(int) { metrics.TagPagesFetched.Inc() }

	mon := monitor.New(walker, sessions, monitor.Config{Interval: cfg.Polling.Interval})
	mon.SetRedirect(hub.Redirect)
	if cfg.Polling.Visibility == config.VisibilityViewers {
		mon.SetVisibility(hub)
	} else {
		mon.SetVisibility(monitor.AlwaysVisible)
	}

	// 4. Snapshot listeners, in delivery order
	mon.OnChange(hub.HandleSnapshot)

	if cfg.Events.Enabled {
		nc, err := events.Connect(cfg.Events.NatsURL, serviceName)
		if err != nil {
			log.Printf("[WARN] NATS connect failed (%s), snapshot events disabled: %v", cfg.Events.NatsURL, err)
		} else {
			defer nc.Close()
			pub := events.NewNATSPublisher(nc, cfg.Events.Subject, cfg.Events.PublishRetryMax)
			mon.OnChange(pub.HandleSnapshot)
			log.Printf("[INFO] Snapshot events: publishing to %s", cfg.Events.Subject)
		}
	}

	var snapshots api.SnapshotArchive
	if cfg.Archive.Enabled {
		if arc, err := openArchive(ctx, cfg); err != nil {
			log.Printf("[WARN] Snapshot archive disabled: %v", err)
		} else {
			defer arc.DB.Close()
			mon.OnChange(arc.HandleSnapshot)
			snapshots = arc
		}
	}

	mon.OnChange(func(s monitor.Snapshot) {
		sum := views.Summarize(s.Tags)
		metrics.RecordSnapshot(sum.Records, sum.Latest, sum.InteriorByCategory)
	})

	// 5. Session lifecycle drives the monitor
	sessionEvents := make(chan session.Event, 8)
	unsubscribe := sessions.Subscribe(func(ev session.Event) {
		select {
		case sessionEvents <- ev:
		default:
			log.Printf("[WARN] Session events backlog full, dropping event")
		}
	})
	defer unsubscribe()
	go followSession(ctx, sessionEvents, sessions, mon, hub)

	if session.HasValidToken(ctx, sessions) {
		if err := mon.Mount(ctx); err != nil {
			log.Printf("[WARN] Tag Monitor: mount failed: %v", err)
		}
	} else {
		log.Printf("[INFO] No session yet, waiting for login")
	}
	defer mon.Unmount()

	// 6. Login throttling
	var loginLimiter *middleware.LoginLimiter
	if cfg.RateLimit.Enabled && rdb != nil {
		limiter := ratelimit.NewLimiter(rdb, os.Getenv("RATE_LIMIT_SALT"), cfg.Session.Redis.Prefix)
		loginLimiter = middleware.NewLoginLimiter(limiter, cfg.RateLimit.Login)
		log.Printf("[INFO] Login rate limit: %d per %s", cfg.RateLimit.Login.Rate, cfg.RateLimit.Login.Window)
	}

	// 7. HTTP server
	h := &api.Handler{
		Monitor:      mon,
		Sessions:     sessions,
		Auth:         client,
		Users:        users.NewService(client, sessions),
		Hub:          hub,
		Archive:      snapshots,
		Location:     cfg.Location(),
		LoginLimiter: loginLimiter,
		Origins:      cfg.Server.AllowedOrigins,
		Timeout:      cfg.Server.RequestTimeout,
	}

	srv := &http.Server{
		Addr:    cfg.Server.Listen,
		Handler: h.Routes(),
	}

	go func() {
		log.Printf("[INFO] Mina dashboard listening on %s (backend %s)", cfg.Server.Listen, cfg.API.URL)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("[FATAL] Server failed: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("[INFO] Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("[ERROR] Server shutdown: %v", err)
	}
}

func buildSessionStore(ctx context.Context, cfg *config.Config, rdb *redis.Client) (session.Store, error) {
	switch cfg.Session.Store {
	case config.StoreFile:
		fs := session.NewFileStore(cfg.Session.TokenFile)
		if err := fs.Watch(ctx); err != nil {
			return nil, err
		}
		return fs, nil
	case config.StoreRedis:
		rs := session.NewRedisStore(rdb, cfg.Session.Redis.Prefix)
		if err := rs.Listen(ctx); err != nil {
			return nil, err
		}
		return rs, nil
	default:
		return session.NewMemoryStore(), nil
	}
}

func openArchive(ctx context.Context, cfg *config.Config) (*archive.PostgresArchive, error) {
	db, err := archive.Open(ctx, cfg.Archive.DSN)
	if err != nil {
		return nil, err
	}
	var spool *archive.Spool
	if cfg.Archive.SpoolDir != "" {
		spool, err = archive.NewSpool(cfg.Archive.SpoolDir, cfg.Archive.SpoolMaxMB)
		if err != nil {
			db.Close()
			return nil, err
		}
	}
	arc := archive.New(db, spool)
	if err := arc.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	arc.StartReplayer(ctx, cfg.Archive.ReplayInterval)
	log.Printf("[INFO] Snapshot archive ready")
	return arc, nil
}

// followSession mounts the monitor when a token appears and tears it down
// when the token goes away. Events are handled off the publisher's
// goroutine: Unmount waits for in-flight walks, and a walk may itself
// remove the token.
func followSession(ctx context.Context, evs <-chan session.Event, sessions session.Store, mon *monitor.Monitor, hub *api.Hub) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-evs:
			if ev.Present && session.HasValidToken(ctx, sessions) {
				if !mon.Mounted() {
					if err := mon.Mount(ctx); err != nil {
						log.Printf("[WARN] Tag Monitor: mount failed: %v", err)
					}
				}
				continue
			}
			if mon.Mounted() {
				mon.Unmount()
			}
			hub.Redirect(apiclient.LoginPath)
		}
	}
}
