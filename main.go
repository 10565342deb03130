package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"leviro/backend"
	"leviro/config"
	"leviro/db"
	"leviro/hub"
	"leviro/kv"
	"leviro/middleware"
	"leviro/mq"
	"leviro/rdx"
	"leviro/routes"
	"leviro/store"
	"leviro/telemetry"

	"github.com/julienschmidt/httprouter"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"
)

// securityHeaders applies a set of recommended HTTP security headers.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Content-Security-Policy", "frame-ancestors 'none'")
		w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		w.Header().Set("Referrer-Policy", "no-referrer")
		w.Header().Set("Permissions-Policy", "geolocation=(), microphone=(), camera=()")
		w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate, private")
		next.ServeHTTP(w, r)
	})
}

// loggingMiddleware logs each request method, path, remote address, and duration.
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		logrus.WithFields(logrus.Fields{
			"method":   r.Method,
			"path":     r.RequestURI,
			"remote":   r.RemoteAddr,
			"duration": time.Since(start),
		}).Info("request")
	})
}

// Index is a simple health check handler.
func Index(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	fmt.Fprint(w, "200")
}

// openBackends connects what is configured. Without MONGO_URI there is no
// remote backend; without REDIS_ADDR local data lives in process memory.
func openBackends(ctx context.Context, cfg *config.Config) (backend.Backend, *backend.Local, *redis.Client, func()) {
	var (
		remote  backend.Backend
		local   kv.KV = kv.NewMemory()
		rclient *redis.Client
		closers []func()
	)

	if cfg.MongoURI != "" {
		d, err := db.Connect(ctx, cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			logrus.WithError(err).Error("mongo unavailable; running disconnected")
		} else {
			if err := d.EnsureIndexes(ctx); err != nil {
				logrus.WithError(err).Warn("could not create indexes")
			}
			remote = backend.NewRemote(d, cfg.RemoteTimeout)
			closers = append(closers, func() { d.Close(context.Background()) })
		}
	}

	if cfg.RedisAddr != "" {
		c, err := rdx.Connect(ctx, cfg.RedisAddr)
		if err != nil {
			logrus.WithError(err).Error("redis unavailable; keeping local data in memory")
		} else {
			rclient = c
			local = rdx.NewKV(c, rdx.DefaultPrefix)
			closers = append(closers, func() { c.Close() })
		}
	}

	return remote, backend.NewLocal(local), rclient, func() {
		for _, c := range closers {
			c()
		}
	}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("invalid configuration")
	}
	logrus.SetLevel(cfg.LogLevel)
	logrus.SetFormatter(&logrus.JSONFormatter{})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.OTelEnabled {
		shutdown, err := telemetry.Init(os.Stdout)
		if err != nil {
			logrus.WithError(err).Fatal("telemetry")
		}
		defer shutdown(context.Background())
	}

	remote, local, rclient, closeBackends := openBackends(ctx, cfg)
	defer closeBackends()

	opts := []store.Option{store.WithToastTTL(cfg.ToastTTL)}
	if rclient != nil {
		opts = append(opts, store.WithNotifier(mq.NewEmitter(rclient)))
	}
	st := store.New(remote, local, opts...)
	defer st.Close()

	// live feed: store events and order events from every instance
	feed := hub.NewHub(func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		for _, o := range cfg.AllowedOrigins {
			if o == origin {
				return true
			}
		}
		return origin == ""
	})
	go feed.Run()
	st.Subscribe(func(e store.Event) { feed.Publish(e.Session, e) })
	if rclient != nil {
		go mq.StartWorker(ctx, rclient, func(ev mq.OrderEvent) {
			logrus.WithFields(logrus.Fields{"type": ev.Type, "order": ev.OrderID, "status": ev.Status}).Info("order event")
			feed.Publish(store.AdminAudience, ev)
		})
	}

	go func() {
		if err := st.Load(ctx); err != nil {
			logrus.WithError(err).Warn("running disconnected from the remote backend")
		}
	}()

	router := httprouter.New()
	router.GET("/health", Index)
	routes.RoutesWrapper(router, st, feed, middleware.NewAuth(cfg.JWTSecret, cfg.SecureCookies))

	// logging wraps security headers wraps CORS wraps the router
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	}).Handler(router)

	server := &http.Server{
		Addr:              cfg.Port,
		Handler:           loggingMiddleware(securityHeaders(corsHandler)),
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
		ReadHeaderTimeout: 2 * time.Second,
	}
	server.RegisterOnShutdown(feed.Stop)

	go func() {
		logrus.WithField("addr", cfg.Port).Info("server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.WithError(err).Fatal("ListenAndServe")
		}
	}()

	<-ctx.Done()
	logrus.Info("shutdown signal received; shutting down gracefully")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Error("graceful shutdown failed")
	}
	logrus.Info("server stopped cleanly")
}
