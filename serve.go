package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/danielhkuo/anonvote/handlers"
	"github.com/danielhkuo/anonvote/middleware"
	"github.com/danielhkuo/anonvote/models"
	"github.com/danielhkuo/anonvote/recompute"
	"github.com/danielhkuo/anonvote/router"
	"github.com/danielhkuo/anonvote/store"
)

func init() {
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the submission funnel and the read API",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

// registryTrigger drops the cached credential snapshot before a
// registry-change recompute so the run sees the new registry.
type registryTrigger struct {
	*recompute.Scheduler
	cache *store.CachedCredentials
}

func (r registryTrigger) Trigger(reason string) {
	if reason == handlers.ReasonRegistry {
		r.cache.Invalidate()
	}
	r.Scheduler.Trigger(reason)
}

func (r registryTrigger) RunNow(ctx context.Context, reason string) (models.TallyResult, error) {
	if reason == handlers.ReasonRegistry {
		r.cache.Invalidate()
	}
	return r.Scheduler.RunNow(ctx, reason)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(true)
	if err != nil {
		return err
	}

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cache := store.NewCachedCredentials(st, cfg.SnapshotTTL)
	sched := recompute.NewScheduler(ctx, newEngine(cfg, cache, st), slog.Default())
	sched.Trigger("startup")

	mux := router.NewRouter(st, registryTrigger{Scheduler: sched, cache: cache})

	server := http.Server{
		Handler:           middleware.CORS(mux),
		Addr:              ":" + strconv.Itoa(cfg.Port),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	slog.Info("listening", "port", cfg.Port)
	err = server.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	// Let an in-flight recompute finish writing before the store closes.
	waitCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := sched.Wait(waitCtx); err != nil {
		slog.Warn("recompute still running at shutdown", "error", err)
	}
	slog.Info("server closed")
	return nil
}
