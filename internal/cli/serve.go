package cli

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/reqmaster/reqmaster/internal/chat"
	"github.com/reqmaster/reqmaster/internal/config"
	"github.com/reqmaster/reqmaster/internal/db"
	"github.com/reqmaster/reqmaster/internal/httpapi"
	"github.com/reqmaster/reqmaster/internal/httpapi/handlers"
	"github.com/reqmaster/reqmaster/internal/store/rabbitmq"
	"github.com/reqmaster/reqmaster/internal/store/redisstore"
)

var migrateOnStart bool

func init() {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE:  runServe,
	}
	cmd.Flags().BoolVar(&migrateOnStart, "migrate", true, "Run schema migration before serving")
	RootCmd.AddCommand(cmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	gdb, err := openDB(cfg)
	if err != nil {
		return err
	}
	if migrateOnStart {
		if err := db.Migrate(gdb); err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	analyzer, err := newAnalyzer(ctx, cfg)
	if err != nil {
		return err
	}
	deps := handlers.Deps{Analyzer: analyzer, Logger: slog.Default()}

	locker, closeLocker := chatLocker(ctx, cfg)
	defer closeLocker()
	deps.Locker = locker

	// async parsing is optional; the sync endpoints work without a broker
	if pub, err := rabbitmq.NewPublisher(cfg.RabbitURL, cfg.RabbitQueue); err != nil {
		log.Printf("warn: rabbitmq unavailable, async parsing disabled: %v", err)
	} else {
		defer pub.Close()
		deps.Publisher = pub
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           httpapi.NewRouter(gdb, cfg, deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("listening on %s (ai_provider=%s)", cfg.HTTPAddr, analyzer.Name())
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Printf("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// chatLocker returns the Redis lock when redis_addr is set and reachable,
// otherwise the in-process one.
func chatLocker(ctx context.Context, cfg config.Config) (chat.Locker, func()) {
	if cfg.RedisAddr == "" {
		return chat.NewLocalLocker(), func() {}
	}
	rds := redisstore.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	rds.LockTTL = redisstore.TurnLockTTL(cfg.AITimeout)
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rds.Ping(pingCtx); err != nil {
		log.Printf("warn: redis %s unreachable, using local chat locks: %v", cfg.RedisAddr, err)
		_ = rds.Close()
		return chat.NewLocalLocker(), func() {}
	}
	log.Printf("redis connected addr=%s", cfg.RedisAddr)
	return rds, func() { _ = rds.Close() }
}
