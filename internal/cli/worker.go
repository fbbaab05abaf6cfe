package cli

import (
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/reqmaster/reqmaster/internal/analysis"
	"github.com/reqmaster/reqmaster/internal/project"
	"github.com/reqmaster/reqmaster/internal/requirement"
	"github.com/reqmaster/reqmaster/internal/store/rabbitmq"
	"github.com/reqmaster/reqmaster/internal/worker"
)

var maxAttempts int

func init() {
	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Consume async AI jobs from RabbitMQ",
		RunE:  runWorker,
	}
	cmd.Flags().IntVar(&maxAttempts, "max-attempts", worker.DefaultMaxAttempts, "Deliveries per job before it is dead-lettered")
	RootCmd.AddCommand(cmd)
}

func runWorker(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	gdb, err := openDB(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	analyzer, err := newAnalyzer(ctx, cfg)
	if err != nil {
		return err
	}

	pub, err := rabbitmq.NewPublisher(cfg.RabbitURL, cfg.RabbitQueue)
	if err != nil {
		return err
	}
	defer pub.Close()

	consumer, deliveries, err := rabbitmq.NewConsumer(cfg.RabbitURL, cfg.RabbitQueue, cfg.WorkerConcurrency)
	if err != nil {
		return err
	}
	defer consumer.Close()

	projects := project.NewService(project.NewRepo(gdb))
	svc := analysis.NewService(analyzer, projects, requirement.NewService(requirement.NewRepo(gdb)), analysis.NewJobRepo(gdb), analysis.Options{
		Publisher: pub,
		Logger:    slog.Default(),
	})

	log.Printf("worker started, queue=%s concurrency=%d", cfg.RabbitQueue, cfg.WorkerConcurrency)
	pool := &worker.Pool{
		Runner:      svc,
		Retrier:     pub,
		Concurrency: cfg.WorkerConcurrency,
		MaxAttempts: maxAttempts,
	}
	pool.Run(ctx, deliveries)
	log.Printf("worker stopped")
	return nil
}
