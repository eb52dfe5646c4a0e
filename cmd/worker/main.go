package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bakiel/jasper-portal-api/internal/config"
	"github.com/bakiel/jasper-portal-api/internal/database"
	"github.com/bakiel/jasper-portal-api/internal/imail"
	"github.com/bakiel/jasper-portal-api/internal/logger"
	"github.com/bakiel/jasper-portal-api/internal/queue"
	"github.com/bakiel/jasper-portal-api/internal/workers"
	"go.uber.org/zap"
)

func main() {
	debugFlag := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	debugMode := cfg.WorkerDebugMode || *debugFlag

	zapLogger, err := logger.NewProductionLogger(debugMode)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() {
		_ = zapLogger.Sync()
	}()

	zapLogger.Info("starting_worker", zap.Bool("debug_mode", debugMode))

	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		zapLogger.Fatal("failed_to_connect_to_database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			zapLogger.Warn("failed_to_close_database_connection", zap.Error(err))
		}
	}()
	zapLogger.Info("connected_to_database")

	if cfg.RabbitMQURL == "" {
		zapLogger.Fatal("RABBITMQ_URL_is_required_for_the_worker")
	}
	jobQueue, err := queue.NewRabbitMQQueue(cfg.RabbitMQURL, zapLogger)
	if err != nil {
		zapLogger.Fatal("failed_to_connect_to_rabbitmq", zap.Error(err))
	}
	defer func() {
		if err := jobQueue.Close(); err != nil {
			zapLogger.Warn("failed_to_close_rabbitmq_connection", zap.Error(err))
		}
	}()
	zapLogger.Info("connected_to_rabbitmq", zap.Int("prefetch", cfg.RabbitMQPrefetch))

	notificationRepo := database.NewNotificationRepository(db)

	smtpSender := imail.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass)
	if !cfg.SMTPConfigured() {
		zapLogger.Warn("smtp_not_configured_email_delivery_will_fail")
	}
	mailService := imail.NewService(smtpSender, cfg.SMTPFrom, zapLogger)

	notifier := workers.NewNotifier(notificationRepo, mailService, zapLogger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	msgChan, errChan, err := jobQueue.Consume(ctx, cfg.RabbitMQPrefetch)
	if err != nil {
		zapLogger.Fatal("failed_to_start_consuming", zap.Error(err))
	}

	// DLQ garbage collection runs alongside consumption
	dlqGC := queue.NewGarbageCollector(jobQueue, 1*time.Hour, 24*time.Hour, zapLogger)
	go func() {
		if err := dlqGC.Start(ctx); err != nil && err != context.Canceled {
			zapLogger.Error("dlq_garbage_collector_stopped_with_error", zap.Error(err))
		}
	}()

	zapLogger.Info("worker_started")

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgChan:
				if !ok {
					zapLogger.Info("message_channel_closed")
					return
				}
				handleMessage(ctx, msg, notifier, jobQueue, zapLogger)
			}
		}
	}()

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case err, ok := <-errChan:
				if !ok {
					return
				}
				zapLogger.Error("queue_error", zap.Error(err))
			}
		}
	}()

	<-sigChan
	zapLogger.Info("shutdown_signal_received")
	cancel()
	zapLogger.Info("worker_stopped")
}

// handleMessage processes one delivery. Failed jobs are re-enqueued with an
// incremented retry count; exhausted jobs are dead-lettered via Nack.
func handleMessage(ctx context.Context, msg *queue.Message, notifier *workers.Notifier, jobQueue queue.JobQueue, zapLogger *zap.Logger) {
	job := msg.Job()
	fields := []zap.Field{
		zap.String("job_id", job.ID.String()),
		zap.String("job_type", string(job.Type)),
	}

	if job.IsExpired() {
		zapLogger.Info("job_expired_skipping", fields...)
		if err := msg.Ack(); err != nil {
			zapLogger.Warn("failed_to_ack_expired_job", zap.Error(err))
		}
		return
	}

	if !job.ShouldProcess() {
		// Not due yet. Requeue after a pause so the loop does not spin on
		// deployments without the delayed exchange.
		time.Sleep(1 * time.Second)
		if err := msg.Nack(true); err != nil {
			zapLogger.Warn("failed_to_requeue_deferred_job", zap.Error(err))
		}
		return
	}

	if err := notifier.ProcessJob(ctx, job); err != nil {
		zapLogger.Error("failed_to_process_job", append(fields, zap.Error(err))...)

		if job.CanRetry() {
			job.IncrementRetry()
			if enqErr := jobQueue.Enqueue(ctx, job); enqErr != nil {
				zapLogger.Error("failed_to_requeue_job", append(fields, zap.Error(enqErr))...)
				if nackErr := msg.Nack(false); nackErr != nil {
					zapLogger.Warn("failed_to_nack_job", zap.Error(nackErr))
				}
				return
			}
			if ackErr := msg.Ack(); ackErr != nil {
				zapLogger.Warn("failed_to_ack_retried_job", zap.Error(ackErr))
			}
			zapLogger.Info("job_requeued_for_retry",
				append(fields, zap.Int("retry_count", job.RetryCount))...)
			return
		}

		// Retries exhausted: dead-letter the message
		if nackErr := msg.Nack(false); nackErr != nil {
			zapLogger.Warn("failed_to_dead_letter_job", zap.Error(nackErr))
		}
		zapLogger.Warn("job_dead_lettered", fields...)
		return
	}

	if err := msg.Ack(); err != nil {
		zapLogger.Warn("failed_to_ack_job", zap.Error(err))
	}
}
