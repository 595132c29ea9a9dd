package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/frahmantamala/employee-management/internal"
	"github.com/frahmantamala/employee-management/internal/notification"
	"github.com/spf13/cobra"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Start background workers",
	Long:  `Start background workers that process queued jobs.`,
}

var mailWorkerCmd = &cobra.Command{
	Use:   "mail",
	Short: "Deliver notification mail queued in redis",
	Long:  `Pop notification envelopes from the redis list and deliver them over SMTP.`,
	Run: func(cmd *cobra.Command, args []string) {
		startMailWorker()
	},
}

var workerQueueKey string

func startMailWorker() {
	config, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := setupLogger(config)

	if config.Notification.Queue != internal.QueueModeRedis {
		log.Warn("notification.queue is not redis, the server will not enqueue anything for this worker",
			"queue", config.Notification.Queue)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rdb, err := initRedis(ctx, config.Redis)
	if err != nil {
		log.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}
	if rdb == nil {
		log.Error("redis.addr is required for the mail worker")
		os.Exit(1)
	}
	defer rdb.Close()

	delivery, err := newDeliverySender(config.Mail, log)
	if err != nil {
		log.Error("failed to build mail sender", "error", err)
		os.Exit(1)
	}

	key := getStringFlag(workerQueueKey, config.Notification.RedisKey)
	consumer := notification.NewConsumer(rdb, key, delivery, log)

	log.Info("mail worker is running. Press Ctrl+C to stop.", "key", key)
	if err := consumer.Run(ctx); err != nil {
		log.Error("mail worker stopped with error", "error", err)
		os.Exit(1)
	}
	log.Info("mail worker shutdown complete")
}

func getStringFlag(flagValue, configValue string) string {
	if flagValue != "" {
		return flagValue
	}
	return configValue
}

func init() {
	mailWorkerCmd.Flags().StringVar(&workerQueueKey, "key", "", "Redis list key (overrides config)")

	workerCmd.AddCommand(mailWorkerCmd)
	rootCmd.AddCommand(workerCmd)
}
