package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/frahmantamala/employee-management/internal"
	"github.com/frahmantamala/employee-management/internal/notification"
	"github.com/frahmantamala/employee-management/pkg/logger"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func setupLogger(cfg *internal.Config) *slog.Logger {
	lc := cfg.Observability.Logging
	return logger.Setup(logger.Options{
		Env:        cfg.Env,
		Level:      lc.Level,
		Format:     lc.Format,
		File:       lc.File,
		MaxSizeMB:  lc.MaxSizeMB,
		MaxBackups: lc.MaxBackups,
		MaxAgeDays: lc.MaxAgeDays,
		Compress:   lc.Compress,
	})
}

// initDB initializes the database connection
func initDB(cfg internal.DatabaseConfig) (*sqlx.DB, error) {
	const driver = "pgx"

	dbConn, err := sqlx.Connect(driver, cfg.Source)
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	dbConn.SetMaxIdleConns(cfg.MaxIdleConns)
	dbConn.SetMaxOpenConns(cfg.MaxOpenConns)
	dbConn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	dbConn.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := dbConn.Ping(); err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return dbConn, nil
}

// initGorm wraps the pooled connection so repositories share one pool.
func initGorm(db *sqlx.DB, env string) (*gorm.DB, error) {
	level := gormlogger.Warn
	if env != "production" {
		level = gormlogger.Info
	}
	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: db.DB}), &gorm.Config{
		Logger: gormlogger.Default.LogMode(level),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open gorm: %w", err)
	}
	return gdb, nil
}

// initRedis returns nil when no address is configured.
func initRedis(ctx context.Context, cfg internal.RedisConfig) (*redis.Client, error) {
	if !cfg.Enabled() {
		return nil, nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return client, nil
}

func notificationSettings(cfg internal.NotificationConfig) notification.Settings {
	settings := notification.DefaultSettings()
	if cfg.AdminEmail != "" {
		settings.AdminEmail = cfg.AdminEmail
	}
	if cfg.CompanyName != "" {
		settings.CompanyName = cfg.CompanyName
	}
	if cfg.CompanyWebsite != "" {
		settings.CompanyWebsite = cfg.CompanyWebsite
	}
	if cfg.SupportEmail != "" {
		settings.SupportEmail = cfg.SupportEmail
	}
	if cfg.SupportPhone != "" {
		settings.SupportPhone = cfg.SupportPhone
	}
	return settings
}

// newDeliverySender builds the sender that actually delivers mail: SMTP when
// mail is enabled, otherwise a sender that only logs.
func newDeliverySender(cfg internal.MailConfig, log *slog.Logger) (notification.Sender, error) {
	if !cfg.Enabled {
		log.Warn("mail disabled, notifications will only be logged")
		return notification.NewLogSender(log), nil
	}

	renderer, err := notification.NewRenderer()
	if err != nil {
		return nil, err
	}

	return notification.NewMailer(notification.MailerConfig{
		Host:         cfg.Host,
		Port:         cfg.Port,
		Username:     cfg.Username,
		Password:     cfg.Password,
		From:         cfg.From,
		TLSPolicy:    cfg.TLSPolicy,
		Timeout:      cfg.Timeout,
		MaxRetries:   cfg.MaxRetries,
		RetryBackoff: cfg.RetryBackoff,
	}, renderer, log)
}

// notificationPipeline is the sender handed to the dispatcher and a hook to
// drain it on shutdown.
type notificationPipeline struct {
	sender   notification.Sender
	shutdown func(ctx context.Context) error
}

func newNotificationPipeline(cfg *internal.Config, rdb *redis.Client, log *slog.Logger) (*notificationPipeline, error) {
	noop := func(context.Context) error { return nil }

	if cfg.Notification.Queue == internal.QueueModeRedis {
		log.Info("notifications are queued in redis", "key", cfg.Notification.RedisKey)
		return &notificationPipeline{
			sender:   notification.NewRedisQueue(rdb, cfg.Notification.RedisKey),
			shutdown: noop,
		}, nil
	}

	delivery, err := newDeliverySender(cfg.Mail, log)
	if err != nil {
		return nil, err
	}

	if cfg.Notification.Queue == internal.QueueModeSync {
		return &notificationPipeline{sender: delivery, shutdown: noop}, nil
	}

	queue := notification.NewQueue(delivery, notification.QueueConfig{
		Workers:     cfg.Notification.Workers,
		QueueSize:   cfg.Notification.QueueSize,
		SendTimeout: cfg.Notification.SendTimeout,
	}, log)
	return &notificationPipeline{sender: queue, shutdown: queue.Shutdown}, nil
}
