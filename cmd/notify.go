package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/frahmantamala/employee-management/internal/notification"
	"github.com/spf13/cobra"
)

var notifyCmd = &cobra.Command{
	Use:   "notify",
	Short: "Notification tooling",
	Long:  `Inspect and exercise the notification pipeline.`,
}

var notifyTestCmd = &cobra.Command{
	Use:   "test",
	Short: "Send a sample notification",
	Long:  `Compose a sample created, updated or deleted notification and deliver it synchronously.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return sendTestNotification(cmd.Context())
	},
}

var (
	notifyKind string
	notifyTo   string
)

func sampleMessage(kind notification.Kind, to string, now time.Time) (notification.Message, error) {
	record := notification.Snapshot{
		ID:          1,
		FirstName:   "Test",
		LastName:    "Employee",
		Email:       to,
		PhoneNumber: "+1-555-0100",
		Department:  "Engineering",
		Role:        "EMPLOYEE",
		Active:      true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	switch kind {
	case notification.KindCreated:
		return notification.Created{User: record}, nil
	case notification.KindUpdated:
		return notification.Updated{
			User:      record,
			Changes:   []string{"Department changed from 'Sales' to 'Engineering'"},
			UpdatedAt: now,
		}, nil
	case notification.KindDeleted:
		return notification.Deleted{User: record, Reason: notification.DefaultDeletionReason}, nil
	default:
		return nil, fmt.Errorf("unknown kind %q, want created, updated or deleted", kind)
	}
}

func sendTestNotification(ctx context.Context) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	log := setupLogger(cfg)

	msg, err := sampleMessage(notification.Kind(notifyKind), notifyTo, time.Now())
	if err != nil {
		return err
	}

	delivery, err := newDeliverySender(cfg.Mail, log)
	if err != nil {
		return err
	}

	dispatcher := notification.NewDispatcher(delivery, notificationSettings(cfg.Notification), log)
	report := dispatcher.Notify(ctx, msg)

	fmt.Fprintf(os.Stdout, "%s: delivered %d of %d\n", report.Kind, report.Delivered(), report.Attempted)
	for _, f := range report.Failures {
		fmt.Fprintf(os.Stdout, "  %s <%s>: %v\n", f.Audience, f.To, f.Err)
	}
	if !report.OK() {
		return fmt.Errorf("%d notification(s) failed", len(report.Failures))
	}
	return nil
}

func init() {
	notifyTestCmd.Flags().StringVar(&notifyKind, "kind", string(notification.KindCreated), "created, updated or deleted")
	notifyTestCmd.Flags().StringVar(&notifyTo, "to", "", "employee address receiving the employee copy")
	_ = notifyTestCmd.MarkFlagRequired("to")

	notifyCmd.AddCommand(notifyTestCmd)
	rootCmd.AddCommand(notifyCmd)
}
