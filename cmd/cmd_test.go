package cmd

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/frahmantamala/employee-management/internal"
	"github.com/frahmantamala/employee-management/internal/notification"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestCmd(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Cmd Suite")
}

var _ = Describe("loadConfig", func() {
	var dir string

	BeforeEach(func() {
		var err error
		dir, err = os.MkdirTemp("", "employee-management-config")
		Expect(err).NotTo(HaveOccurred())
		Expect(os.Setenv("APP_DATABASE_SOURCE", "postgres://localhost/employees")).To(Succeed())
	})

	AfterEach(func() {
		Expect(os.RemoveAll(dir)).To(Succeed())
		Expect(os.Unsetenv("APP_DATABASE_SOURCE")).To(Succeed())
		Expect(os.Unsetenv("APP_NOTIFICATION_QUEUE")).To(Succeed())
	})

	It("should fall back to defaults without a config file", func() {
		cfg, err := loadConfig(dir)

		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.Server.Port).To(Equal(8080))
		Expect(cfg.Database.Source).To(Equal("postgres://localhost/employees"))
		Expect(cfg.Notification.Queue).To(Equal(internal.QueueModeMemory))
		Expect(cfg.Notification.AdminEmail).To(Equal("hr@techcorp.com"))
		Expect(cfg.Mail.RetryBackoff).To(Equal(500 * time.Millisecond))
		Expect(cfg.Idempotency.TTL).To(Equal(24 * time.Hour))
	})

	It("should let the environment override the file", func() {
		content := []byte("http_server:\n  port: 9090\nnotification:\n  queue: memory\n  company_name: Acme\n")
		Expect(os.WriteFile(filepath.Join(dir, "config.yml"), content, 0o600)).To(Succeed())
		Expect(os.Setenv("APP_NOTIFICATION_QUEUE", "sync")).To(Succeed())

		cfg, err := loadConfig(dir)

		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.Server.Port).To(Equal(9090))
		Expect(cfg.Notification.CompanyName).To(Equal("Acme"))
		Expect(cfg.Notification.Queue).To(Equal(internal.QueueModeSync))
	})

	It("should fail validation for an invalid file", func() {
		content := []byte("notification:\n  queue: redis\n")
		Expect(os.WriteFile(filepath.Join(dir, "config.yml"), content, 0o600)).To(Succeed())

		_, err := loadConfig(dir)

		Expect(err).To(MatchError(ContainSubstring("redis queue requires redis.addr")))
	})
})

var _ = Describe("notificationSettings", func() {
	It("should keep defaults for empty values", func() {
		settings := notificationSettings(internal.NotificationConfig{CompanyName: "Acme"})

		Expect(settings.CompanyName).To(Equal("Acme"))
		Expect(settings.AdminEmail).To(Equal(notification.DefaultSettings().AdminEmail))
	})
})

var _ = Describe("sampleMessage", func() {
	now := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)

	DescribeTable("builds each kind",
		func(kind notification.Kind, envelopes int) {
			msg, err := sampleMessage(kind, "ann@x.com", now)
			Expect(err).NotTo(HaveOccurred())
			Expect(msg.Kind()).To(Equal(kind))
			Expect(notification.Compose(msg, notification.DefaultSettings(), now)).To(HaveLen(envelopes))
		},
		Entry("created", notification.KindCreated, 2),
		Entry("updated", notification.KindUpdated, 2),
		Entry("deleted", notification.KindDeleted, 1),
	)

	It("should reject unknown kinds", func() {
		_, err := sampleMessage("archived", "ann@x.com", now)

		Expect(err).To(HaveOccurred())
	})
})
