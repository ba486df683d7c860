package cmd

import (
	"context"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/finance-tracker/internal/core/events"
)

var _ = Describe("sampleEvent", func() {
	BeforeEach(func() {
		eventUserID = 7
		eventCount = 3
		eventFileName = "march.csv"
	})

	It("builds a rules.applied event from the flags", func() {
		event, err := sampleEvent(events.EventTypeRulesApplied)
		Expect(err).NotTo(HaveOccurred())

		applied, ok := event.(*events.RulesAppliedEvent)
		Expect(ok).To(BeTrue())
		Expect(applied.UserID).To(Equal(int64(7)))
		Expect(applied.ChangedCount).To(Equal(3))
	})

	It("builds an upload.completed event from the flags", func() {
		event, err := sampleEvent(events.EventTypeUploadCompleted)
		Expect(err).NotTo(HaveOccurred())

		completed, ok := event.(*events.UploadCompletedEvent)
		Expect(ok).To(BeTrue())
		Expect(completed.FileName).To(Equal("march.csv"))
		Expect(completed.TransactionCount).To(Equal(3))
	})

	It("rejects unknown event types", func() {
		_, err := sampleEvent("budget.exceeded")
		Expect(err).To(HaveOccurred())
	})

	It("delivers a sample event through the bus", func() {
		Expect(publishSampleEvent(context.Background(), events.EventTypeRulesApplied)).To(Succeed())
	})
})

var _ = Describe("loadConfig", func() {
	var dir string

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
	})

	It("reads config.yml and validates it", func() {
		yml := `http_server:
  port: 8080
  allowed_origins: "*"
database:
  source: postgres://localhost:5432/finance?sslmode=disable
  max_open_conns: 10
  max_idle_conns: 5
  conn_max_lifetime: 30m
  conn_max_idle_time: 5m
security:
  jwt_secret: 0123456789abcdef0123456789abcdef
  access_token_duration: 30m
  refresh_token_duration: 168h
  bcrypt_cost: 10
uploads:
  dir: uploads
  max_size_mb: 10
  preview_rows: 10
observability:
  logging:
    level: error
    format: text
`
		Expect(os.WriteFile(filepath.Join(dir, "config.yml"), []byte(yml), 0o600)).To(Succeed())

		cfg, err := loadConfig(dir)
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.Server.Port).To(Equal(8080))
		Expect(cfg.Database.MaxOpenConns).To(Equal(10))
		Expect(cfg.Uploads.MaxBytes()).To(Equal(int64(10 << 20)))
		Expect(cfg.Observability.Logging.Level).To(Equal("error"))
	})

	It("fails validation for a short jwt secret", func() {
		yml := `database:
  source: postgres://localhost/finance
  max_open_conns: 1
  max_idle_conns: 1
security:
  jwt_secret: short
uploads:
  dir: uploads
  max_size_mb: 1
`
		Expect(os.WriteFile(filepath.Join(dir, "config.yml"), []byte(yml), 0o600)).To(Succeed())

		_, err := loadConfig(dir)
		Expect(err).To(MatchError(ContainSubstring("jwt secret")))
	})

	It("fails when no config file exists", func() {
		_, err := loadConfig(dir)
		Expect(err).To(HaveOccurred())
	})
})
