package config_test

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/papercomputeco/ivrdesk/pkg/config"
)

const sample = `
[server]
listen = ":9090"
session_ttl = "15m"

[ai]
provider = "gemini"
gemini_api_key = "g-key"

[organization]
name = "קופה לדוגמה"
verification_phone = "1700000000"

[prompts]
greeting = "שלום מ{ORG_NAME}"
`

var _ = Describe("Config", func() {
	var dir string

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
	})

	write := func(name, body string) string {
		path := filepath.Join(dir, name)
		Expect(os.WriteFile(path, []byte(body), 0o644)).To(Succeed())
		return path
	}

	Describe("Default", func() {
		It("is valid and expands placeholders", func() {
			cfg := config.Default()

			Expect(cfg.Validate()).To(Succeed())
			Expect(cfg.Greeting()).To(ContainSubstring("קופת טוב וחסד רחובות"))
			Expect(cfg.SystemPrompt()).NotTo(ContainSubstring("{ORG_NAME}"))
			Expect(cfg.SystemPrompt()).To(ContainSubstring("תודה! ניצור קשר. יום טוב!"))
		})
	})

	Describe("Load", func() {
		It("reads the file over the defaults", func() {
			cfg, err := config.Load(write("ivrdesk.toml", sample))
			Expect(err).NotTo(HaveOccurred())

			Expect(cfg.AI.Provider).To(Equal(config.ProviderGemini))
			Expect(cfg.APIKey()).To(Equal("g-key"))
			Expect(cfg.Organization.Name).To(Equal("קופה לדוגמה"))
			Expect(cfg.Greeting()).To(Equal("שלום מקופה לדוגמה"))
			Expect(cfg.Server.Locale).To(Equal("he-IL"))

			ttl, err := cfg.SessionTTL()
			Expect(err).NotTo(HaveOccurred())
			Expect(ttl).To(Equal(15 * time.Minute))
		})

		It("rejects unknown providers", func() {
			_, err := config.Load(write("bad.toml", "[ai]\nprovider = \"anthropic\"\n"))
			Expect(err).To(MatchError(ContainSubstring("unsupported AI provider")))
		})

		It("rejects malformed durations", func() {
			_, err := config.Load(write("bad.toml", "[server]\nsession_ttl = \"soon\"\n"))
			Expect(err).To(MatchError(ContainSubstring("session_ttl")))
		})

		It("reports decode errors", func() {
			_, err := config.Load(write("broken.toml", "[server\n"))
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("ApplyEnv", func() {
		It("overrides fields using the service's variable names", func() {
			env := map[string]string{
				"PORT":               "8081",
				"AI_PROVIDER":        "openai",
				"OPENAI_API_KEY":     "sk-test",
				"ORG_NAME":           "ארגון",
				"VERIFICATION_PHONE": "123",
				"SYSTEM_PROMPT":      "את מ{ORG_NAME}, טלפון {PHONE}",
				"NOTIFICATION_EMAIL": "ops@example.com",
				"DEBUG":              "true",
			}
			cfg := config.Default()
			cfg.ApplyEnv(func(k string) (string, bool) {
				v, ok := env[k]
				return v, ok
			})

			Expect(cfg.Server.Listen).To(Equal(":8081"))
			Expect(cfg.APIKey()).To(Equal("sk-test"))
			Expect(cfg.SystemPrompt()).To(Equal("את מארגון, טלפון 123"))
			Expect(cfg.Notify.Email).To(Equal("ops@example.com"))
			Expect(cfg.Server.Debug).To(BeTrue())
		})
	})

	Describe("Watch", func() {
		It("reloads the file when it changes", func() {
			path := write("ivrdesk.toml", sample)
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			var greeting atomic.Value
			done := make(chan error, 1)
			go func() {
				done <- config.Watch(ctx, path, zap.NewNop(), func(cfg *config.Config) {
					greeting.Store(cfg.Greeting())
				})
			}()

			// Give the watcher a moment to register before writing.
			time.Sleep(100 * time.Millisecond)
			// A duplicate table is invalid and must be skipped.
			write("ivrdesk.toml", sample+"\n[server]\n")
			write("ivrdesk.toml", `[prompts]`+"\ngreeting = \"ערב טוב\"\n")

			Eventually(func() any { return greeting.Load() }, 2*time.Second).Should(Equal("ערב טוב"))

			cancel()
			Eventually(done).Should(Receive(BeNil()))
		})
	})
})
