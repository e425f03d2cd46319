package mail

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"
)

// LogMailer stands in for the SMTP provider in dev and tests.
type LogMailer struct{}

func NewLogMailer() *LogMailer { return &LogMailer{} }

func (m *LogMailer) SendAccountCredentials(ctx context.Context, subject, content, to string, data AccountCredentials) error {
	// Optional: simulate slow provider
	if msStr := os.Getenv("MAILER_SLEEP_MS"); msStr != "" {
		ms, _ := strconv.Atoi(msStr)
		if ms > 0 {
			select {
			case <-time.After(time.Duration(ms) * time.Millisecond):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}

	// Optional: simulate provider outage
	if os.Getenv("MAILER_FAIL") == "1" {
		return fmt.Errorf("provider down (simulated)")
	}

	log.Printf("mail.account_credentials to=%s subject=%q email=%s", to, subject, data.Email)
	return nil
}
