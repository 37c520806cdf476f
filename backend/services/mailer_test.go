package services

import (
	"context"
	"testing"
	"time"

	"coursehub/backend/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMailer(t *testing.T) {
	cfg := testConfig(t)
	logger := utils.NewNopLogger()

	assert.IsType(t, &ConsoleMailer{}, NewMailer(cfg, logger))

	cfg.SendgridAPIKey = "SG.test"
	cfg.MailFrom = "noreply@example.com"
	m, ok := NewMailer(cfg, logger).(*SendgridMailer)
	require.True(t, ok)
	assert.Equal(t, "noreply@example.com", m.from.Address)
	assert.Equal(t, "[Online Courses Platform] ", m.subjPrefix)
}

func TestConsoleMailer(t *testing.T) {
	m := NewConsoleMailer(utils.NewNopLogger())
	require.NoError(t, m.Send(context.Background(), EmailMessage{To: "a@example.com", Subject: "one"}))

	SendAsync(m, utils.NewNopLogger(), EmailMessage{To: "b@example.com", Subject: "two"})
	assert.Eventually(t, func() bool { return len(m.Sent()) == 2 }, time.Second, 10*time.Millisecond)

	sent := m.Sent()
	sent[0].Subject = "changed"
	assert.Equal(t, "one", m.Sent()[0].Subject, "Sent returns a copy")
}
