package smtp

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuildMessage(t *testing.T) {
	t.Run("headers and crlf body", func(t *testing.T) {
		msg := buildMessage("portal@spice.lk", "user@mail.lk", "Request approved", "line one\nline two")
		require.True(t, strings.HasPrefix(msg, "From: portal@spice.lk\r\n"))
		require.Contains(t, msg, "To: user@mail.lk\r\n")
		require.Contains(t, msg, "Subject: Spice Portal - Request approved\r\n")
		require.Contains(t, msg, "\r\n\r\nline one\r\nline two\r\n")
	})
	t.Run("not configured client is a no-op", func(t *testing.T) {
		client := impl{cfg: Config{}}
		require.NoError(t, client.SendEMail("user@mail.lk", "subject", "text"))
	})
}
