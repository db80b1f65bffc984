package delivery

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/mrz1836/postmark"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"slackdigest/models"
)

func TestParseMethod(t *testing.T) {
	t.Run("Success_KnownMethods", func(t *testing.T) {
		for _, name := range []string{"console", "file", "smtp", "postmark"} {
			method, err := ParseMethod(name)
			require.NoError(t, err)
			assert.Equal(t, Method(name), method)
		}
	})

	t.Run("Error_UnknownMethod", func(t *testing.T) {
		_, err := ParseMethod("carrier-pigeon")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown delivery method")
	})
}

func TestFileSink(t *testing.T) {
	t.Run("Success_PartsAreNumberedInDeliveryOrder", func(t *testing.T) {
		dir := t.TempDir()
		sink := NewFileSink(dir, "")

		first := models.RenderedPart{Subject: "s1", HTMLBody: "<p>one</p>"}
		second := models.RenderedPart{Subject: "s2", HTMLBody: "<p>two</p>"}
		require.NoError(t, sink.Deliver(context.Background(), &first))
		require.NoError(t, sink.Deliver(context.Background(), &second))

		one, err := os.ReadFile(filepath.Join(dir, "digest-part0.html"))
		require.NoError(t, err)
		assert.Equal(t, "<p>one</p>", string(one))

		two, err := os.ReadFile(filepath.Join(dir, "digest-part1.html"))
		require.NoError(t, err)
		assert.Equal(t, "<p>two</p>", string(two))
	})

	t.Run("Success_CustomPrefix", func(t *testing.T) {
		dir := t.TempDir()
		sink := NewFileSink(dir, "general-20160802")

		part := models.RenderedPart{HTMLBody: "<p>x</p>"}
		require.NoError(t, sink.Deliver(context.Background(), &part))

		_, err := os.Stat(filepath.Join(dir, "general-20160802-part0.html"))
		require.NoError(t, err)
	})
}

func TestSMTPSink(t *testing.T) {
	testConfig := func() SMTPConfig {
		return SMTPConfig{
			Host:     "smtp.example.com",
			Port:     "587",
			Username: "digest",
			Password: "hunter2",
			From:     "digest@example.com",
			To:       "team@example.com",
		}
	}

	t.Run("Success_AssembledMessageCarriesThreadingHeaders", func(t *testing.T) {
		sink := NewSMTPSink(testConfig())

		part := models.RenderedPart{
			Subject:  "Slack Digest for Tuesday, August 02, 2016 (UTC)",
			TextBody: "fallback",
			HTMLBody: "<p>body</p>",
		}
		part.SetHeader("Message-ID", "<digest-20160802-last@T1.C1.slack-email-digest.com>")
		part.SetHeader("In-Reply-To", "<digest-20160801-last@T1.C1.slack-email-digest.com>")

		message := sink.assemble(&part)
		assert.Contains(t, message, "From: digest@example.com\r\n")
		assert.Contains(t, message, "To: team@example.com\r\n")
		assert.Contains(t, message, "Subject: Slack Digest for Tuesday, August 02, 2016 (UTC)\r\n")
		assert.Contains(t, message, "Message-ID: <digest-20160802-last@T1.C1.slack-email-digest.com>\r\n")
		assert.Contains(t, message, "In-Reply-To: <digest-20160801-last@T1.C1.slack-email-digest.com>\r\n")
		assert.Contains(t, message, part.MultipartBody())
	})

	t.Run("Error_OversizedMessageIsRejectedBeforeSending", func(t *testing.T) {
		cfg := testConfig()
		cfg.MaxEmailSize = 100
		sink := NewSMTPSink(cfg)

		part := models.RenderedPart{Subject: "s", TextBody: "t", HTMLBody: "<p>too big for 100 bytes</p>"}
		err := sink.Deliver(context.Background(), &part)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "exceeds size limit")
	})
}

func TestConsoleSink(t *testing.T) {
	t.Run("Success_PrintsSubjectAndBody", func(t *testing.T) {
		var buf bytes.Buffer
		sink := &ConsoleSink{w: &buf}

		part := models.RenderedPart{Subject: "the subject", HTMLBody: "<p>the body</p>"}
		require.NoError(t, sink.Deliver(context.Background(), &part))
		assert.Equal(t, "Subject: the subject\n\n<p>the body</p>\n", buf.String())
	})
}

type fakePostmarkAPI struct {
	sent []postmark.Email
	resp postmark.EmailResponse
	err  error
}

func (f *fakePostmarkAPI) SendEmail(_ context.Context, email postmark.Email) (postmark.EmailResponse, error) {
	f.sent = append(f.sent, email)
	return f.resp, f.err
}

func TestPostmarkSink(t *testing.T) {
	testSink := func(api *fakePostmarkAPI) *PostmarkSink {
		return &PostmarkSink{
			client: api,
			cfg: PostmarkConfig{
				From: "digest@example.com",
				To:   "team@example.com",
				Tag:  "slack-digest",
			},
		}
	}

	t.Run("Success_HeadersTravelWithTheEmail", func(t *testing.T) {
		api := &fakePostmarkAPI{}
		sink := testSink(api)

		part := models.RenderedPart{Subject: "s", TextBody: "t", HTMLBody: "<p>h</p>"}
		part.SetHeader("Message-ID", "<id@x>")
		require.NoError(t, sink.Deliver(context.Background(), &part))

		require.Len(t, api.sent, 1)
		sent := api.sent[0]
		assert.Equal(t, "digest@example.com", sent.From)
		assert.Equal(t, "team@example.com", sent.To)
		assert.Equal(t, "slack-digest", sent.Tag)
		require.Len(t, sent.Headers, 1)
		assert.Equal(t, postmark.Header{Name: "Message-ID", Value: "<id@x>"}, sent.Headers[0])
	})

	t.Run("Error_TransportFailure", func(t *testing.T) {
		api := &fakePostmarkAPI{err: errors.New("connection refused")}
		sink := testSink(api)

		part := models.RenderedPart{Subject: "s"}
		err := sink.Deliver(context.Background(), &part)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to send email")
	})

	t.Run("Error_APIErrorCode", func(t *testing.T) {
		api := &fakePostmarkAPI{resp: postmark.EmailResponse{ErrorCode: 406, Message: "inactive recipient"}}
		sink := testSink(api)

		part := models.RenderedPart{Subject: "s"}
		err := sink.Deliver(context.Background(), &part)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "inactive recipient")
	})
}
