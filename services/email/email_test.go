package emailsvc

import (
	"net/mail"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/specedu/caseboard/core"
	testutil "github.com/specedu/caseboard/tests"
)

func TestConsoleServiceMock_SendMessages(t *testing.T) {
	conf := testutil.NewConfig()
	svc := NewConsoleServiceMock(conf, testutil.NewLogger(t))

	to := []mail.Address{{Name: "Dave", Address: "dave@test.tw"}}
	svc.SendMessages(
		&core.EmailMessage{To: to, Subject: "plain", BodyStr: "hello"},
		&core.EmailMessage{Subject: "no recipients", BodyStr: "hello"},
		&core.EmailMessage{
			To:           to,
			Subject:      "templated",
			TemplateName: "question_asked",
			TemplateData: struct{ AskerName, AskerRole, Question string }{"Carol", "parents", "何時開會？"},
		},
	)

	sent := svc.Sent()
	require.Len(t, sent, 2)
	assert.Equal(t, "hello", sent[0].TextContent)
	assert.Contains(t, sent[1].TextContent, "何時開會？")
	assert.Contains(t, sent[1].HTMLContent, "Carol")
	assert.Contains(t, sent[1].HTMLContent, conf.FrontendBaseURL)
}

func TestConsoleService_format(t *testing.T) {
	conf := testutil.NewConfig()
	svc := consoleService{
		defaultFromEmail: conf.DefaultFromEmail,
		subjPrefix:       "[Caseboard] ",
	}
	body, err := svc.format(core.EmailMessage{
		To:          []mail.Address{{Address: "a@test.tw"}, {Address: "b@test.tw"}},
		Subject:     "hi",
		TextContent: "text",
		HTMLContent: "<p>html</p>",
	})
	require.NoError(t, err)
	assert.Contains(t, body, "Subject: [Caseboard] hi\r\n")
	assert.Contains(t, body, "To: <a@test.tw>, <b@test.tw>\r\n")
	assert.True(t, strings.Contains(body, "text/plain") && strings.Contains(body, "text/html"))
}

func TestSendgridService_prepare(t *testing.T) {
	conf := testutil.NewConfig()
	svc := NewSendgridService(conf, testutil.NewLogger(t)).(*sendgridService)

	m := svc.prepare(core.EmailMessage{
		To:          []mail.Address{{Name: "Dave", Address: "dave@test.tw"}},
		Subject:     "hi",
		TextContent: "text",
	})
	require.Len(t, m.Personalizations, 1)
	assert.Equal(t, "[Caseboard] hi", m.Personalizations[0].Subject)
	assert.Equal(t, "dave@test.tw", m.Personalizations[0].To[0].Address)
	assert.Len(t, m.Content, 1)
}
