package emailsvc

import (
	"fmt"
	"log"
	"mime/multipart"
	"net/mail"
	"net/textproto"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/specedu/caseboard/core"
)

type consoleService struct {
	defaultFromEmail mail.Address
	subjPrefix       string
	frontendBaseURL  string
	logger           core.Logger
	disableOutput    bool
}

var _ core.EmailService = (*consoleService)(nil)

func NewConsoleService(conf *core.Config, logger core.Logger) core.EmailService {
	return &consoleService{
		defaultFromEmail: conf.DefaultFromEmail,
		subjPrefix:       "[" + conf.AppName + "] ",
		frontendBaseURL:  conf.FrontendBaseURL,
		logger:           logger,
	}
}

func (svc consoleService) SendMessages(messages ...*core.EmailMessage) {
	for _, msg := range messages {
		go func(msg *core.EmailMessage) {
			if _, err := svc.sendMessage(msg); err != nil {
				svc.logger.Error(fmt.Sprintf("sending email: %v", err), err)
			}
		}(msg)
	}
}

func (svc consoleService) sendMessage(msg *core.EmailMessage) (bool, error) {
	if err := msg.Render(svc.frontendBaseURL); err != nil {
		return false, errors.Wrap(err, "rendering email")
	}
	if !(msg.HasRecipients() && msg.HasContent()) {
		return false, nil
	}
	body, err := svc.format(*msg)
	if err != nil {
		return false, err
	}
	if !svc.disableOutput {
		log.Println(body)
	}
	return true, nil
}

func (svc consoleService) format(msg core.EmailMessage) (string, error) {
	body := new(strings.Builder)

	// Write mail header
	_, _ = fmt.Fprintf(body, "From: %s\r\n", svc.defaultFromEmail.String())
	_, _ = fmt.Fprint(body, "MIME-Version: 1.0\r\n")
	_, _ = fmt.Fprintf(body, "Date: %s\r\n", time.Now().Format(time.RFC1123Z))
	_, _ = fmt.Fprintf(body, "Subject: %s\r\n", svc.subjPrefix+msg.Subject)
	_, _ = fmt.Fprintf(body, "To: %s\r\n", joinAddresses(msg.To))
	_, _ = fmt.Fprintf(body, "CC: %s\r\n", joinAddresses(msg.Cc))
	_, _ = fmt.Fprintf(body, "BCC: %s\r\n", joinAddresses(msg.Bcc))

	altW := multipart.NewWriter(body)
	_, _ = fmt.Fprintf(body, "Content-Type: multipart/alternative; boundary=%s\r\n", altW.Boundary())
	_, _ = fmt.Fprint(body, "\r\n")

	w, err := altW.CreatePart(textproto.MIMEHeader{"Content-Type": {"text/plain; charset=utf-8"}})
	if err != nil {
		return "", errors.Wrap(err, "creating text/plain part")
	}
	_, _ = fmt.Fprintf(w, "%s\r\n", msg.TextContent)

	if msg.HTMLContent != "" {
		w, err = altW.CreatePart(textproto.MIMEHeader{"Content-Type": {"text/html; charset=utf-8"}})
		if err != nil {
			return "", errors.Wrap(err, "creating text/html part")
		}
		_, _ = fmt.Fprintf(w, "%s\r\n", msg.HTMLContent)
	}
	if err := altW.Close(); err != nil {
		return "", errors.Wrap(err, "closing multipart writer")
	}
	return body.String(), nil
}

func joinAddresses(addrs []mail.Address) string {
	toJoin := make([]string, 0, len(addrs))
	for _, a := range addrs {
		toJoin = append(toJoin, a.String())
	}
	return strings.Join(toJoin, ", ")
}

// ConsoleServiceMock sends synchronously, prints nothing and keeps what it sent.
type ConsoleServiceMock struct {
	consoleService
	mu   sync.Mutex
	sent []core.EmailMessage
}

func NewConsoleServiceMock(conf *core.Config, logger core.Logger) *ConsoleServiceMock {
	return &ConsoleServiceMock{
		consoleService: consoleService{
			defaultFromEmail: conf.DefaultFromEmail,
			subjPrefix:       "[" + conf.AppName + "] ",
			frontendBaseURL:  conf.FrontendBaseURL,
			logger:           logger,
			disableOutput:    true,
		},
	}
}

func (svc *ConsoleServiceMock) SendMessages(messages ...*core.EmailMessage) {
	for _, msg := range messages {
		// run synchronously
		ok, err := svc.sendMessage(msg)
		if err != nil {
			svc.logger.Error(fmt.Sprintf("sending email: %v", err), err)
		}
		if ok {
			svc.mu.Lock()
			svc.sent = append(svc.sent, *msg)
			svc.mu.Unlock()
		}
	}
}

// Sent returns the messages sent so far.
func (svc *ConsoleServiceMock) Sent() []core.EmailMessage {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	return append([]core.EmailMessage(nil), svc.sent...)
}

// Reset forgets the messages sent so far.
func (svc *ConsoleServiceMock) Reset() {
	svc.mu.Lock()
	svc.sent = nil
	svc.mu.Unlock()
}
