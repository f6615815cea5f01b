// Package message is the shared message board and its AI summary.
package message

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/specedu/caseboard/core"
	"github.com/specedu/caseboard/core/sheet"
	"github.com/specedu/caseboard/core/user"
)

const (
	// SummaryWindow is the number of most recent messages summarized.
	SummaryWindow = 10

	// NothingToSummarize is returned when the board is empty.
	NothingToSummarize = "目前沒有留言可總結。"

	summaryPrompt = `請扮演一位專業的特教個案管理師。
以下是親師與治療師的最近溝通紀錄：
---
%s
---
請幫我用條列式摘要以上溝通的重點 (100字以內)：`
)

// Summarizer turns a prompt into a short text with a large language model.
type Summarizer interface {
	Summarize(ctx context.Context, prompt string) (string, error)
}

type Message struct {
	ID        string `json:"id"`
	UserName  string `json:"user_name"`
	Role      string `json:"role"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

func (m Message) sheetRecord() sheet.Record {
	return sheet.Record{
		"id":        m.ID,
		"user_name": m.UserName,
		"role":      m.Role,
		"message":   m.Message,
		"timestamp": m.Timestamp,
	}
}

func fromSheet(rec sheet.Record) Message {
	return Message{
		ID:        rec.Get("id"),
		UserName:  rec.Get("user_name"),
		Role:      rec.Get("role"),
		Message:   rec.Get("message"),
		Timestamp: rec.Get("timestamp"),
	}
}

type Service struct {
	store      *sheet.Store
	notifier   core.Notifier
	summarizer Summarizer
}

func NewService(tables sheet.TableService, notifier core.Notifier, summarizer Summarizer, logger core.Logger) *Service {
	return &Service{
		store:      sheet.NewStore(tables, sheet.TableMessages, logger),
		notifier:   notifier,
		summarizer: summarizer,
	}
}

func (svc *Service) List(ctx context.Context) []Message {
	recs := svc.store.ReadAll(ctx)
	out := make([]Message, 0, len(recs))
	for _, rec := range recs {
		out = append(out, fromSheet(rec))
	}
	return out
}

// Create posts a message and broadcasts it.
func (svc *Service) Create(ctx context.Context, author user.Identity, text string) (Message, error) {
	msg := Message{
		ID:        core.NewID("msg"),
		UserName:  author.Name,
		Role:      author.Role,
		Message:   text,
		Timestamp: core.Timestamp(),
	}
	if err := svc.store.Append(ctx, msg.sheetRecord()); err != nil {
		return Message{}, errors.Wrap(err, "appending message")
	}
	svc.notifier.Notify(ctx, core.EventMessageUpdate, msg)
	return msg, nil
}

// BuildPrompt renders the summary prompt for msgs.
func BuildPrompt(msgs []Message) string {
	lines := make([]string, 0, len(msgs))
	for _, m := range msgs {
		lines = append(lines, fmt.Sprintf("%s %s 說: %s", m.Role, m.UserName, m.Message))
	}
	return fmt.Sprintf(summaryPrompt, strings.Join(lines, "\n"))
}

// Summary summarizes the most recent messages. The model's text is returned as is.
func (svc *Service) Summary(ctx context.Context) (string, error) {
	msgs := svc.List(ctx)
	if len(msgs) == 0 {
		return NothingToSummarize, nil
	}
	if len(msgs) > SummaryWindow {
		msgs = msgs[len(msgs)-SummaryWindow:]
	}

	summary, err := svc.summarizer.Summarize(ctx, BuildPrompt(msgs))
	if err != nil {
		return "", core.NewUpstreamError("ai", err)
	}
	return summary, nil
}
