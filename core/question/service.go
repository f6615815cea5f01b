// Package question is the question board: anyone asks, optionally targeting roles, anyone replies.
package question

import (
	"context"
	"fmt"
	"net/mail"
	"strings"

	"github.com/pkg/errors"

	"github.com/specedu/caseboard/core"
	"github.com/specedu/caseboard/core/sheet"
	"github.com/specedu/caseboard/core/user"
)

// Status values.
const (
	StatusPending  = "待回覆"
	StatusAnswered = "已回覆"
)

const (
	msgCreated = "有新的提問"
	msgReplied = "提問已回覆"

	askedTemplate = "question_asked"
)

type Question struct {
	ID          string `json:"id"`
	Date        string `json:"date"`
	AskerName   string `json:"asker_name"`
	AskerRole   string `json:"asker_role"`
	Question    string `json:"question"`
	TargetRole  string `json:"target_role"`
	ReplierName string `json:"replier_name"`
	Reply       string `json:"reply"`
	Status      string `json:"status"`
}

// TargetRoles returns the roles the question is addressed to.
func (q Question) TargetRoles() []string {
	return user.SplitRoles(q.TargetRole)
}

func (q Question) sheetRecord() sheet.Record {
	return sheet.Record{
		"id":           q.ID,
		"date":         q.Date,
		"asker_name":   q.AskerName,
		"asker_role":   q.AskerRole,
		"question":     q.Question,
		"target_role":  q.TargetRole,
		"replier_name": q.ReplierName,
		"reply":        q.Reply,
		"status":       q.Status,
	}
}

func fromSheet(rec sheet.Record) Question {
	return Question{
		ID:          rec.Get("id"),
		Date:        rec.Get("date"),
		AskerName:   rec.Get("asker_name"),
		AskerRole:   rec.Get("asker_role"),
		Question:    rec.Get("question"),
		TargetRole:  rec.Get("target_role"),
		ReplierName: rec.Get("replier_name"),
		Reply:       rec.Get("reply"),
		Status:      rec.Get("status"),
	}
}

type Service struct {
	store    *sheet.Store
	notifier core.Notifier
	users    *user.Service
	mailSvc  core.EmailService
}

func NewService(
	tables sheet.TableService,
	notifier core.Notifier,
	users *user.Service,
	mailSvc core.EmailService,
	logger core.Logger,
) *Service {
	return &Service{
		store:    sheet.NewStore(tables, sheet.TableQuestions, logger),
		notifier: notifier,
		users:    users,
		mailSvc:  mailSvc,
	}
}

func (svc *Service) List(ctx context.Context) []Question {
	recs := svc.store.ReadAll(ctx)
	out := make([]Question, 0, len(recs))
	for _, rec := range recs {
		out = append(out, fromSheet(rec))
	}
	return out
}

// Create stores a pending question and emails the users of the targeted roles.
func (svc *Service) Create(ctx context.Context, asker user.Identity, text string, targetRoles []string) (Question, error) {
	q := Question{
		ID:         core.NewID("q"),
		Date:       core.Today(),
		AskerName:  asker.Name,
		AskerRole:  asker.Role,
		Question:   text,
		TargetRole: strings.Join(targetRoles, ","),
		Status:     StatusPending,
	}
	if err := svc.store.Append(ctx, q.sheetRecord()); err != nil {
		return Question{}, errors.Wrap(err, "appending question")
	}
	svc.notifier.Notify(ctx, core.EventQuestionUpdate, core.StatusPayload{Msg: msgCreated})
	svc.notifyTargets(ctx, asker, q)
	return q, nil
}

// Reply answers the question. Replying again overwrites the previous reply and replier.
func (svc *Service) Reply(ctx context.Context, replier user.Identity, id, reply string) (Question, error) {
	rec, err := svc.store.FindAndUpdate(ctx, id, sheet.Record{
		"reply":        reply,
		"replier_name": replier.Name,
		"status":       StatusAnswered,
	})
	if err != nil {
		return Question{}, errors.Wrap(err, "updating question")
	}
	svc.notifier.Notify(ctx, core.EventQuestionUpdate, core.StatusPayload{Msg: msgReplied})
	return fromSheet(rec), nil
}

func (svc *Service) notifyTargets(ctx context.Context, asker user.Identity, q Question) {
	roles := q.TargetRoles()
	if svc.mailSvc == nil || len(roles) == 0 {
		return
	}
	to := svc.users.EmailAddresses(ctx, roles...)
	if len(to) == 0 {
		return
	}

	messages := make([]*core.EmailMessage, 0, len(to))
	for _, addr := range to {
		messages = append(messages, &core.EmailMessage{
			To:           []mail.Address{addr},
			Subject:      fmt.Sprintf("%s 提出了新問題", asker.Name),
			TemplateName: askedTemplate,
			TemplateData: q,
		})
	}
	svc.mailSvc.SendMessages(messages...)
}
