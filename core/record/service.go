// Package record is the therapy record log: therapists write, teachers reply.
package record

import (
	"context"

	"github.com/pkg/errors"

	"github.com/specedu/caseboard/core"
	"github.com/specedu/caseboard/core/sheet"
	"github.com/specedu/caseboard/core/user"
)

const (
	msgCreated = "治療師新增了一筆紀錄"
	msgReplied = "老師已回覆紀錄"
)

type Record struct {
	ID            string `json:"id"`
	Date          string `json:"date"`
	TherapistName string `json:"therapist_name"`
	Content       string `json:"content"`
	TeacherReply  string `json:"teacher_reply"`
	CreatedAt     string `json:"created_at"`
}

func (r Record) sheetRecord() sheet.Record {
	return sheet.Record{
		"id":             r.ID,
		"date":           r.Date,
		"therapist_name": r.TherapistName,
		"content":        r.Content,
		"teacher_reply":  r.TeacherReply,
		"created_at":     r.CreatedAt,
	}
}

func fromSheet(rec sheet.Record) Record {
	return Record{
		ID:            rec.Get("id"),
		Date:          rec.Get("date"),
		TherapistName: rec.Get("therapist_name"),
		Content:       rec.Get("content"),
		TeacherReply:  rec.Get("teacher_reply"),
		CreatedAt:     rec.Get("created_at"),
	}
}

type Service struct {
	store    *sheet.Store
	notifier core.Notifier
}

func NewService(tables sheet.TableService, notifier core.Notifier, logger core.Logger) *Service {
	return &Service{
		store:    sheet.NewStore(tables, sheet.TableRecords, logger),
		notifier: notifier,
	}
}

func (svc *Service) List(ctx context.Context) []Record {
	recs := svc.store.ReadAll(ctx)
	out := make([]Record, 0, len(recs))
	for _, rec := range recs {
		out = append(out, fromSheet(rec))
	}
	return out
}

// Create stores a new record written by the therapist.
func (svc *Service) Create(ctx context.Context, author user.Identity, content string) (Record, error) {
	rec := Record{
		ID:            core.NewID("rec"),
		Date:          core.Today(),
		TherapistName: author.Name,
		Content:       content,
		CreatedAt:     core.Timestamp(),
	}
	if err := svc.store.Append(ctx, rec.sheetRecord()); err != nil {
		return Record{}, errors.Wrap(err, "appending record")
	}
	svc.notifier.Notify(ctx, core.EventRecordUpdate, core.StatusPayload{Msg: msgCreated})
	return rec, nil
}

// Reply sets the teacher's reply on the record. A later reply replaces the previous one.
func (svc *Service) Reply(ctx context.Context, id, reply string) (Record, error) {
	rec, err := svc.store.FindAndUpdate(ctx, id, sheet.Record{"teacher_reply": reply})
	if err != nil {
		return Record{}, errors.Wrap(err, "updating record")
	}
	svc.notifier.Notify(ctx, core.EventRecordUpdate, core.StatusPayload{Msg: msgReplied})
	return fromSheet(rec), nil
}
