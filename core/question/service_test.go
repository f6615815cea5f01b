package question_test

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/specedu/caseboard/core"
	"github.com/specedu/caseboard/core/question"
	"github.com/specedu/caseboard/core/user"
	emailsvc "github.com/specedu/caseboard/services/email"
	testutil "github.com/specedu/caseboard/tests"
)

var (
	carol = user.Identity{Username: "carol", Role: user.RoleParents, Name: "Carol"}
	alice = user.Identity{Username: "alice", Role: user.RoleTherapist, Name: "Alice"}
)

func setup(t *testing.T) (*question.Service, *testutil.Notifier, *emailsvc.ConsoleServiceMock) {
	t.Helper()
	tables := testutil.NewTables()
	conf := testutil.NewConfig()
	logger := testutil.NewLogger(t)

	testutil.CreateUser(t, tables, "alice", "pw1", user.RoleTherapist, "Alice", "alice@test.tw")
	testutil.CreateUser(t, tables, "bob", "pw2", user.RoleTeacher, "Bob", "bob@test.tw")
	testutil.CreateUser(t, tables, "dave", "pw4", user.RoleTeacher, "Dave", "")
	testutil.CreateUser(t, tables, "carol", "pw3", user.RoleParents, "Carol", "carol@test.tw")

	notifier := &testutil.Notifier{}
	mail := emailsvc.NewConsoleServiceMock(conf, logger)
	svc := question.NewService(tables, notifier, user.NewService(tables, conf, logger), mail, logger)
	return svc, notifier, mail
}

func TestService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("untargeted", func(t *testing.T) {
		svc, notifier, mail := setup(t)

		q, err := svc.Create(ctx, carol, "午餐吃什麼？", nil)
		require.NoError(t, err)
		assert.Regexp(t, `^q-\d+$`, q.ID)
		assert.Equal(t, question.StatusPending, q.Status)
		assert.Equal(t, "Carol", q.AskerName)
		assert.Equal(t, user.RoleParents, q.AskerRole)
		assert.Empty(t, q.TargetRole)
		assert.Empty(t, mail.Sent())

		events := notifier.Events()
		require.Len(t, events, 1)
		assert.Equal(t, core.EventQuestionUpdate, events[0].Name)
		assert.Equal(t, []question.Question{q}, svc.List(ctx))
	})

	t.Run("targeted", func(t *testing.T) {
		svc, _, mail := setup(t)

		q, err := svc.Create(ctx, carol, "回家作業怎麼做？", []string{user.RoleTeacher, user.RoleTherapist})
		require.NoError(t, err)
		assert.Equal(t, "teacher,therapist", q.TargetRole)
		assert.Equal(t, []string{user.RoleTeacher, user.RoleTherapist}, q.TargetRoles())

		// dave has no email
		sent := mail.Sent()
		require.Len(t, sent, 2)
		to := make([]string, 0, len(sent))
		for _, msg := range sent {
			require.Len(t, msg.To, 1)
			to = append(to, msg.To[0].Address)
			assert.Equal(t, "Carol 提出了新問題", msg.Subject)
			assert.Contains(t, msg.TextContent, "回家作業怎麼做？")
			assert.Contains(t, msg.HTMLContent, "回家作業怎麼做？")
		}
		assert.ElementsMatch(t, []string{"alice@test.tw", "bob@test.tw"}, to)
	})

	t.Run("targeted role without users", func(t *testing.T) {
		svc, _, mail := setup(t)
		_, err := svc.Create(ctx, alice, "請問家長", []string{"principal"})
		require.NoError(t, err)
		assert.Empty(t, mail.Sent())
	})
}

func TestService_Reply(t *testing.T) {
	ctx := context.Background()
	svc, notifier, _ := setup(t)

	q, err := svc.Create(ctx, carol, "明天要帶什麼？", nil)
	require.NoError(t, err)

	_, err = svc.Reply(ctx, alice, "q-0", "lol")
	assert.Equal(t, core.ErrNotFound, errors.Cause(err))

	answered, err := svc.Reply(ctx, alice, q.ID, "帶水壺")
	require.NoError(t, err)
	assert.Equal(t, question.StatusAnswered, answered.Status)
	assert.Equal(t, "Alice", answered.ReplierName)
	assert.Equal(t, "帶水壺", answered.Reply)
	assert.Equal(t, q.Question, answered.Question)

	// a later reply overwrites
	answered, err = svc.Reply(ctx, carol, q.ID, "好的")
	require.NoError(t, err)
	assert.Equal(t, "Carol", answered.ReplierName)
	assert.Equal(t, "好的", answered.Reply)
	assert.Equal(t, []question.Question{answered}, svc.List(ctx))

	assert.Len(t, notifier.Events(), 3)
}
