package message_test

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/specedu/caseboard/core"
	"github.com/specedu/caseboard/core/message"
	"github.com/specedu/caseboard/core/user"
	testutil "github.com/specedu/caseboard/tests"
)

type summarizerFunc func(ctx context.Context, prompt string) (string, error)

func (f summarizerFunc) Summarize(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

func TestBuildPrompt(t *testing.T) {
	prompt := message.BuildPrompt([]message.Message{
		{UserName: "Bob", Role: user.RoleTeacher, Message: "今天很棒"},
		{UserName: "Carol", Role: user.RoleParents, Message: "謝謝老師"},
	})
	assert.Contains(t, prompt, "---\nteacher Bob 說: 今天很棒\nparents Carol 說: 謝謝老師\n---")
	assert.True(t, strings.HasPrefix(prompt, "請扮演一位專業的特教個案管理師。"))
	assert.True(t, strings.HasSuffix(prompt, "(100字以內)："))
}

func TestService(t *testing.T) {
	ctx := context.Background()
	bob := user.Identity{Username: "bob", Role: user.RoleTeacher, Name: "Bob"}

	var prompts []string
	var summaryErr error
	summarizer := summarizerFunc(func(_ context.Context, prompt string) (string, error) {
		prompts = append(prompts, prompt)
		if summaryErr != nil {
			return "", summaryErr
		}
		return "- 重點", nil
	})

	notifier := &testutil.Notifier{}
	svc := message.NewService(testutil.NewTables(), notifier, summarizer, testutil.NewLogger(t))

	t.Run("nothing to summarize", func(t *testing.T) {
		summary, err := svc.Summary(ctx)
		require.NoError(t, err)
		assert.Equal(t, message.NothingToSummarize, summary)
		assert.Empty(t, prompts)
	})

	t.Run("create", func(t *testing.T) {
		msg, err := svc.Create(ctx, bob, "第一則")
		require.NoError(t, err)
		assert.Equal(t, "Bob", msg.UserName)
		assert.Equal(t, user.RoleTeacher, msg.Role)

		events := notifier.Events()
		require.Len(t, events, 1)
		assert.Equal(t, core.EventMessageUpdate, events[0].Name)
		assert.Equal(t, msg, events[0].Data)
		assert.Equal(t, []message.Message{msg}, svc.List(ctx))
	})

	t.Run("summary window", func(t *testing.T) {
		for i := 2; i <= 12; i++ {
			_, err := svc.Create(ctx, bob, fmt.Sprintf("第%d則", i))
			require.NoError(t, err)
		}
		summary, err := svc.Summary(ctx)
		require.NoError(t, err)
		assert.Equal(t, "- 重點", summary)

		require.Len(t, prompts, 1)
		assert.NotContains(t, prompts[0], "第一則")
		assert.NotContains(t, prompts[0], "第2則")
		assert.Contains(t, prompts[0], "第3則")
		assert.Contains(t, prompts[0], "第12則")
		assert.Equal(t, message.SummaryWindow, strings.Count(prompts[0], " 說: "))
	})

	t.Run("summarizer failure", func(t *testing.T) {
		summaryErr = errors.New("quota exceeded")
		defer func() { summaryErr = nil }()

		_, err := svc.Summary(ctx)
		require.Error(t, err)
		assert.True(t, core.IsUpstream(err))
		assert.Contains(t, err.Error(), "quota exceeded")
	})
}
