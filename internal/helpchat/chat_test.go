package helpchat

import (
	"testing"
	"time"

	pkgerrors "github.com/angelmondragon/storefront-core/pkg/errors"
	"github.com/stretchr/testify/require"
)

func fixedChat() *Chat {
	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	return New(
		WithRand(func(int) int { return 1 }),
		WithClock(func() time.Time { return at }),
	)
}

func TestNewChatStartsWithGreeting(t *testing.T) {
	view := fixedChat().View()
	require.Empty(t, view.Operator)
	require.Len(t, view.Messages, 1)
	require.Equal(t, Greeting, view.Messages[0].Text)
	require.Equal(t, FromBot, view.Messages[0].From)
}

func TestSendReadyQuestion(t *testing.T) {
	chat := fixedChat()

	reply, err := chat.Send("  Order status ")
	require.NoError(t, err)
	require.Equal(t, "Open your profile to see your order status.", reply.Text)

	view := chat.View()
	require.Equal(t, operatorNames[1], view.Operator)
	require.Len(t, view.Messages, 3)
	require.Equal(t, "Order status", view.Messages[1].Text)
	require.Equal(t, FromUser, view.Messages[1].From)
}

func TestSendUnknownQuestionUsesFallback(t *testing.T) {
	chat := fixedChat()
	reply, err := chat.Send("order status")
	require.NoError(t, err)
	require.Equal(t, fallbackReplies[1], reply.Text)
}

func TestOperatorAssignedOnce(t *testing.T) {
	calls := 0
	chat := New(WithRand(func(n int) int {
		calls++
		return calls % n
	}))
	_, err := chat.Send("hi")
	require.NoError(t, err)
	first := chat.View().Operator

	_, err = chat.Send("hello again")
	require.NoError(t, err)
	require.Equal(t, first, chat.View().Operator)
}

func TestSendBlankRejected(t *testing.T) {
	chat := fixedChat()
	_, err := chat.Send("   ")
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	require.Len(t, chat.View().Messages, 1)
}

func TestReset(t *testing.T) {
	chat := fixedChat()
	_, err := chat.Send("How do I register?")
	require.NoError(t, err)

	chat.Reset()
	view := chat.View()
	require.Empty(t, view.Operator)
	require.Len(t, view.Messages, 1)
	require.Equal(t, Greeting, view.Messages[0].Text)
}
