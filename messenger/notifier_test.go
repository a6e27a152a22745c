package messenger

import (
	"context"
	"encoding/base64"
	"testing"

	"github.com/MixinNetwork/nfo-solana/chain"
	"github.com/fox-one/mixin-sdk-go"
	"github.com/stretchr/testify/require"
)

type recordingSender struct {
	messages []*mixin.MessageRequest
}

func (rs *recordingSender) SendMessage(ctx context.Context, message *mixin.MessageRequest) error {
	rs.messages = append(rs.messages, message)
	return nil
}

func TestNewNotifierDisabled(t *testing.T) {
	require := require.New(t)

	n, err := NewNotifier(&chain.MessengerConfiguration{})
	require.NoError(err)
	require.Nil(n)

	_, err = NewNotifier(&chain.MessengerConfiguration{ClientId: "7000103413", ConversationId: "general"})
	require.ErrorContains(err, "invalid conversation id")
}

func TestNotify(t *testing.T) {
	require := require.New(t)

	rs := &recordingSender{}
	n := &Notifier{client: rs, conversationId: "d6f2a6d1-0f7a-4d43-9a8e-1e1d3b5e0f60"}
	traceId := "6b1f0b55-5d2c-4bde-9d3e-53c4d6e2e001"

	require.NoError(n.Notify(context.Background(), traceId, "Created NFT!"))
	require.NoError(n.Notify(context.Background(), traceId, "Created NFT!"))
	require.Len(rs.messages, 2)

	msg := rs.messages[0]
	require.Equal(mixin.MessageCategoryPlainText, msg.Category)
	require.Equal(n.conversationId, msg.ConversationID)
	require.Equal(rs.messages[1].MessageID, msg.MessageID)
	require.NotEqual(traceId, msg.MessageID)

	text, err := base64.RawURLEncoding.DecodeString(msg.Data)
	require.NoError(err)
	require.Equal("Created NFT!", string(text))
}
