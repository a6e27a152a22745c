package messenger

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/MixinNetwork/mixin/logger"
	"github.com/MixinNetwork/nfo-solana/chain"
	"github.com/fox-one/mixin-sdk-go"
	"github.com/gofrs/uuid"
)

type sender interface {
	SendMessage(ctx context.Context, message *mixin.MessageRequest) error
}

// Notifier posts the result lines of the tools to a Mixin Messenger
// conversation through the configured bot.
type Notifier struct {
	client         sender
	conversationId string
}

// NewNotifier returns nil without error when no messenger bot is configured.
func NewNotifier(conf *chain.MessengerConfiguration) (*Notifier, error) {
	if conf.ClientId == "" {
		return nil, nil
	}
	if _, err := uuid.FromString(conf.ConversationId); err != nil {
		return nil, fmt.Errorf("invalid conversation id %s", conf.ConversationId)
	}
	s := &mixin.Keystore{
		ClientID:   conf.ClientId,
		SessionID:  conf.SessionId,
		PrivateKey: conf.PrivateKey,
		PinToken:   conf.PinToken,
	}
	client, err := mixin.NewFromKeystore(s)
	if err != nil {
		return nil, err
	}
	return &Notifier{
		client:         client,
		conversationId: conf.ConversationId,
	}, nil
}

// Notify is idempotent per trace id, the message id is derived from it.
func (n *Notifier) Notify(ctx context.Context, traceId, text string) error {
	mr := &mixin.MessageRequest{
		ConversationID: n.conversationId,
		Category:       mixin.MessageCategoryPlainText,
		MessageID:      mixin.UniqueConversationID(n.conversationId, traceId),
		Data:           base64.RawURLEncoding.EncodeToString([]byte(text)),
	}
	err := n.client.SendMessage(ctx, mr)
	logger.Verbosef("Notifier.Notify(%s, %s) => %v\n", n.conversationId, traceId, err)
	return err
}
