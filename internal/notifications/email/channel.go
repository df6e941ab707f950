package email

import (
	"context"

	"photoalbum/internal/types"
)

// Channel renders a Message and sends it to the fixed operator address.
type Channel struct {
	provider  Provider
	renderer  *Renderer
	recipient string
	logger    types.Logger
}

// NewChannel creates a Channel delivering to recipient.
func NewChannel(provider Provider, renderer *Renderer, recipient string, logger types.Logger) *Channel {
	return &Channel{
		provider:  provider,
		renderer:  renderer,
		recipient: recipient,
		logger:    logger,
	}
}

// Deliver renders and sends msg, returning the provider message id. Errors
// are returned to the caller, which decides whether they matter; the
// dispatcher only logs them.
func (c *Channel) Deliver(ctx context.Context, msg Message) (string, error) {
	rendered, err := c.renderer.Render(msg)
	if err != nil {
		c.logger.Error("template rendering failed", "kind", string(msg.Kind), "error", err.Error())
		return "", types.NewAppError(types.ErrCodeInternalUnexpected, "render email", err)
	}

	msgID, err := c.provider.Send(ctx, types.SendInput{
		To:          c.recipient,
		From:        c.renderer.Sender(),
		Subject:     rendered.Subject,
		BodyHTML:    rendered.BodyHTML,
		BodyText:    rendered.BodyText,
		ReferenceID: msg.ReferenceID,
	})
	if err != nil {
		if IsBlocklistError(err) {
			c.logger.Warn("recipient blocked by provider",
				"dest", RedactEmail(c.recipient),
				"kind", string(msg.Kind),
			)
		}
		return "", err
	}

	c.logger.Info("email sent",
		"dest", RedactEmail(c.recipient),
		"kind", string(msg.Kind),
		"provider_message_id", msgID,
	)
	return msgID, nil
}
