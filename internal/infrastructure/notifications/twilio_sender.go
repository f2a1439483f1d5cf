package notifications

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"

	"farmvet-auth.backend/internal/domain/entities"
)

type messageCreator interface {
	CreateMessage(params *twilioApi.CreateMessageParams) (*twilioApi.ApiV2010Message, error)
}

// TwilioSender delivers SMS notifications through the Twilio REST API
type TwilioSender struct {
	api        messageCreator
	fromNumber string
}

// NewTwilioSender builds a sender whose HTTP calls give up after timeout
func NewTwilioSender(accountSID, authToken, fromNumber string, timeout time.Duration) *TwilioSender {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})
	if timeout > 0 {
		client.SetTimeout(timeout)
	}
	return &TwilioSender{api: client.Api, fromNumber: fromNumber}
}

// Send returns once Twilio answers or ctx is done, whichever comes first
func (t *TwilioSender) Send(ctx context.Context, n *entities.Notification) error {
	if n.To == "" {
		return errors.New("recipient is required")
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("failed to send SMS: %w", err)
	}
	params := &twilioApi.CreateMessageParams{}
	params.SetTo(n.To)
	params.SetFrom(t.fromNumber)
	params.SetBody(n.Body)

	// the twilio client takes no context; its http timeout ends the call
	done := make(chan error, 1)
	go func() {
		_, err := t.api.CreateMessage(params)
		done <- err
	}()

	select {
	case <-ctx.Done():
		return fmt.Errorf("failed to send SMS: %w", ctx.Err())
	case err := <-done:
		if err != nil {
			return fmt.Errorf("failed to send SMS: %w", err)
		}
		return nil
	}
}
