package usecases

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"farmvet-auth.backend/internal/domain/entities"
	"farmvet-auth.backend/pkg/logger"
)

const (
	subjectEmailVerification = "Verify your email"
	subjectPhoneVerification = "Phone Verification Code"
	subjectLoginOTP          = "Your login code"
	subjectPasswordReset     = "Password Reset Request"

	smsFallbackNote = "(SMS disabled in development mode)"
)

// SMSPolicy decides how phone codes reach the user
type SMSPolicy struct {
	Enabled bool
	// EmailFallback delivers phone codes by email while SMS is disabled
	EmailFallback bool
}

// Notifier formats account messages and routes them to the dispatcher
type Notifier struct {
	dispatcher NotificationDispatcher
	sms        SMSPolicy
	tokens     entities.TokenPolicy
}

// NewNotifier creates a new notifier
func NewNotifier(dispatcher NotificationDispatcher, sms SMSPolicy, tokens entities.TokenPolicy) *Notifier {
	return &Notifier{dispatcher: dispatcher, sms: sms, tokens: tokens}
}

// SendEmailVerification sends the email verification code
func (n *Notifier) SendEmailVerification(ctx context.Context, email, code string) {
	body := fmt.Sprintf("Your email verification code is: %s\n\n%s",
		code, expiryLine("code", n.tokens.TTL(entities.PurposeEmailVerification)))
	n.dispatcher.SendEmail(ctx, email, subjectEmailVerification, body)
}

// SendPhoneVerification sends the phone verification code by SMS or through the email fallback
func (n *Notifier) SendPhoneVerification(ctx context.Context, phone, email, code string) {
	n.sendPhoneCode(ctx, phone, email,
		fmt.Sprintf("Your phone verification code is: %s", code),
		n.tokens.TTL(entities.PurposePhoneVerification))
}

// SendLoginCodes sends the email login code and, when present, the phone login code
func (n *Notifier) SendLoginCodes(ctx context.Context, email, phone, emailCode, phoneCode string) {
	ttl := n.tokens.TTL(entities.PurposeLoginOTP)
	body := fmt.Sprintf("Your login code is: %s\n\n%s", emailCode, expiryLine("code", ttl))
	n.dispatcher.SendEmail(ctx, email, subjectLoginOTP, body)
	if phoneCode == "" {
		return
	}
	n.sendPhoneCode(ctx, phone, email, fmt.Sprintf("Your login phone code is: %s", phoneCode), ttl)
}

// SendPasswordReset sends the reset token
func (n *Notifier) SendPasswordReset(ctx context.Context, email, fullName, token string) {
	body := fmt.Sprintf("Hello %s,\n\nUse the following token to reset your password: %s\n\n%s",
		fullName, token, expiryLine("token", n.tokens.TTL(entities.PurposePasswordReset)))
	n.dispatcher.SendEmail(ctx, email, subjectPasswordReset, body)
}

func (n *Notifier) sendPhoneCode(ctx context.Context, phone, email, text string, ttl time.Duration) {
	switch {
	case n.sms.Enabled:
		n.dispatcher.SendSMS(ctx, phone, text)
	case n.sms.EmailFallback:
		body := text + "\n\n" + expiryLine("code", ttl) + "\n\n" + smsFallbackNote
		n.dispatcher.SendEmail(ctx, email, subjectPhoneVerification, body)
	default:
		logger.Warn(ctx, "SMS disabled and email fallback off, phone code not delivered",
			zap.String("phone", phone),
		)
	}
}

func expiryLine(noun string, ttl time.Duration) string {
	return fmt.Sprintf("This %s will expire in %d minutes.", noun, int(ttl.Minutes()))
}
