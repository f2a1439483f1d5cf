package entities

import "time"

// NotificationChannel is the delivery medium of a notification
type NotificationChannel string

const (
	ChannelEmail NotificationChannel = "email"
	ChannelSMS   NotificationChannel = "sms"
)

// Notification is a queued outbound message
type Notification struct {
	ID        string              `json:"id"`
	Channel   NotificationChannel `json:"channel"`
	To        string              `json:"to"`
	Subject   string              `json:"subject,omitempty"`
	Body      string              `json:"body"`
	CreatedAt time.Time           `json:"created_at"`
}
