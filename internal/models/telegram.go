package models

import "time"

// TelegramConfig holds Telegram notification configuration.
type TelegramConfig struct {
	BotToken string
	ChatID   string
}

// ExportNotification holds the data for an export notification.
type ExportNotification struct {
	Server    string
	Scope     Scope
	Target    string
	Delivery  DeliveryMode
	StartTime time.Time
	Duration  time.Duration
	Bytes     int64

	// Error info (if the dump tool failed).
	ErrorMessage string
}

// Success reports whether the dump finished without error.
func (n ExportNotification) Success() bool {
	return n.ErrorMessage == ""
}

// TelegramResult holds the result of a Telegram notification.
type TelegramResult struct {
	MessageSent bool
	Error       error
}
