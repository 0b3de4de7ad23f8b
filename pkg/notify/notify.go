// Package notify delivers one-time passwords to users. Production wires
// an SMS gateway; development logs the code instead of sending it.
package notify

import (
	"context"

	"go.uber.org/zap"
)

type Notifier interface {
	SendOTP(ctx context.Context, phone, code string) error
}

// LogNotifier writes OTPs to the application log. Development only.
type LogNotifier struct {
	Log *zap.Logger
}

func (n *LogNotifier) SendOTP(_ context.Context, phone, code string) error {
	n.Log.Info("otp issued", zap.String("phone", phone), zap.String("code", code))
	return nil
}
