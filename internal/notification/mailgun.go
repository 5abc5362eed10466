package notification

import (
	"context"
	"fmt"

	"github.com/mailgun/mailgun-go/v4"
	"go.uber.org/zap"
)

// Notifier tells a buyer that their payment went through.
type Notifier interface {
	SendPaymentReceipt(ctx context.Context, to string, amount float64, transactionID string) error
}

type MailgunNotifier struct {
	mg     mailgun.Mailgun
	sender string
	logger *zap.Logger
}

func NewMailgunNotifier(domain, apiKey, sender string, logger *zap.Logger) *MailgunNotifier {
	return &MailgunNotifier{
		mg:     mailgun.NewMailgun(domain, apiKey),
		sender: sender,
		logger: logger,
	}
}

func (n *MailgunNotifier) SendPaymentReceipt(ctx context.Context, to string, amount float64, transactionID string) error {
	subject := "Your bdHomeFinders payment"
	body := fmt.Sprintf("We received your payment of $%.2f.\nTransaction: %s\n", amount, transactionID)

	m := n.mg.NewMessage(n.sender, subject, body, to)
	_, id, err := n.mg.Send(ctx, m)
	if err != nil {
		return fmt.Errorf("send payment receipt: %w", err)
	}
	n.logger.Info("payment receipt sent", zap.String("to", to), zap.String("message_id", id))
	return nil
}

// Nop drops every notification.
type Nop struct{}

func (Nop) SendPaymentReceipt(context.Context, string, float64, string) error { return nil }
