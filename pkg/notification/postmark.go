package notification

import (
	"context"
	"errors"
	"fmt"

	"github.com/mrz1836/postmark"
)

var (
	ErrInvalidConfig   = errors.New("notification.errors.invalid_config")
	ErrDeliveryFailed  = errors.New("notification.errors.delivery_failed")
	ErrUnknownReceiver = errors.New("notification.errors.unknown_receiver")
)

// Config holds Postmark delivery configuration. Tokens are required so a
// misconfigured deployment fails at startup rather than silently dropping
// review notifications.
type Config struct {
	PostmarkServerToken  string `env:"POSTMARK_SERVER_TOKEN,required"`
	PostmarkAccountToken string `env:"POSTMARK_ACCOUNT_TOKEN,required"`
	SenderEmail          string `env:"NOTIFICATION_SENDER_EMAIL,required"`
	SubjectPrefix        string `env:"NOTIFICATION_SUBJECT_PREFIX" envDefault:"[MenuKit]"`
}

// RecipientFunc resolves the owner email address for a restaurant.
type RecipientFunc func(ctx context.Context, restaurantID int64) (string, error)

type postmarkNotifier struct {
	client    *postmark.Client
	config    Config
	recipient RecipientFunc
}

// NewPostmarkNotifier creates a Postmark-backed Notifier. The recipient
// resolver maps restaurant IDs to owner addresses and is required.
func NewPostmarkNotifier(cfg Config, recipient RecipientFunc) (Notifier, error) {
	if cfg.PostmarkServerToken == "" {
		return nil, fmt.Errorf("%w: PostmarkServerToken is required", ErrInvalidConfig)
	}
	if cfg.PostmarkAccountToken == "" {
		return nil, fmt.Errorf("%w: PostmarkAccountToken is required", ErrInvalidConfig)
	}
	if cfg.SenderEmail == "" {
		return nil, fmt.Errorf("%w: SenderEmail is required", ErrInvalidConfig)
	}
	if recipient == nil {
		return nil, fmt.Errorf("%w: recipient resolver is required", ErrInvalidConfig)
	}

	return &postmarkNotifier{
		client:    postmark.NewClient(cfg.PostmarkServerToken, cfg.PostmarkAccountToken),
		config:    cfg,
		recipient: recipient,
	}, nil
}

func (n *postmarkNotifier) PaymentDecided(ctx context.Context, d Decision) error {
	to, err := n.recipient(ctx, d.RestaurantID)
	if err != nil {
		return errors.Join(ErrUnknownReceiver, err)
	}

	subject := fmt.Sprintf("%s Payment for %s approved", n.config.SubjectPrefix, d.PlanName)
	body := fmt.Sprintf(
		"Your payment of %d %s for the %s plan has been approved. The subscription is active.",
		d.Amount, d.Currency, d.PlanName,
	)
	if !d.Approved {
		subject = fmt.Sprintf("%s Payment for %s rejected", n.config.SubjectPrefix, d.PlanName)
		body = fmt.Sprintf(
			"Your payment of %d %s for the %s plan was rejected.",
			d.Amount, d.Currency, d.PlanName,
		)
		if d.AdminNotes != "" {
			body += " Reason: " + d.AdminNotes
		}
	}

	resp, err := n.client.SendEmail(ctx, postmark.Email{
		From:       n.config.SenderEmail,
		To:         to,
		Subject:    subject,
		TextBody:   body,
		Tag:        "payment-review",
		TrackOpens: true,
	})
	if err != nil {
		return errors.Join(ErrDeliveryFailed, err)
	}
	if resp.ErrorCode > 0 {
		return errors.Join(
			ErrDeliveryFailed,
			fmt.Errorf("postmark error: %d - %s", resp.ErrorCode, resp.Message),
		)
	}
	return nil
}
