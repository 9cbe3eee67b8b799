package jobs

import (
	"context"
	"fmt"

	"github.com/accounthub/accounthub/internal/identity"
)

// EmailNotifier implements the lifecycle engine's Notifier by queueing mail
// tasks. Enqueueing is the synchronous part of delivery; actual sending
// happens in the worker.
type EmailNotifier struct {
	client  *Client
	orgName string
}

// NewEmailNotifier constructs an EmailNotifier.
func NewEmailNotifier(client *Client, orgName string) *EmailNotifier {
	return &EmailNotifier{client: client, orgName: orgName}
}

// SendInvite queues the onboarding email.
func (n *EmailNotifier) SendInvite(ctx context.Context, user *identity.User, link string) error {
	payload := SendEmailPayload{
		To:      user.Email,
		Subject: fmt.Sprintf("You have been invited to join %s", n.orgName),
		Body: fmt.Sprintf("Hello %s,\n\nYou have been invited to join %s. Follow this link to set up your account:\n\n%s\n",
			user.Name, n.orgName, link),
	}
	_, err := n.client.EnqueueSendEmail(ctx, payload)
	return err
}

// SendPasswordReset queues the recovery email.
func (n *EmailNotifier) SendPasswordReset(ctx context.Context, user *identity.User, link string) error {
	payload := SendEmailPayload{
		To:      user.Email,
		Subject: "Reset your password",
		Body: fmt.Sprintf("Hello %s,\n\nA password reset was requested for your account. Follow this link to choose a new password:\n\n%s\n\nIf you did not request this, you can ignore this email.\n",
			user.Name, link),
	}
	_, err := n.client.EnqueueSendEmail(ctx, payload)
	return err
}

var _ identity.Notifier = (*EmailNotifier)(nil)
