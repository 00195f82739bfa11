package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Eursukkul/consultation-booking/internal/models"
)

var errNoRecipient = errors.New("notify: owner address not configured")

// OwnerNotifier tells the consultant about new bookings and inquiries.
type OwnerNotifier struct {
	sender EmailSender
	to     string
}

func NewOwnerNotifier(sender EmailSender, ownerEmail string) *OwnerNotifier {
	return &OwnerNotifier{sender: sender, to: strings.TrimSpace(ownerEmail)}
}

func (n *OwnerNotifier) BookingCreated(ctx context.Context, b *models.Booking) error {
	if n.to == "" {
		return errNoRecipient
	}
	var body strings.Builder
	fmt.Fprintf(&body, "New consultation request\n\n")
	fmt.Fprintf(&body, "Name:     %s\n", b.Name)
	fmt.Fprintf(&body, "Business: %s\n", b.BusinessName)
	fmt.Fprintf(&body, "Email:    %s\n", b.Email)
	fmt.Fprintf(&body, "Phone:    %s\n", b.Phone)
	fmt.Fprintf(&body, "Slot:     %s %s (your time)\n", b.OriginDate, b.OriginTime)
	if b.ViewerDisplay != "" {
		fmt.Fprintf(&body, "Client:   %s [%s]\n", b.ViewerDisplay, b.ViewerTimezone)
	}
	fmt.Fprintf(&body, "Booking:  %s\n", b.ID)

	return n.sender.Send(ctx, EmailMessage{
		To:      n.to,
		Subject: fmt.Sprintf("Consultation booked: %s on %s at %s", b.BusinessName, b.OriginDate, b.OriginTime),
		Body:    body.String(),
	})
}

func (n *OwnerNotifier) ContactCreated(ctx context.Context, c *models.Contact) error {
	if n.to == "" {
		return errNoRecipient
	}
	body := fmt.Sprintf("New message from %s <%s>\n\n%s\n", c.Name, c.Email, c.Message)
	return n.sender.Send(ctx, EmailMessage{
		To:      n.to,
		Subject: "New contact inquiry from " + c.Name,
		Body:    body,
	})
}
