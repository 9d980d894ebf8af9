package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/AnshRaj112/therapy-booking-backend/internal/events"
	"github.com/AnshRaj112/therapy-booking-backend/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// ErrPermanent marks failures that redelivery cannot fix. Such messages are dead-lettered at once.
var ErrPermanent = errors.New("permanent failure")

type userLookup interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
}

// Mailer sends one plain-text email.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// Notifier turns domain events into client emails.
type Notifier struct {
	users  userLookup
	mailer Mailer
}

func NewNotifier(users userLookup, mailer Mailer) *Notifier {
	return &Notifier{users: users, mailer: mailer}
}

// Handle emails the client named by ev. Unknown event types are ignored.
func (n *Notifier) Handle(ctx context.Context, ev events.Event) error {
	if !events.Known(ev.Type) {
		return nil
	}
	clientID, err := primitive.ObjectIDFromHex(ev.ClientID)
	if err != nil {
		return fmt.Errorf("%w: event %s has no valid client id", ErrPermanent, ev.ID)
	}
	user, err := n.users.GetByID(ctx, clientID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return fmt.Errorf("%w: client %s not found", ErrPermanent, ev.ClientID)
		}
		return fmt.Errorf("load client: %w", err)
	}
	if strings.TrimSpace(user.Email) == "" {
		return fmt.Errorf("%w: client %s has no email", ErrPermanent, ev.ClientID)
	}

	subject, body := Compose(ev, user.Name)
	if err := n.mailer.Send(ctx, user.Email, subject, body); err != nil {
		return fmt.Errorf("send %s email: %w", ev.Type, err)
	}
	return nil
}

// Compose renders the subject and body for a known event.
func Compose(ev events.Event, name string) (subject, body string) {
	greeting := "Hello,"
	if name = strings.TrimSpace(name); name != "" {
		greeting = "Hello " + name + ","
	}
	when := ev.Date
	if ev.Time != "" {
		when += " at " + ev.Time
	}

	var b strings.Builder
	b.WriteString(greeting + "\n\n")
	switch ev.Type {
	case events.SessionBooked:
		subject = "Your session request has been received"
		fmt.Fprintf(&b, "We received your %s session booking for %s.\n", sessionKind(ev.SessionType), when)
		if ev.Amount > 0 {
			fmt.Fprintf(&b, "Your payment of ₹%.2f is awaiting verification. We will email you once it has been reviewed.\n", ev.Amount)
		}
	case events.PaymentApproved:
		subject = "Payment verified: your session is confirmed"
		fmt.Fprintf(&b, "Your payment has been verified and your %s session on %s is confirmed.\n", sessionKind(ev.SessionType), when)
	case events.PaymentRejected:
		subject = "We could not verify your payment"
		fmt.Fprintf(&b, "We could not verify the payment for your %s session on %s.\n", sessionKind(ev.SessionType), when)
		b.WriteString("Please check the transaction id you submitted or contact us for help.\n")
	}
	b.WriteString("\nReference: " + ev.SessionID + "\n")
	return subject, b.String()
}

func sessionKind(t string) string {
	if t == "" {
		return "therapy"
	}
	return t
}
