package mailer

import (
	"context"
	"fmt"
	"log"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
)

// Notifier is the notification boundary of the matching core. Every call is
// fire-and-forget: delivery failures are logged, never propagated into the
// state transitions that triggered them.
type Notifier interface {
	NotifyInvitation(ctx context.Context, carrierRequestID string)
	NotifyOfferAccepted(ctx context.Context, carrierRequestID string)
	NotifyOfferRejected(ctx context.Context, carrierRequestID string)
}

// Contact is what the mailer needs to know about an invitation's carrier.
type Contact struct {
	Email       string
	CompanyName string
	RequestRef  string // short reference of the transport request
}

// ContactLookup resolves a carrier request ID to the carrier's contact data.
type ContactLookup interface {
	CarrierContact(ctx context.Context, carrierRequestID string) (*Contact, error)
}

// SESNotifier sends carrier notifications through Amazon SES.
type SESNotifier struct {
	client    *sesv2.Client
	sender    string
	offerBase string // base URL for the public offer submission page
	contacts  ContactLookup
}

// NewSESNotifier loads the default AWS config for the region and returns a
// ready notifier.
func NewSESNotifier(ctx context.Context, region, sender, offerBase string, contacts ContactLookup) (*SESNotifier, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("mailer: load aws config: %w", err)
	}
	return &SESNotifier{
		client:    sesv2.NewFromConfig(cfg),
		sender:    sender,
		offerBase: offerBase,
		contacts:  contacts,
	}, nil
}

func (n *SESNotifier) NotifyInvitation(ctx context.Context, carrierRequestID string) {
	contact, err := n.contacts.CarrierContact(ctx, carrierRequestID)
	if err != nil {
		log.Printf("mailer: invitation %s: lookup failed: %v", carrierRequestID, err)
		return
	}
	subject := fmt.Sprintf("New transport request %s", contact.RequestRef)
	body := fmt.Sprintf(
		"Hello %s,\n\nA transport request matching your profile is open for offers.\nSubmit your offer here: %s/offers/%s\n",
		contact.CompanyName, n.offerBase, carrierRequestID,
	)
	n.send(ctx, carrierRequestID, contact.Email, subject, body)
}

func (n *SESNotifier) NotifyOfferAccepted(ctx context.Context, carrierRequestID string) {
	contact, err := n.contacts.CarrierContact(ctx, carrierRequestID)
	if err != nil {
		log.Printf("mailer: accepted %s: lookup failed: %v", carrierRequestID, err)
		return
	}
	subject := fmt.Sprintf("Offer accepted for transport request %s", contact.RequestRef)
	body := fmt.Sprintf(
		"Hello %s,\n\nYour offer for transport request %s was accepted. The customer will be in touch with pickup details.\n",
		contact.CompanyName, contact.RequestRef,
	)
	n.send(ctx, carrierRequestID, contact.Email, subject, body)
}

func (n *SESNotifier) NotifyOfferRejected(ctx context.Context, carrierRequestID string) {
	contact, err := n.contacts.CarrierContact(ctx, carrierRequestID)
	if err != nil {
		log.Printf("mailer: rejected %s: lookup failed: %v", carrierRequestID, err)
		return
	}
	subject := fmt.Sprintf("Transport request %s was awarded elsewhere", contact.RequestRef)
	body := fmt.Sprintf(
		"Hello %s,\n\nTransport request %s has been awarded to another carrier. Thank you for your offer.\n",
		contact.CompanyName, contact.RequestRef,
	)
	n.send(ctx, carrierRequestID, contact.Email, subject, body)
}

func (n *SESNotifier) send(ctx context.Context, carrierRequestID, to, subject, body string) {
	_, err := n.client.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(n.sender),
		Destination:      &types.Destination{ToAddresses: []string{to}},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(subject)},
				Body: &types.Body{
					Text: &types.Content{Data: aws.String(body)},
				},
			},
		},
	})
	if err != nil {
		log.Printf("mailer: send to %s for %s failed: %v", to, carrierRequestID, err)
	}
}
