package command

import (
	"github.com/google/uuid"
	"github.com/invoicing/backend/internal/application/uow"
	"github.com/invoicing/backend/internal/domain/shared"
	"github.com/invoicing/backend/internal/infrastructure/notification"
)

type pending struct {
	sender notification.Sender
	msg    notification.Message
}

// Deps carries what the bus injected for one dispatch. Accessors fail
// with a service error when the handler did not declare the capability.
type Deps struct {
	needs   Capability
	scope   uow.Scope
	email   notification.Sender
	sms     notification.Sender
	user    *uuid.UUID
	company *uuid.UUID
	outbox  []pending
}

// Scope returns the open unit of work
func (d *Deps) Scope() (uow.Scope, error) {
	if d.scope == nil {
		return nil, shared.ServiceFailure("handler has no unit of work")
	}
	return d.scope, nil
}

// User returns the acting user's ID
func (d *Deps) User() (uuid.UUID, error) {
	if d.user == nil {
		return uuid.Nil, shared.ServiceFailure("handler has no acting user")
	}
	return *d.user, nil
}

// Company returns the company the actor is acting for
func (d *Deps) Company() (uuid.UUID, error) {
	if d.company == nil {
		return uuid.Nil, shared.ServiceFailure("handler has no company context")
	}
	return *d.company, nil
}

// Email queues an email, delivered after commit
func (d *Deps) Email(to, subject, body string) error {
	if d.email == nil {
		return shared.ServiceFailure("handler has no email sender")
	}
	d.outbox = append(d.outbox, pending{
		sender: d.email,
		msg:    notification.Message{Channel: notification.ChannelEmail, To: to, Subject: subject, Body: body},
	})
	return nil
}

// SMS queues a text message, delivered after commit
func (d *Deps) SMS(to, body string) error {
	if d.sms == nil {
		return shared.ServiceFailure("handler has no sms sender")
	}
	d.outbox = append(d.outbox, pending{
		sender: d.sms,
		msg:    notification.Message{Channel: notification.ChannelSMS, To: to, Body: body},
	})
	return nil
}
