// Package domain holds the payment-initiation entities shared by every
// product family: consents, payment submissions and the canonical
// initiation/risk shapes they are compared through.
package domain

import (
	"slices"
	"time"
)

// ConsentStatus represents the lifecycle state of a payment consent
type ConsentStatus string

const (
	StatusAwaitingAuthorisation ConsentStatus = "AwaitingAuthorisation"
	StatusAuthorised            ConsentStatus = "Authorised"
	StatusConsumed              ConsentStatus = "Consumed"
	StatusRejected              ConsentStatus = "Rejected"
)

// ReadRefundAccount values carried on a consent. When set to yes the
// submission response surfaces the debtor account the customer authorised.
const (
	ReadRefundAccountYes = "Yes"
	ReadRefundAccountNo  = "No"
)

// Consent is an authorised statement of intent to make a specific payment.
// Initiation, Risk and ExchangeRateInformation are fixed at creation and
// never change afterwards.
type Consent struct {
	ID          string
	APIClientID string
	Status      ConsentStatus

	Initiation              Initiation
	Risk                    Risk
	Charges                 []Charge
	ExchangeRateInformation *ExchangeRateInformation

	ReadRefundAccount         string
	AuthorisedDebtorAccountID *string

	CreationDateTime     time.Time
	StatusUpdateDateTime time.Time
}

func (c *Consent) IsAuthorised() bool {
	return c.Status == StatusAuthorised
}

func (c *Consent) IsAwaitingAuthorisation() bool {
	return c.Status == StatusAwaitingAuthorisation
}

// Authorise records the customer's approval and the account they chose to
// debit. The debtor account id is set exactly once, here.
func (c *Consent) Authorise(debtorAccountID string, at time.Time) error {
	if err := c.transition(StatusAuthorised); err != nil {
		return err
	}
	c.AuthorisedDebtorAccountID = &debtorAccountID
	c.StatusUpdateDateTime = at
	return nil
}

func (c *Consent) Reject(at time.Time) error {
	if err := c.transition(StatusRejected); err != nil {
		return err
	}
	c.StatusUpdateDateTime = at
	return nil
}

// Consume marks the consent as spent. Only an authorised consent can be
// consumed, and consumption is terminal.
func (c *Consent) Consume(at time.Time) error {
	if err := c.transition(StatusConsumed); err != nil {
		return err
	}
	c.StatusUpdateDateTime = at
	return nil
}

func (c *Consent) transition(target ConsentStatus) error {
	if err := c.canTransitionTo(target); err != nil {
		return err
	}
	c.Status = target
	return nil
}

// Transitions are monotonic: AwaitingAuthorisation may become Authorised or
// Rejected, Authorised may become Consumed, and nothing else is legal.
func (c *Consent) canTransitionTo(target ConsentStatus) error {
	switch c.Status {
	case StatusAwaitingAuthorisation:
		return c.allow(target, StatusAuthorised, StatusRejected)
	case StatusAuthorised:
		return c.allow(target, StatusConsumed)
	}
	return ErrInvalidTransition
}

func (c *Consent) allow(target ConsentStatus, allowed ...ConsentStatus) error {
	if slices.Contains(allowed, target) {
		return nil
	}
	return ErrInvalidTransition
}

func (c *Consent) IsTerminal() bool {
	switch c.Status {
	case StatusConsumed, StatusRejected:
		return true
	default:
		return false
	}
}
