package model

type PairingStatus string

const (
	PairingStatusPending PairingStatus = "pending"
	PairingStatusLinked  PairingStatus = "linked"
	PairingStatusExpired PairingStatus = "expired"
)

type SubscriptionStatus string

const (
	SubscriptionStatusActive   SubscriptionStatus = "active"
	SubscriptionStatusPastDue  SubscriptionStatus = "past_due"
	SubscriptionStatusCanceled SubscriptionStatus = "canceled"
)
