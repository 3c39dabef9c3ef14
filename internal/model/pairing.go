package model

import (
	"time"
)

type DevicePairing struct {
	ID             string        `db:"id" json:"id"`
	DeviceCodeHash string        `db:"device_code_hash" json:"-"`
	UserCode       string        `db:"user_code" json:"userCode"`
	Status         PairingStatus `db:"status" json:"status"`
	UserID         *string       `db:"user_id" json:"userId,omitempty"`
	DeviceType     *string       `db:"device_type" json:"deviceType,omitempty"`
	LinkedAt       *time.Time    `db:"linked_at" json:"linkedAt,omitempty"`
	ConsumedAt     *time.Time    `db:"consumed_at" json:"consumedAt,omitempty"`
	ExpiresAt      time.Time     `db:"expires_at" json:"expiresAt"`
	CreatedAt      time.Time     `db:"created_at" json:"createdAt"`
}

// Expired reports whether the pairing window has passed, regardless of the
// stored status column.
func (p *DevicePairing) Expired(now time.Time) bool {
	return now.After(p.ExpiresAt)
}

type CreateDevicePairingParams struct {
	ID             string
	DeviceCodeHash string
	UserCode       string
	DeviceType     *string
	ExpiresAt      time.Time
}
