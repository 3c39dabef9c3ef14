package model

import (
	"time"
)

type Video struct {
	ID         string    `db:"id" json:"id"`
	Title      string    `db:"title" json:"title"`
	PlaybackID string    `db:"playback_id" json:"playbackId"`
	Premium    bool      `db:"premium" json:"premium"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
}
