package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

// AnonymousSession is used when neither a session nor a user is on the context.
const AnonymousSession = "anonymous"

// Warning is a non-fatal, acknowledgeable message shown to the user once
// per session and Key.
type Warning struct {
	Name    string `json:"name"`
	Key     string `json:"key"`
	Message string `json:"message"`
}

// Warner surfaces warnings. It only fails when the acknowledgement store does.
type Warner interface {
	Warn(ctx context.Context, w Warning) error
}

// Store records acknowledgements. Acknowledge reports true only for the first
// call per (session, key) within ttl.
type Store interface {
	Acknowledge(ctx context.Context, sessionID string, w Warning, ttl time.Duration) (bool, error)
}

// Acknowledgement is a warning already shown to a session.
type Acknowledgement struct {
	ID        snowflake.ID `gorm:"primaryKey"`
	SessionID string       `gorm:"type:varchar(128);not null;uniqueIndex:ux_user_warnings_session_key,priority:1"`
	Key       string       `gorm:"column:warning_key;type:varchar(255);not null;uniqueIndex:ux_user_warnings_session_key,priority:2"`
	Name      string       `gorm:"type:varchar(128);not null"`
	ExpiresAt time.Time    `gorm:"not null;index"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Acknowledgement) TableName() string { return "user_warnings" }

var (
	ErrInvalidWarning = errors.New("invalid_warning")
	ErrInvalidSession = errors.New("invalid_session")
)
