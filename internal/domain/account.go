package domain

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

type Account struct {
	ID              uuid.UUID      `db:"id" json:"id"`
	Email           string         `db:"email" json:"email"`
	DisplayName     string         `db:"display_name" json:"display_name"`
	DateOfBirth     sql.NullString `db:"date_of_birth" json:"date_of_birth"`
	OAuthSubject    sql.NullString `db:"oauth_subject" json:"-"`
	EmailVerified   bool           `db:"email_verified" json:"email_verified"`
	ProfileImageRef sql.NullString `db:"profile_image_ref" json:"profile_image_ref"`

	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt time.Time  `db:"updated_at" json:"updated_at"`
	DeletedAt *time.Time `db:"deleted_at" json:"-"`
}
