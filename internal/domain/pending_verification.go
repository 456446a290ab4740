package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// PendingAccountData is the signup snapshot carried by a verification record
// for an account that does not exist yet. Login codes carry none.
type PendingAccountData struct {
	DisplayName string `json:"display_name"`
	DateOfBirth string `json:"date_of_birth"`
}

type PendingAccountSnapshot struct {
	Data *PendingAccountData
}

// Value implements driver.Valuer for storing the snapshot as a JSON column.
func (s PendingAccountSnapshot) Value() (driver.Value, error) {
	if s.Data == nil {
		return nil, nil
	}
	return json.Marshal(s.Data)
}

// Scan implements sql.Scanner for reading the snapshot back from the DB.
func (s *PendingAccountSnapshot) Scan(value interface{}) error {
	if value == nil {
		s.Data = nil
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return fmt.Errorf("unsupported type for PendingAccountSnapshot: %T", value)
	}

	s.Data = &PendingAccountData{}
	return json.Unmarshal(bytes, s.Data)
}

type PendingVerification struct {
	ID             uuid.UUID              `db:"id"`
	Email          string                 `db:"email"`
	Code           string                 `db:"code"`
	PendingAccount PendingAccountSnapshot `db:"pending_account"`
	Consumed       bool                   `db:"consumed"`
	CreatedAt      time.Time              `db:"created_at"`
	ExpiresAt      time.Time              `db:"expires_at"`
}

// Usable reports whether the record can still satisfy a verification attempt.
func (p *PendingVerification) Usable(now time.Time) bool {
	return !p.Consumed && now.Before(p.ExpiresAt)
}
