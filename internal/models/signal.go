package models

import (
	"database/sql/driver"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// SignalColor is the author-declared sentiment of a signal.
type SignalColor string

const (
	ColorGreen  SignalColor = "green"
	ColorYellow SignalColor = "yellow"
	ColorRed    SignalColor = "red"
)

func (c SignalColor) Valid() bool {
	switch c {
	case ColorGreen, ColorYellow, ColorRed:
		return true
	}
	return false
}

// Tags is a short tag set stored as text[] on Postgres and as the array
// literal text elsewhere.
type Tags []string

func (t Tags) Value() (driver.Value, error) {
	if t == nil {
		return pq.StringArray{}.Value()
	}
	return pq.StringArray(t).Value()
}

func (t *Tags) Scan(src interface{}) error {
	return (*pq.StringArray)(t).Scan(src)
}

func (Tags) GormDBDataType(db *gorm.DB, _ *schema.Field) string {
	if db.Dialector.Name() == "postgres" {
		return "text[]"
	}
	return "text"
}

// Signal is a moderated report about a dating-conduct experience.
// The raw subject identifier is never stored, only its hash and mask.
type Signal struct {
	ID                    uuid.UUID    `gorm:"type:uuid;primaryKey" db:"id" json:"id"`
	AuthorID              uuid.UUID    `gorm:"type:uuid;not null;index" db:"author_id" json:"-"`
	SubjectFirstName      string       `gorm:"size:50;not null" db:"subject_first_name" json:"subject_first_name"`
	SubjectLastInitial    *string      `gorm:"size:1" db:"subject_last_initial" json:"subject_last_initial,omitempty"`
	SubjectIdentifierHash *string      `gorm:"size:64;index" db:"subject_identifier_hash" json:"-"`
	SubjectIdentifierMask *string      `gorm:"size:40" db:"subject_identifier_mask" json:"subject_identifier_mask,omitempty"`
	SubjectPlatform       *string      `gorm:"size:50" db:"subject_platform" json:"subject_platform,omitempty"`
	Description           string       `gorm:"type:text;not null" db:"description" json:"description"`
	GreenFlags            Tags         `db:"green_flags" json:"green_flags"`
	RedFlags              Tags         `db:"red_flags" json:"red_flags"`
	ImageRef              *string      `gorm:"size:512" db:"image_ref" json:"image_ref,omitempty"`
	OverallSignal         SignalColor  `gorm:"size:10;not null;index" db:"overall_signal" json:"overall_signal"`
	Status                SignalStatus `gorm:"size:20;not null;index" db:"status" json:"status"`
	GreenVotes            int          `gorm:"not null;default:0" db:"green_votes" json:"green_votes"`
	RedVotes              int          `gorm:"not null;default:0" db:"red_votes" json:"red_votes"`
	CommentCount          int          `gorm:"not null;default:0" db:"comment_count" json:"comment_count"`
	ViewCount             int          `gorm:"not null;default:0" db:"view_count" json:"view_count"`
	FlaggedCount          int          `gorm:"not null;default:0" db:"flagged_count" json:"-"`
	CreatedAt             time.Time    `gorm:"not null;index" db:"created_at" json:"created_at"`
	UpdatedAt             time.Time    `db:"updated_at" json:"updated_at"`
}

func (s *Signal) BeforeCreate(*gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
