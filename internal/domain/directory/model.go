package directory

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
)

// StringList decodes from either a JSON array of strings or a lone
// string, which clients send for single-valued fields.
type StringList []string

func (s *StringList) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var one string
		if err := json.Unmarshal(data, &one); err != nil {
			return err
		}
		*s = StringList{one}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return err
	}
	*s = many
	return nil
}

// Doctor maps to the doctors table. A profile exists independently of a
// login account; LinkedUserID is set once the doctor registers.
type Doctor struct {
	ID             uuid.UUID              `db:"id" json:"id"`
	FirstName      string                 `db:"first_name" json:"first_name"`
	LastName       string                 `db:"last_name" json:"last_name"`
	Gender         string                 `db:"gender" json:"gender"`
	Age            int                    `db:"age" json:"age"`
	Email          string                 `db:"email" json:"email"`
	PhoneNumber    string                 `db:"phone_number" json:"phone_number"`
	Department     string                 `db:"department" json:"department"`
	Specialization StringList             `db:"specialization" json:"specialization"`
	Qualification  StringList             `db:"qualification" json:"qualification"`
	Experience     int                    `db:"experience" json:"experience"`
	Bio            string                 `db:"bio" json:"bio"`
	AvailableDays  StringList             `db:"available_days" json:"available_days"`
	Address        Address                `json:"address"`
	Timetable      map[string]DaySchedule `db:"timetable" json:"timetable,omitempty"`
	LinkedUserID   *uuid.UUID             `db:"user_id" json:"user_id,omitempty"`
	CreatedAt      time.Time              `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time              `db:"updated_at" json:"updated_at"`
}

// Address is stored as flat columns so updates can merge key-by-key.
type Address struct {
	Street  string `db:"address_street" json:"street"`
	City    string `db:"address_city" json:"city"`
	State   string `db:"address_state" json:"state"`
	PinCode string `db:"address_pin_code" json:"pin_code"`
	Country string `db:"address_country" json:"country"`
}

// DaySchedule is one calendar day's working window plus the ordered
// bookable slots. The persisted form is the binding wire format:
// timetable is keyed by "YYYY-MM-DD" and each entry looks like
// {"startTime":"HH:MM","endTime":"HH:MM","slots":["HH:MM",...]}.
type DaySchedule struct {
	StartTime string   `json:"startTime"`
	EndTime   string   `json:"endTime"`
	Slots     []string `json:"slots"`
}

// Complete reports whether both bounds are set. A half-bounded entry is
// treated as absent by every consumer.
func (d DaySchedule) Complete() bool {
	return d.StartTime != "" && d.EndTime != ""
}

// DateKeyFormat is the timetable key layout.
const DateKeyFormat = "2006-01-02"

// DoctorUpdate carries a partial profile update. Nil fields are left
// untouched; Address merges key-by-key.
type DoctorUpdate struct {
	FirstName      *string        `json:"first_name,omitempty"`
	LastName       *string        `json:"last_name,omitempty"`
	Gender         *string        `json:"gender,omitempty"`
	Age            *int           `json:"age,omitempty"`
	Email          *string        `json:"email,omitempty"`
	PhoneNumber    *string        `json:"phone_number,omitempty"`
	Department     *string        `json:"department,omitempty"`
	Specialization StringList     `json:"specialization,omitempty"`
	Qualification  StringList     `json:"qualification,omitempty"`
	Experience     *int           `json:"experience,omitempty"`
	Bio            *string        `json:"bio,omitempty"`
	AvailableDays  StringList     `json:"available_days,omitempty"`
	Address        *AddressUpdate `json:"address,omitempty"`
}

// AddressUpdate carries partial address fields.
type AddressUpdate struct {
	Street  *string `json:"street,omitempty"`
	City    *string `json:"city,omitempty"`
	State   *string `json:"state,omitempty"`
	PinCode *string `json:"pin_code,omitempty"`
	Country *string `json:"country,omitempty"`
}

// NormalizeSet trims entries, drops blanks and duplicates, and keeps
// first-occurrence order.
func NormalizeSet(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// NormalizeEmail lowercases and trims an email for matching.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
