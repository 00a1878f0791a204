package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Profile is the public record of a musician. Its ID equals the owning user's ID.
type Profile struct {
	ID        uint      `gorm:"primaryKey;autoIncrement:false" json:"id"`
	Username  string    `gorm:"uniqueIndex;not null;size:30" json:"username"`
	AvatarURL *string   `json:"avatar_url"`
	Bio       *string   `gorm:"type:text" json:"bio"`
	Tags      Tags      `gorm:"type:text" json:"tags"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Tags is an ordered set of free-form labels. Membership is exact string
// equality; no case or whitespace folding is applied.
type Tags []string

// Contains reports whether tag is already a member.
func (t Tags) Contains(tag string) bool {
	for _, existing := range t {
		if existing == tag {
			return true
		}
	}
	return false
}

// Add returns the set with tag appended, or the set unchanged if tag is empty
// or already present.
func (t Tags) Add(tag string) Tags {
	if tag == "" || t.Contains(tag) {
		return t
	}
	out := make(Tags, len(t), len(t)+1)
	copy(out, t)
	return append(out, tag)
}

// Remove returns the set without tag.
func (t Tags) Remove(tag string) Tags {
	out := make(Tags, 0, len(t))
	for _, existing := range t {
		if existing != tag {
			out = append(out, existing)
		}
	}
	return out
}

// Normalize drops empty entries and duplicates while keeping first-seen order.
func (t Tags) Normalize() Tags {
	out := make(Tags, 0, len(t))
	for _, tag := range t {
		out = out.Add(tag)
	}
	return out
}

// Value implements driver.Valuer; tags are persisted as a JSON array.
func (t Tags) Value() (driver.Value, error) {
	if t == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(t))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (t *Tags) Scan(value interface{}) error {
	var raw []byte
	switch v := value.(type) {
	case nil:
		*t = Tags{}
		return nil
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("tags: unsupported scan type %T", value)
	}
	if len(raw) == 0 {
		*t = Tags{}
		return nil
	}
	var out []string
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("tags: %w", err)
	}
	*t = Tags(out)
	return nil
}
