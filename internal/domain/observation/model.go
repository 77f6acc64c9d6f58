package observation

import (
	"time"

	"github.com/google/uuid"
)

// DataType is the closed set of observation value shapes. It drives both
// template constraints and value validation.
type DataType string

const (
	TypeNumeric     DataType = "NUMERIC"
	TypeBoolean     DataType = "BOOLEAN"
	TypeScale       DataType = "SCALE"
	TypeEnumeration DataType = "ENUMERATION"
	TypeText        DataType = "TEXT"
	TypeImage       DataType = "IMAGE"
	TypeNote        DataType = "NOTE"
)

var validDataTypes = map[DataType]bool{
	TypeNumeric:     true,
	TypeBoolean:     true,
	TypeScale:       true,
	TypeEnumeration: true,
	TypeText:        true,
	TypeImage:       true,
	TypeNote:        true,
}

// Template defines what one kind of observation looks like: its value
// shape and the constraints applied when a value is recorded. MinValue and
// MaxValue apply to NUMERIC and SCALE; Options applies to ENUMERATION.
//
// A template belongs to a monitoring plan. Each tenant has at most one
// NOTE template, created lazily by the bootstrap.
type Template struct {
	ID        uuid.UUID `json:"id"`
	TenantID  string    `json:"tenant_id"`
	PlanID    uuid.UUID `json:"plan_id"`
	Name      string    `json:"name"`
	DataType  DataType  `json:"data_type"`
	Unit      string    `json:"unit,omitempty"`
	MinValue  *float64  `json:"min_value,omitempty"`
	MaxValue  *float64  `json:"max_value,omitempty"`
	Options   []string  `json:"options,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Record is one recorded observation. Records are immutable: the value was
// validated against the template's constraints at recording time, and later
// template edits never invalidate history.
type Record struct {
	ID         uuid.UUID   `json:"id"`
	TenantID   string      `json:"tenant_id"`
	TemplateID uuid.UUID   `json:"template_id"`
	Value      interface{} `json:"value,omitempty"`
	Note       string      `json:"note,omitempty"`
	RecordedBy string      `json:"recorded_by"`
	RecordedAt time.Time   `json:"recorded_at"`
	CreatedAt  time.Time   `json:"created_at"`
}
