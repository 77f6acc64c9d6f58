package patient

import (
	"time"

	"github.com/google/uuid"
)

// Sex of an animal patient, including altered states relevant to clinical
// decisions.
type Sex string

const (
	SexMale         Sex = "MALE"
	SexFemale       Sex = "FEMALE"
	SexMaleNeutered Sex = "MALE_NEUTERED"
	SexFemaleSpayed Sex = "FEMALE_SPAYED"
	SexUnknown      Sex = "UNKNOWN"
)

var validSexes = map[Sex]bool{
	SexMale:         true,
	SexFemale:       true,
	SexMaleNeutered: true,
	SexFemaleSpayed: true,
	SexUnknown:      true,
}

// Patient is an animal under the practice's care. The owner fields are the
// human client's contact details; there is no separate client entity.
type Patient struct {
	ID         uuid.UUID  `json:"id"`
	TenantID   string     `json:"tenant_id"`
	Name       string     `json:"name"`
	Species    string     `json:"species"`
	Breed      string     `json:"breed,omitempty"`
	Sex        Sex        `json:"sex"`
	BirthDate  *time.Time `json:"birth_date,omitempty"`
	OwnerName  string     `json:"owner_name"`
	OwnerPhone string     `json:"owner_phone,omitempty"`
	OwnerEmail string     `json:"owner_email,omitempty"`
	Active     bool       `json:"active"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}
