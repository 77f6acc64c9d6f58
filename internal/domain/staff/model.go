package staff

import (
	"time"

	"github.com/google/uuid"

	"github.com/vetpms/vetpms/internal/platform/auth"
)

// Member is a staff account within one practice. Subject is the identity
// provider's stable subject claim; it is what tokens are resolved by.
// Members are deactivated, never deleted, so their observation history
// stays attributable.
type Member struct {
	ID        uuid.UUID `json:"id"`
	TenantID  string    `json:"tenant_id"`
	Subject   string    `json:"subject"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Role      auth.Role `json:"role"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
