package dto

// UserUpdateRequest describes an administrative account mutation.
type UserUpdateRequest struct {
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Role      *string `json:"role" validate:"omitempty,oneof=student professor admin"`
	Active    *bool   `json:"active"`
}

// UserFilter describes query string filters for the admin user listing.
type UserFilter struct {
	Role   *string `query:"role" validate:"omitempty,oneof=student professor admin"`
	Active *bool   `query:"active"`
	Search *string `query:"search"`
}
