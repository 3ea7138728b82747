package dto

// SetRoleRequest toggles the admin flag of a user.
type SetRoleRequest struct {
	IsAdmin *bool `json:"isAdmin" validate:"required"`
}
