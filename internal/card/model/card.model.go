package model

import "time"

type Card struct {
	ID             string            `json:"id"`
	GroupID        string            `json:"card_group_id"`
	Title          string            `json:"title"`
	OwnerID        string            `json:"owner_id"`
	Content        map[string]string `json:"content"`
	LastWriterID   *string           `json:"last_writer_id"`
	LastWriterRole *Role             `json:"last_writer_role"`
	EditableToday  bool              `json:"editable_today"`
	UpdatedAt      time.Time         `json:"updated_at"`
}

// PermissionGrant is a delegated edit right on a card for a non-owner user.
// Owner and admin never need one.
type PermissionGrant struct {
	CardID    string    `json:"card_id"`
	UserID    string    `json:"user_id"`
	CanEdit   bool      `json:"can_edit"`
	GrantedBy string    `json:"granted_by"`
	GrantedAt time.Time `json:"granted_at"`
	UserName  string    `json:"user_name,omitempty"`
	UserEmail string    `json:"user_email,omitempty"`
}

type UserInfo struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// Access is the permission gate's verdict. The same struct backs the
// read-only check endpoint and the resolver's enforcement.
type Access struct {
	Allowed bool `json:"allowed"`
	IsOwner bool `json:"is_owner"`
	IsAdmin bool `json:"is_admin"`
}

type SaveContentRequest struct {
	Content map[string]string `json:"content"`
}

type SaveContentResponse struct {
	Card           *Card          `json:"card"`
	Classification Classification `json:"classification"`
	Message        string         `json:"message"`
}

type GrantRequest struct {
	UserEmail string `json:"user_email"`
}
