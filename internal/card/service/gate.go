package service

import "cardsync/internal/card/model"

// EvaluateAccess is the single write-access rule for cards, in priority
// order: admin, then owner, then an explicit can_edit grant. It is a pure
// function so the UI pre-check endpoint and the save path cannot drift
// apart.
func EvaluateAccess(ownerID string, grant *model.PermissionGrant, userID string, role model.Role) model.Access {
	access := model.Access{
		IsOwner: userID == ownerID,
		IsAdmin: role == model.RoleAdmin,
	}
	switch {
	case access.IsAdmin:
		access.Allowed = true
	case access.IsOwner:
		access.Allowed = true
	case grant != nil && grant.CanEdit:
		access.Allowed = true
	}
	return access
}
