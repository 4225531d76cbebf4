package model

import "fmt"

// Role is the closed set of user roles the card layer understands. The auth
// layer supplies one of these with every request.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleEditor Role = "editor"
)

func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleAdmin, RoleEditor:
		return Role(s), nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// Classification labels a successful save relative to the previous writer's
// role. It is advisory context for the UI only; saves are last-write-wins
// either way.
type Classification string

const (
	ClassificationCollaboration Classification = "collaboration"
	ClassificationOverride      Classification = "override"
)

// Classify compares the role of the last successful writer (nil before the
// first save) with the current caller's role. Same role, or no prior writer,
// is a collaboration; a role change is an override.
func Classify(priorRole *Role, role Role) Classification {
	if priorRole == nil || *priorRole == role {
		return ClassificationCollaboration
	}
	return ClassificationOverride
}

// Message renders the human-readable feedback line shown after a save.
func (c Classification) Message(priorRole *Role, role Role) string {
	if c == ClassificationCollaboration {
		return fmt.Sprintf("Content saved. You are collaborating with other %ss on this card.", role)
	}
	return fmt.Sprintf("Content saved. Your changes replaced edits last made by an %s.", *priorRole)
}
