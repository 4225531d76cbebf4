package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRole(t *testing.T) {
	role, err := ParseRole("admin")
	require.NoError(t, err)
	assert.Equal(t, RoleAdmin, role)

	role, err = ParseRole("editor")
	require.NoError(t, err)
	assert.Equal(t, RoleEditor, role)

	_, err = ParseRole("reader")
	assert.Error(t, err)
}

func TestClassify(t *testing.T) {
	admin := RoleAdmin
	editor := RoleEditor

	tests := []struct {
		name  string
		prior *Role
		role  Role
		want  Classification
	}{
		{"first save by editor", nil, RoleEditor, ClassificationCollaboration},
		{"first save by admin", nil, RoleAdmin, ClassificationCollaboration},
		{"editor after editor", &editor, RoleEditor, ClassificationCollaboration},
		{"admin after admin", &admin, RoleAdmin, ClassificationCollaboration},
		{"admin after editor", &editor, RoleAdmin, ClassificationOverride},
		{"editor after admin", &admin, RoleEditor, ClassificationOverride},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.prior, tt.role))
		})
	}
}

func TestClassificationMessage(t *testing.T) {
	editor := RoleEditor

	msg := ClassificationCollaboration.Message(nil, RoleEditor)
	assert.Contains(t, msg, "collaborating")

	msg = ClassificationOverride.Message(&editor, RoleAdmin)
	assert.Contains(t, msg, "replaced")
	assert.Contains(t, msg, "editor")
}
