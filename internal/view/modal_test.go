package view

import (
	"testing"

	"jamsesh/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModalMode_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from, to ModalMode
		want     bool
	}{
		{ModalClosed, ModalCreating, true},
		{ModalClosed, ModalEditing, true},
		{ModalClosed, ModalViewing, true},
		{ModalClosed, ModalClosed, false},
		{ModalViewing, ModalEditing, true},
		{ModalViewing, ModalClosed, true},
		{ModalViewing, ModalViewing, true},
		{ModalViewing, ModalCreating, false},
		{ModalCreating, ModalClosed, true},
		{ModalCreating, ModalEditing, false},
		{ModalEditing, ModalClosed, true},
		{ModalEditing, ModalViewing, false},
	}
	for _, tt := range tests {
		t.Run(tt.from.String()+"->"+tt.to.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestModal_CreateSubmit(t *testing.T) {
	m := NewModal(5)
	require.NoError(t, m.OpenCreate())
	assert.Equal(t, ModalCreating, m.Mode())
	assert.Nil(t, m.Payload())

	assert.ErrorIs(t, m.OpenCreate(), ErrInvalidTransition)
	require.NoError(t, m.Submitted())
	assert.Equal(t, ModalClosed, m.Mode())
	assert.ErrorIs(t, m.Submitted(), ErrInvalidTransition)
}

func TestModal_ViewThenEdit(t *testing.T) {
	post := &models.Post{ID: 3, UserID: 5, Title: "Open mic"}
	m := NewModal(5)

	require.NoError(t, m.OpenView(post))
	assert.Equal(t, ModalViewing, m.Mode())
	assert.ErrorIs(t, m.Submitted(), ErrInvalidTransition, "viewing has nothing to submit")

	require.NoError(t, m.OpenEdit(post))
	assert.Equal(t, ModalEditing, m.Mode())

	payload := m.Payload()
	require.NotNil(t, payload)
	payload.Title = "mutated"
	assert.Equal(t, "Open mic", m.Payload().Title, "payload is a copy")

	require.NoError(t, m.Cancel())
	assert.Equal(t, ModalClosed, m.Mode())
	assert.Nil(t, m.Payload())
	assert.ErrorIs(t, m.Cancel(), ErrInvalidTransition)
}

func TestModal_EditRequiresOwnership(t *testing.T) {
	post := &models.Post{ID: 3, UserID: 5}

	assert.ErrorIs(t, NewModal(6).OpenEdit(post), ErrNotOwner)
	assert.ErrorIs(t, NewModal(0).OpenEdit(post), ErrNotOwner, "signed out owns nothing")
	assert.ErrorIs(t, NewModal(5).OpenEdit(nil), ErrInvalidTransition)
	assert.ErrorIs(t, NewModal(5).OpenView(nil), ErrInvalidTransition)

	m := NewModal(0)
	m.SetUser(5)
	require.NoError(t, m.OpenEdit(post))
}
