package view

import (
	"errors"
	"fmt"
	"sync"

	"jamsesh/internal/models"
)

var (
	// ErrInvalidTransition is returned for a modal action the current mode
	// does not allow.
	ErrInvalidTransition = errors.New("invalid modal transition")
	// ErrNotOwner is returned when editing a post the user does not own.
	ErrNotOwner = errors.New("post is not owned by the current user")
)

// ModalMode is what the post overlay is showing.
type ModalMode int

const (
	ModalClosed ModalMode = iota
	ModalCreating
	ModalEditing
	ModalViewing
)

func (m ModalMode) String() string {
	switch m {
	case ModalClosed:
		return "closed"
	case ModalCreating:
		return "creating"
	case ModalEditing:
		return "editing"
	case ModalViewing:
		return "viewing"
	default:
		return "unknown"
	}
}

// CanTransitionTo reports whether the overlay may move from m to target.
func (m ModalMode) CanTransitionTo(target ModalMode) bool {
	switch m {
	case ModalClosed:
		return target == ModalCreating || target == ModalEditing || target == ModalViewing
	case ModalViewing:
		// viewing to viewing swaps the shown post, e.g. another map marker.
		return target == ModalViewing || target == ModalEditing || target == ModalClosed
	case ModalCreating, ModalEditing:
		return target == ModalClosed
	default:
		return false
	}
}

// Modal is the create/edit/view overlay controller. Every change is an
// explicit call; nothing closes it on its own.
type Modal struct {
	mu      sync.Mutex
	userID  uint
	mode    ModalMode
	payload *models.Post
}

// NewModal returns a closed modal for userID (0 when signed out).
func NewModal(userID uint) *Modal {
	return &Modal{userID: userID}
}

// SetUser changes the signed-in user.
func (m *Modal) SetUser(userID uint) {
	m.mu.Lock()
	m.userID = userID
	m.mu.Unlock()
}

// Mode returns the current mode.
func (m *Modal) Mode() ModalMode {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.mode
}

// Payload returns a copy of the record being edited or viewed, or nil.
func (m *Modal) Payload() *models.Post {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.payload == nil {
		return nil
	}
	p := *m.payload
	return &p
}

// OpenCreate shows an empty form.
func (m *Modal) OpenCreate() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.moveLocked(ModalCreating, nil)
}

// OpenEdit shows the edit form for an owned post.
func (m *Modal) OpenEdit(post *models.Post) error {
	if post == nil {
		return fmt.Errorf("%w: no post", ErrInvalidTransition)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if !post.OwnedBy(m.userID) {
		return ErrNotOwner
	}
	return m.moveLocked(ModalEditing, post)
}

// OpenView shows a post's details.
func (m *Modal) OpenView(post *models.Post) error {
	if post == nil {
		return fmt.Errorf("%w: no post", ErrInvalidTransition)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.moveLocked(ModalViewing, post)
}

// Submitted closes the form after a successful write.
func (m *Modal) Submitted() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.mode != ModalCreating && m.mode != ModalEditing {
		return fmt.Errorf("%w: submit from %s", ErrInvalidTransition, m.mode)
	}
	return m.moveLocked(ModalClosed, nil)
}

// Cancel closes the overlay without writing.
func (m *Modal) Cancel() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.moveLocked(ModalClosed, nil)
}

func (m *Modal) moveLocked(target ModalMode, payload *models.Post) error {
	if !m.mode.CanTransitionTo(target) {
		return fmt.Errorf("%w: %s to %s", ErrInvalidTransition, m.mode, target)
	}
	m.mode = target
	if payload != nil {
		p := *payload
		m.payload = &p
	} else {
		m.payload = nil
	}
	return nil
}
