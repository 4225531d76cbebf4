package service

import (
	"database/sql"
	"errors"
	"fmt"

	"cardsync/internal/card/model"
	"cardsync/internal/card/repository"
	"cardsync/pkg/logger"
)

// Sentinel errors the handlers translate into HTTP status codes. A rejected
// save surfaces one of these to the caller and nothing else; it never tears
// down the caller's live session.
var (
	ErrNotFound   = errors.New("not found")
	ErrForbidden  = errors.New("forbidden")
	ErrValidation = errors.New("invalid request")
)

type CardService struct {
	Repo *repository.CardRepository
}

func NewCardService(repo *repository.CardRepository) *CardService {
	return &CardService{Repo: repo}
}

func (s *CardService) GetCard(cardID string) (*model.Card, error) {
	card, err := s.Repo.GetCard(cardID)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: card %s", ErrNotFound, cardID)
	}
	return card, err
}

// CheckAccess answers "may this user write to this card" without touching
// anything. Drives the UI affordances; Persist runs the identical rule.
func (s *CardService) CheckAccess(cardID, userID string, role model.Role) (model.Access, error) {
	card, err := s.GetCard(cardID)
	if err != nil {
		return model.Access{}, err
	}
	grant, err := s.Repo.GetGrant(cardID, userID)
	if err != nil {
		return model.Access{}, err
	}
	return EvaluateAccess(card.OwnerID, grant, userID, role), nil
}

// Persist is the authoritative save path: load, date check, permission gate,
// classify, then replace the whole content map in one atomic update. There
// is no merge and no revision token; overlapping saves are last-write-wins
// and the classification is advisory feedback only.
func (s *CardService) Persist(cardID, userID string, role model.Role, content map[string]string) (*model.SaveContentResponse, error) {
	if content == nil {
		return nil, fmt.Errorf("%w: content is required", ErrValidation)
	}

	card, err := s.GetCard(cardID)
	if err != nil {
		return nil, err
	}

	// Past-dated cards are read-only for everyone, admins included.
	if !card.EditableToday {
		return nil, fmt.Errorf("%w: card is no longer editable", ErrForbidden)
	}

	grant, err := s.Repo.GetGrant(cardID, userID)
	if err != nil {
		return nil, err
	}
	if access := EvaluateAccess(card.OwnerID, grant, userID, role); !access.Allowed {
		return nil, fmt.Errorf("%w: no edit access to this card", ErrForbidden)
	}

	classification := model.Classify(card.LastWriterRole, role)
	message := classification.Message(card.LastWriterRole, role)

	updatedAt, err := s.Repo.ReplaceContent(cardID, content, userID, role)
	if err != nil {
		return nil, err
	}

	card.Content = content
	card.LastWriterID = &userID
	card.LastWriterRole = &role
	card.UpdatedAt = updatedAt

	logger.Sugar.Infof("Card %s saved by %s (%s): %s", cardID, userID, role, classification)
	return &model.SaveContentResponse{Card: card, Classification: classification, Message: message}, nil
}

// Grant gives target (looked up by email) edit access. Only the card owner
// or an admin may grant; granting to the owner is rejected since ownership
// already implies access.
func (s *CardService) Grant(cardID, granterID string, granterRole model.Role, targetEmail string) (*model.PermissionGrant, error) {
	card, err := s.GetCard(cardID)
	if err != nil {
		return nil, err
	}
	if granterRole != model.RoleAdmin && card.OwnerID != granterID {
		return nil, fmt.Errorf("%w: only the card owner or an admin can grant access", ErrForbidden)
	}

	target, err := s.Repo.GetUserByEmail(targetEmail)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: no user with email %s", ErrNotFound, targetEmail)
	}
	if err != nil {
		return nil, err
	}
	if target.ID == card.OwnerID {
		return nil, fmt.Errorf("%w: user is already the card owner", ErrValidation)
	}

	grant, err := s.Repo.UpsertGrant(cardID, target.ID, granterID)
	if err != nil {
		return nil, err
	}
	grant.UserName = target.Name
	grant.UserEmail = target.Email
	return grant, nil
}

// Revoke removes a grant. Takes effect on the next save attempt; the target
// user's live session, if any, stays joined to the room.
func (s *CardService) Revoke(cardID, callerID string, callerRole model.Role, targetUserID string) error {
	card, err := s.GetCard(cardID)
	if err != nil {
		return err
	}
	if callerRole != model.RoleAdmin && card.OwnerID != callerID {
		return fmt.Errorf("%w: only the card owner or an admin can revoke access", ErrForbidden)
	}

	rows, err := s.Repo.DeleteGrant(cardID, targetUserID)
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("%w: no grant for user %s", ErrNotFound, targetUserID)
	}
	return nil
}

func (s *CardService) ListGrants(cardID string) ([]model.PermissionGrant, error) {
	if _, err := s.GetCard(cardID); err != nil {
		return nil, err
	}
	return s.Repo.ListGrants(cardID)
}

func (s *CardService) AvailableUsers(cardID string) ([]model.UserInfo, error) {
	card, err := s.GetCard(cardID)
	if err != nil {
		return nil, err
	}
	return s.Repo.AvailableUsers(cardID, card.OwnerID)
}
