package repository

import (
	"database/sql"
	"encoding/json"
	"time"

	"cardsync/internal/card/model"
	"cardsync/pkg/logger"
)

type CardRepository struct {
	DB *sql.DB
}

func NewCardRepository(db *sql.DB) *CardRepository {
	return &CardRepository{DB: db}
}

// GetCard loads a card together with the editable-today flag derived from
// its group's date. Returns sql.ErrNoRows for unknown ids.
func (r *CardRepository) GetCard(cardID string) (*model.Card, error) {
	var (
		card           model.Card
		content        []byte
		lastWriterID   sql.NullString
		lastWriterRole sql.NullString
	)
	err := r.DB.QueryRow(`
		SELECT c.id, c.card_group_id, c.title, c.owner_id, c.content,
		       c.last_writer_id, c.last_writer_role, c.updated_at,
		       (cg.group_date = CURRENT_DATE) AS editable_today
		FROM cards c
		JOIN card_groups cg ON c.card_group_id = cg.id
		WHERE c.id = $1`, cardID,
	).Scan(&card.ID, &card.GroupID, &card.Title, &card.OwnerID, &content,
		&lastWriterID, &lastWriterRole, &card.UpdatedAt, &card.EditableToday)
	if err != nil {
		if err != sql.ErrNoRows {
			logger.Sugar.Errorf("Failed to load card %s: %v", cardID, err)
		}
		return nil, err
	}

	card.Content = map[string]string{}
	if len(content) > 0 {
		if err := json.Unmarshal(content, &card.Content); err != nil {
			logger.Sugar.Errorf("Corrupt content on card %s: %v", cardID, err)
			card.Content = map[string]string{}
		}
	}
	if lastWriterID.Valid {
		card.LastWriterID = &lastWriterID.String
	}
	if lastWriterRole.Valid {
		role := model.Role(lastWriterRole.String)
		card.LastWriterRole = &role
	}
	return &card, nil
}

// ReplaceContent swaps the card's entire content map in a single UPDATE and
// records the writer. Row-level atomicity is all the save path needs.
func (r *CardRepository) ReplaceContent(cardID string, content map[string]string, writerID string, role model.Role) (time.Time, error) {
	raw, err := json.Marshal(content)
	if err != nil {
		return time.Time{}, err
	}

	var updatedAt time.Time
	err = r.DB.QueryRow(`
		UPDATE cards
		SET content = $1, last_writer_id = $2, last_writer_role = $3, updated_at = NOW()
		WHERE id = $4
		RETURNING updated_at`,
		string(raw), writerID, string(role), cardID,
	).Scan(&updatedAt)
	if err != nil {
		logger.Sugar.Errorf("Failed to replace content for card %s: %v", cardID, err)
	}
	return updatedAt, err
}

// GetGrant returns the permission row for (card, user), or nil when none
// exists. Absence of a grant is an answer, not an error.
func (r *CardRepository) GetGrant(cardID, userID string) (*model.PermissionGrant, error) {
	var grant model.PermissionGrant
	err := r.DB.QueryRow(`
		SELECT card_id, user_id, can_edit, granted_by, granted_at
		FROM card_permissions
		WHERE card_id = $1 AND user_id = $2`, cardID, userID,
	).Scan(&grant.CardID, &grant.UserID, &grant.CanEdit, &grant.GrantedBy, &grant.GrantedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		logger.Sugar.Errorf("Failed to load grant for user %s on card %s: %v", userID, cardID, err)
		return nil, err
	}
	return &grant, nil
}

func (r *CardRepository) UpsertGrant(cardID, userID, grantedBy string) (*model.PermissionGrant, error) {
	grant := model.PermissionGrant{CardID: cardID, UserID: userID, CanEdit: true, GrantedBy: grantedBy}
	err := r.DB.QueryRow(`
		INSERT INTO card_permissions (card_id, user_id, granted_by, can_edit)
		VALUES ($1, $2, $3, true)
		ON CONFLICT (card_id, user_id)
		DO UPDATE SET can_edit = true, granted_by = $3, granted_at = NOW()
		RETURNING granted_at`,
		cardID, userID, grantedBy,
	).Scan(&grant.GrantedAt)
	if err != nil {
		logger.Sugar.Errorf("Failed to grant access to user %s on card %s: %v", userID, cardID, err)
		return nil, err
	}
	return &grant, nil
}

func (r *CardRepository) DeleteGrant(cardID, userID string) (int64, error) {
	result, err := r.DB.Exec(`DELETE FROM card_permissions WHERE card_id = $1 AND user_id = $2`, cardID, userID)
	if err != nil {
		logger.Sugar.Errorf("Failed to revoke access for user %s on card %s: %v", userID, cardID, err)
		return 0, err
	}
	return result.RowsAffected()
}

func (r *CardRepository) ListGrants(cardID string) ([]model.PermissionGrant, error) {
	rows, err := r.DB.Query(`
		SELECT cp.card_id, cp.user_id, cp.can_edit, cp.granted_by, cp.granted_at,
		       u.name, u.email
		FROM card_permissions cp
		JOIN users u ON cp.user_id = u.id
		WHERE cp.card_id = $1
		ORDER BY cp.granted_at DESC`, cardID)
	if err != nil {
		logger.Sugar.Errorf("Failed to list grants for card %s: %v", cardID, err)
		return nil, err
	}
	defer rows.Close()

	grants := []model.PermissionGrant{}
	for rows.Next() {
		var g model.PermissionGrant
		if err := rows.Scan(&g.CardID, &g.UserID, &g.CanEdit, &g.GrantedBy, &g.GrantedAt, &g.UserName, &g.UserEmail); err != nil {
			continue
		}
		grants = append(grants, g)
	}
	return grants, rows.Err()
}

func (r *CardRepository) GetUserByEmail(email string) (*model.UserInfo, error) {
	var user model.UserInfo
	err := r.DB.QueryRow(`SELECT id, name, email, role FROM users WHERE email = $1`, email).
		Scan(&user.ID, &user.Name, &user.Email, &user.Role)
	if err != nil {
		if err != sql.ErrNoRows {
			logger.Sugar.Errorf("Failed to look up user by email %s: %v", email, err)
		}
		return nil, err
	}
	return &user, nil
}

// AvailableUsers lists users who could still be granted access: everyone
// except the owner and existing grantees. Feeds the share dialog's
// autocomplete.
func (r *CardRepository) AvailableUsers(cardID, ownerID string) ([]model.UserInfo, error) {
	rows, err := r.DB.Query(`
		SELECT id, name, email, role
		FROM users
		WHERE id <> $2
		  AND id NOT IN (SELECT user_id FROM card_permissions WHERE card_id = $1)
		ORDER BY name ASC`, cardID, ownerID)
	if err != nil {
		logger.Sugar.Errorf("Failed to list available users for card %s: %v", cardID, err)
		return nil, err
	}
	defer rows.Close()

	users := []model.UserInfo{}
	for rows.Next() {
		var u model.UserInfo
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.Role); err != nil {
			continue
		}
		users = append(users, u)
	}
	return users, rows.Err()
}
