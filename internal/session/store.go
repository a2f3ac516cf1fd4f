package session

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/MarkoPoloResearchLab/reviewloop/internal/model"
	"github.com/MarkoPoloResearchLab/reviewloop/internal/storage"
)

const (
	errorMessageNilDatabase   = "session: nil database"
	errorMessageSaveSession   = "session: save session"
	errorMessageLoadSession   = "session: load session"
	errorMessageClearSession  = "session: clear session"
	errorMessagePurgePartial  = "session: purge partial session"
	credentialRoleColumnName  = "role"
	credentialDeleteByRoleSQL = "role = ?"
)

// ErrNilDatabase indicates the store was constructed without a database handle.
var ErrNilDatabase = errors.New(errorMessageNilDatabase)

// Store persists role-scoped sessions in the local state database. It is the
// single access point for session durability: create on login, read on page
// load, destroy on logout or forced invalidation.
type Store struct {
	database *gorm.DB
}

// NewStore builds a Store backed by the provided database.
func NewStore(database *gorm.DB) (*Store, error) {
	if database == nil {
		return nil, ErrNilDatabase
	}
	return &Store{database: database}, nil
}

// Save persists a full session into its role slot, replacing any previous
// session for the same role. Partial sessions are rejected before any write.
func (store *Store) Save(ctx context.Context, currentSession Session) error {
	if validationErr := currentSession.Validate(); validationErr != nil {
		return validationErr
	}

	credential := model.StoredCredential{
		ID:    storage.NewID(),
		Role:  string(currentSession.Role),
		Token: currentSession.Token,
		Email: currentSession.Email,
	}

	saveErr := store.database.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: credentialRoleColumnName}},
			DoUpdates: clause.AssignmentColumns([]string{"token", "email", "updated_at"}),
		}).
		Create(&credential).Error
	if saveErr != nil {
		return fmt.Errorf("%s: %w", errorMessageSaveSession, saveErr)
	}
	return nil
}

// Load restores the session stored for a role. The read is optimistic: a
// present token is trusted without a verification round trip, and staleness is
// only discovered on the first authenticated call. A partially persisted row
// is deleted and reported as absent.
func (store *Store) Load(ctx context.Context, role Role) (Session, bool, error) {
	if validationErr := ValidateRole(role); validationErr != nil {
		return Session{}, false, validationErr
	}

	var credential model.StoredCredential
	loadErr := store.database.WithContext(ctx).
		Where(credentialDeleteByRoleSQL, string(role)).
		First(&credential).Error
	if errors.Is(loadErr, gorm.ErrRecordNotFound) {
		return Session{}, false, nil
	}
	if loadErr != nil {
		return Session{}, false, fmt.Errorf("%s: %w", errorMessageLoadSession, loadErr)
	}

	restored := Session{
		Token: strings.TrimSpace(credential.Token),
		Email: strings.TrimSpace(credential.Email),
		Role:  role,
	}
	if !restored.Present() {
		if purgeErr := store.Clear(ctx, role); purgeErr != nil {
			return Session{}, false, fmt.Errorf("%s: %w", errorMessagePurgePartial, purgeErr)
		}
		return Session{}, false, nil
	}

	return restored, true, nil
}

// Clear destroys the session stored for a role. Clearing an empty slot is not
// an error.
func (store *Store) Clear(ctx context.Context, role Role) error {
	if validationErr := ValidateRole(role); validationErr != nil {
		return validationErr
	}

	deleteErr := store.database.WithContext(ctx).
		Where(credentialDeleteByRoleSQL, string(role)).
		Delete(&model.StoredCredential{}).Error
	if deleteErr != nil {
		return fmt.Errorf("%s: %w", errorMessageClearSession, deleteErr)
	}
	return nil
}
