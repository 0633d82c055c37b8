package auth

import (
	"context"
	"time"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type Sessions interface {
	SessionStore
	DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error)
}

type sessions struct {
	repo       repository.Repository[*RefreshSession]
	db         *bun.DB
	refreshTTL time.Duration
}

var _ Sessions = (*sessions)(nil)

func NewSessionsRepository(db *bun.DB, refreshTTL time.Duration) Sessions {
	repo := repository.NewRepository[*RefreshSession](db, repository.ModelHandlers[*RefreshSession]{
		NewRecord: func() *RefreshSession { return &RefreshSession{} },
		GetID: func(r *RefreshSession) uuid.UUID {
			if r == nil {
				return uuid.Nil
			}
			return r.ID
		},
		SetID: func(r *RefreshSession, id uuid.UUID) {
			if r != nil {
				r.ID = id
			}
		},
		GetIdentifier: func() string {
			return "id"
		},
	})

	return &sessions{
		repo:       repo,
		db:         db,
		refreshTTL: refreshTTL,
	}
}

// Create inserts one row per device session; concurrent sessions for the
// same owner are independent rows.
func (s *sessions) Create(ctx context.Context, ownerID uuid.UUID) (*RefreshSession, error) {
	record := &RefreshSession{
		ID:        uuid.New(),
		UserID:    ownerID,
		ExpiresAt: time.Now().Add(s.refreshTTL),
	}

	return s.repo.Create(ctx, record)
}

// FindActive resolves a session by id scoped to its owner. A token whose
// row was deleted, or presented for a different owner, resolves the same
// way: not found.
func (s *sessions) FindActive(ctx context.Context, id, ownerID uuid.UUID) (*RefreshSession, error) {
	record := &RefreshSession{}
	err := s.db.NewSelect().Model(record).
		Where("?TableAlias.id = ?", id).
		Where("?TableAlias.user_id = ?", ownerID).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{
					"id":      id.String(),
					"user_id": ownerID.String(),
				})
		}
		return nil, err
	}

	return record, nil
}

// DeleteByID revokes a session. Deleting an absent row is not an error,
// revocation only needs the row gone.
func (s *sessions) DeleteByID(ctx context.Context, id uuid.UUID) error {
	_, err := s.db.NewDelete().
		Model((*RefreshSession)(nil)).
		Where("?TableAlias.id = ?", id).
		Exec(ctx)

	return err
}

// DeleteExpired reaps rows whose expiry predates cutoff.
func (s *sessions) DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.NewDelete().
		Model((*RefreshSession)(nil)).
		Where("?TableAlias.expires_at < ?", cutoff).
		Exec(ctx)

	if err != nil {
		return 0, err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}

	return affected, nil
}
