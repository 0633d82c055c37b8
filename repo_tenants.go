package auth

import (
	"context"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type Tenants interface {
	repository.Repository[*Tenant]
	FindByID(ctx context.Context, id uuid.UUID) (*Tenant, error)
}

type tenants struct {
	repository.Repository[*Tenant]
	db *bun.DB
}

var _ Tenants = (*tenants)(nil)

func NewTenantsRepository(db *bun.DB) Tenants {
	repo := repository.NewRepository[*Tenant](db, repository.ModelHandlers[*Tenant]{
		NewRecord: func() *Tenant { return &Tenant{} },
		GetID: func(t *Tenant) uuid.UUID {
			if t == nil {
				return uuid.Nil
			}
			return t.ID
		},
		SetID: func(t *Tenant, id uuid.UUID) {
			if t != nil {
				t.ID = id
			}
		},
		GetIdentifier: func() string {
			return "name"
		},
	})

	return &tenants{
		Repository: repo,
		db:         db,
	}
}

func (t *tenants) FindByID(ctx context.Context, id uuid.UUID) (*Tenant, error) {
	record := &Tenant{}
	err := t.db.NewSelect().Model(record).
		Where("?TableAlias.id = ?", id).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{"id": id.String()})
		}
		return nil, err
	}

	return record, nil
}
