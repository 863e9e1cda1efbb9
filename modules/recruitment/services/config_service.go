package services

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/iota-uz/precinct/modules/recruitment/domain/entities/blacklist"
	"github.com/iota-uz/precinct/modules/recruitment/domain/entities/config"
	"github.com/iota-uz/precinct/pkg/authz"
	"github.com/iota-uz/precinct/pkg/composables"
	"github.com/iota-uz/precinct/pkg/serrors"
)

type ItemDTO struct {
	Label     string `json:"label" validate:"required,max=500"`
	Active    *bool  `json:"active"`
	SortOrder int    `json:"sort_order"`
}

// ConfigService manages recruitment settings and the blacklist. Reads need
// applications.read; every change needs recruitment.configure.
type ConfigService struct {
	items      config.Repository
	blacklist  blacklist.Repository
	transactor composables.Transactor
}

func NewConfigService(items config.Repository, bl blacklist.Repository, transactor composables.Transactor) *ConfigService {
	return &ConfigService{
		items:      items,
		blacklist:  bl,
		transactor: transactor,
	}
}

func (s *ConfigService) List(ctx context.Context, actor authz.Actor, kind config.Kind) ([]config.Item, error) {
	if err := actor.Require(authz.ApplicationsRead); err != nil {
		return nil, err
	}
	if !kind.Valid() {
		return nil, serrors.ValidationErrors{"kind": "must be criterion, question or checklist"}.AsError()
	}
	return composables.InTxResult(ctx, s.transactor, func(txCtx context.Context) ([]config.Item, error) {
		return s.items.List(txCtx, kind)
	})
}

func (s *ConfigService) Create(ctx context.Context, actor authz.Actor, kind config.Kind, dto ItemDTO) (config.Item, error) {
	if err := actor.Require(authz.RecruitmentConfigure); err != nil {
		return config.Item{}, err
	}
	verrs := serrors.ValidationErrors{}
	if !kind.Valid() {
		verrs["kind"] = "must be criterion, question or checklist"
	}
	if strings.TrimSpace(dto.Label) == "" {
		verrs["label"] = "is required"
	}
	if err := verrs.AsError(); err != nil {
		return config.Item{}, err
	}
	it := config.NewItem(kind, dto.Label, dto.SortOrder)
	if dto.Active != nil {
		it.Active = *dto.Active
	}
	return composables.InTxResult(ctx, s.transactor, func(txCtx context.Context) (config.Item, error) {
		if err := s.items.Create(txCtx, it); err != nil {
			return config.Item{}, err
		}
		return it, nil
	})
}

// Update relabels, reorders or (de)activates an item. Deactivated items stop
// counting towards step requirements immediately.
func (s *ConfigService) Update(ctx context.Context, actor authz.Actor, id uuid.UUID, dto ItemDTO) (config.Item, error) {
	if err := actor.Require(authz.RecruitmentConfigure); err != nil {
		return config.Item{}, err
	}
	if strings.TrimSpace(dto.Label) == "" {
		return config.Item{}, serrors.ValidationErrors{"label": "is required"}.AsError()
	}
	return composables.InTxResult(ctx, s.transactor, func(txCtx context.Context) (config.Item, error) {
		it, err := s.items.GetByID(txCtx, id)
		if err != nil {
			return config.Item{}, err
		}
		it.Label = strings.TrimSpace(dto.Label)
		it.SortOrder = dto.SortOrder
		if dto.Active != nil {
			it.Active = *dto.Active
		}
		if err := s.items.Update(txCtx, it); err != nil {
			return config.Item{}, err
		}
		return it, nil
	})
}

func (s *ConfigService) Delete(ctx context.Context, actor authz.Actor, id uuid.UUID) error {
	if err := actor.Require(authz.RecruitmentConfigure); err != nil {
		return err
	}
	return s.transactor.InTx(ctx, func(txCtx context.Context) error {
		return s.items.Delete(txCtx, id)
	})
}

func (s *ConfigService) Blacklist(ctx context.Context, actor authz.Actor) ([]blacklist.Entry, error) {
	if err := actor.Require(authz.ApplicationsRead); err != nil {
		return nil, err
	}
	return composables.InTxResult(ctx, s.transactor, func(txCtx context.Context) ([]blacklist.Entry, error) {
		return s.blacklist.List(txCtx)
	})
}

// Unblacklist lifts an entry so the identity may apply again.
func (s *ConfigService) Unblacklist(ctx context.Context, actor authz.Actor, id uuid.UUID) error {
	if err := actor.Require(authz.RecruitmentConfigure); err != nil {
		return err
	}
	return s.transactor.InTx(ctx, func(txCtx context.Context) error {
		return s.blacklist.Delete(txCtx, id)
	})
}
