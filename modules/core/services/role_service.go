package services

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/iota-uz/precinct/modules/core/domain/entities/assignment"
	"github.com/iota-uz/precinct/pkg/authz"
	"github.com/iota-uz/precinct/pkg/composables"
	"github.com/iota-uz/precinct/pkg/serrors"
)

// RoleCatalog knows which role slugs the policy defines.
type RoleCatalog interface {
	HasRole(slug string) bool
}

type RoleService struct {
	repo       assignment.Repository
	catalog    RoleCatalog
	transactor composables.Transactor
}

func NewRoleService(repo assignment.Repository, catalog RoleCatalog, transactor composables.Transactor) *RoleService {
	return &RoleService{
		repo:       repo,
		catalog:    catalog,
		transactor: transactor,
	}
}

func (s *RoleService) List(ctx context.Context, actor authz.Actor) ([]assignment.Assignment, error) {
	if err := actor.Require(authz.RolesManage); err != nil {
		return nil, err
	}
	return composables.InTxResult(ctx, s.transactor, func(txCtx context.Context) ([]assignment.Assignment, error) {
		return s.repo.List(txCtx)
	})
}

func (s *RoleService) Grant(ctx context.Context, actor authz.Actor, discordID, role string) (assignment.Assignment, error) {
	if err := actor.Require(authz.RolesManage); err != nil {
		return assignment.Assignment{}, err
	}
	a := assignment.New(actor.TenantID, discordID, role, actor.ID)
	if err := s.validate(a); err != nil {
		return assignment.Assignment{}, err
	}
	err := s.transactor.InTx(ctx, func(txCtx context.Context) error {
		return s.repo.Create(txCtx, a)
	})
	if err != nil {
		return assignment.Assignment{}, err
	}
	composables.UseLogger(ctx).WithFields(logrus.Fields{
		"component":  "core.roles",
		"discord_id": a.DiscordID,
		"role":       a.Role,
	}).Info("role granted")
	return a, nil
}

func (s *RoleService) Revoke(ctx context.Context, actor authz.Actor, discordID, role string) error {
	if err := actor.Require(authz.RolesManage); err != nil {
		return err
	}
	discordID, role = strings.TrimSpace(discordID), assignment.NormalizeRole(role)
	err := s.transactor.InTx(ctx, func(txCtx context.Context) error {
		return s.repo.Delete(txCtx, discordID, role)
	})
	if err != nil {
		return err
	}
	composables.UseLogger(ctx).WithFields(logrus.Fields{
		"component":  "core.roles",
		"discord_id": discordID,
		"role":       role,
	}).Info("role revoked")
	return nil
}

func (s *RoleService) validate(a assignment.Assignment) error {
	errs := serrors.ValidationErrors{}
	if a.DiscordID == "" {
		errs["discord_id"] = "required"
	}
	if a.Role == "" {
		errs["role"] = "required"
	} else if !s.catalog.HasRole(a.Role) {
		errs["role"] = "unknown role"
	}
	return errs.AsError()
}
