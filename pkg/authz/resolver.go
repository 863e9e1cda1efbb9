package authz

import (
	"context"
	"fmt"
	"sync"

	"github.com/casbin/casbin/v2"
	fileadapter "github.com/casbin/casbin/v2/persist/file-adapter"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Resolver turns role slugs into a Capabilities set using casbin policies of
// the form "p, role:<slug>, <permission>" with "g, role:<a>, role:<b>"
// inheritance.
type Resolver struct {
	cfg          Config
	enforcer     *casbin.Enforcer
	logger       *logrus.Entry
	flagProvider FlagProvider
	mu           sync.RWMutex
}

// NewResolver constructs a Resolver with the provided config.
func NewResolver(cfg Config) (*Resolver, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	cfg = cfg.normalized()

	var logger *logrus.Entry
	if cfg.Logger != nil {
		logger = cfg.Logger.WithField("component", "authz")
	} else {
		logger = logrus.WithField("component", "authz")
	}

	enf, err := casbin.NewEnforcer(cfg.ModelPath, fileadapter.NewAdapter(cfg.PolicyPath))
	if err != nil {
		return nil, fmt.Errorf("authz: failed to initialize enforcer: %w", err)
	}
	if err := enf.LoadPolicy(); err != nil {
		return nil, fmt.Errorf("authz: failed to load policies: %w", err)
	}

	provider := cfg.FlagProvider
	if provider == nil {
		provider = NewFileFlagProvider(cfg.FlagPath, cfg.FlagMode)
	}

	return &Resolver{
		cfg:          cfg,
		enforcer:     enf,
		logger:       logger,
		flagProvider: provider,
	}, nil
}

func (r *Resolver) Mode() Mode {
	return r.flagProvider.Mode()
}

// Capabilities resolves the union of permissions granted to roles.
func (r *Resolver) Capabilities(ctx context.Context, roles []string) (Capabilities, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var perms []Permission
	for _, role := range roles {
		rules, err := r.enforcer.GetImplicitPermissionsForUser(SubjectForRole(role))
		if err != nil {
			return Capabilities{}, fmt.Errorf("authz: resolve role %q: %w", role, err)
		}
		for _, rule := range rules {
			if len(rule) < 2 {
				continue
			}
			p, ok := ParsePermission(rule[1])
			if !ok {
				r.logger.WithContext(ctx).WithFields(logrus.Fields{
					"role":       role,
					"permission": rule[1],
				}).Warn("authz: unknown permission in policy")
				continue
			}
			perms = append(perms, p)
		}
	}
	return NewCapabilities(perms...), nil
}

// Resolve builds the request Actor from the caller's role slugs.
func (r *Resolver) Resolve(ctx context.Context, tenantID, employeeID uuid.UUID, discordID, displayName string, roles []string) (Actor, error) {
	mode := r.Mode()
	caps, err := r.Capabilities(ctx, roles)
	if err != nil {
		return Actor{}, err
	}
	return Actor{
		ID:           employeeID,
		TenantID:     tenantID,
		DiscordID:    discordID,
		DisplayName:  displayName,
		Roles:        roles,
		Capabilities: caps,
		Mode:         mode,
	}, nil
}

// HasRole reports whether the policy grants slug anything, directly or
// through inheritance.
func (r *Resolver) HasRole(slug string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rules, err := r.enforcer.GetImplicitPermissionsForUser(SubjectForRole(slug))
	return err == nil && len(rules) > 0
}

// ReloadPolicy reloads policy data from disk.
func (r *Resolver) ReloadPolicy(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.enforcer.LoadPolicy(); err != nil {
		return fmt.Errorf("authz: reload policy failed: %w", err)
	}
	r.logger.WithContext(ctx).Info("authz policy reloaded")
	return nil
}

// SubjectForRole returns the canonical casbin subject for a role slug.
func SubjectForRole(slug string) string {
	return "role:" + normalizeSlug(slug)
}
