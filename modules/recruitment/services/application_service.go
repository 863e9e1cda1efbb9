package services

import (
	"context"
	"errors"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/iota-uz/precinct/modules/incentive/domain/payment"
	"github.com/iota-uz/precinct/modules/recruitment/domain/aggregates/application"
	"github.com/iota-uz/precinct/modules/recruitment/domain/entities/blacklist"
	"github.com/iota-uz/precinct/modules/recruitment/domain/entities/config"
	"github.com/iota-uz/precinct/pkg/authz"
	"github.com/iota-uz/precinct/pkg/blob"
	"github.com/iota-uz/precinct/pkg/composables"
	"github.com/iota-uz/precinct/pkg/discord"
	"github.com/iota-uz/precinct/pkg/serrors"
)

const DefaultQuestionThreshold = 70

type CreateApplicationDTO struct {
	ApplicantName string `json:"applicant_name" validate:"required,max=100"`
	DiscordID     string `json:"discord_id" validate:"omitempty,numeric,max=32"`
	Notes         string `json:"notes" validate:"max=2000"`
}

type OnboardingDTO struct {
	Completed   []uuid.UUID `json:"completed"`
	DiscordID   string      `json:"discord_id" validate:"omitempty,numeric,max=32"`
	DiscordName string      `json:"discord_name" validate:"max=100"`
}

type RejectDTO struct {
	Reason    string `json:"reason" validate:"required,max=1000"`
	Blacklist bool   `json:"blacklist"`
	// BlacklistUntil leaves the entry permanent when nil.
	BlacklistUntil *time.Time `json:"blacklist_until"`
}

type ApplicationServiceOptions struct {
	Repo       application.Repository
	Configs    config.Repository
	Blacklist  blacklist.Repository
	Hirer      Hirer
	Incentives IncentiveEmitter
	Blobs      blob.Store
	Profiles   discord.Profiles
	Transactor composables.Transactor
	// QuestionThreshold is the percentage of active questions that must be
	// answered. Zero means DefaultQuestionThreshold.
	QuestionThreshold int
	InviteTTL         time.Duration
}

type ApplicationService struct {
	repo       application.Repository
	configs    config.Repository
	blacklist  blacklist.Repository
	hirer      Hirer
	incentives IncentiveEmitter
	blobs      blob.Store
	profiles   discord.Profiles
	transactor composables.Transactor
	threshold  int
	inviteTTL  time.Duration
}

func NewApplicationService(opts ApplicationServiceOptions) *ApplicationService {
	if opts.QuestionThreshold <= 0 {
		opts.QuestionThreshold = DefaultQuestionThreshold
	}
	if opts.InviteTTL <= 0 {
		opts.InviteTTL = 24 * time.Hour
	}
	if opts.Profiles == nil {
		opts.Profiles = discord.Noop{}
	}
	return &ApplicationService{
		repo:       opts.Repo,
		configs:    opts.Configs,
		blacklist:  opts.Blacklist,
		hirer:      opts.Hirer,
		incentives: opts.Incentives,
		blobs:      opts.Blobs,
		profiles:   opts.Profiles,
		transactor: opts.Transactor,
		threshold:  opts.QuestionThreshold,
		inviteTTL:  opts.InviteTTL,
	}
}

func (s *ApplicationService) Create(ctx context.Context, actor authz.Actor, dto CreateApplicationDTO) (application.Application, error) {
	if err := actor.Require(authz.ApplicationsProcess); err != nil {
		return application.Application{}, err
	}
	if strings.TrimSpace(dto.ApplicantName) == "" {
		return application.Application{}, serrors.ValidationErrors{"applicant_name": "is required"}.AsError()
	}
	return composables.InTxResult(ctx, s.transactor, func(txCtx context.Context) (application.Application, error) {
		tenantID, err := composables.UseTenantID(txCtx)
		if err != nil {
			return application.Application{}, err
		}
		a := application.New(tenantID, dto.ApplicantName, dto.DiscordID, dto.Notes)
		if err := s.repo.Create(txCtx, a); err != nil {
			return application.Application{}, err
		}
		composables.UseLogger(txCtx).WithField("application_id", a.ID()).Info("application opened")
		return a, nil
	})
}

func (s *ApplicationService) GetByID(ctx context.Context, actor authz.Actor, id uuid.UUID) (application.Application, error) {
	if err := actor.Require(authz.ApplicationsRead); err != nil {
		return application.Application{}, err
	}
	return composables.InTxResult(ctx, s.transactor, func(txCtx context.Context) (application.Application, error) {
		return s.repo.GetByID(txCtx, id)
	})
}

func (s *ApplicationService) GetPaginated(ctx context.Context, actor authz.Actor, params *application.FindParams) ([]application.Application, int64, error) {
	if err := actor.Require(authz.ApplicationsRead); err != nil {
		return nil, 0, err
	}
	var (
		list  []application.Application
		total int64
	)
	err := s.transactor.InTx(ctx, func(txCtx context.Context) error {
		var err error
		list, total, err = s.repo.GetPaginated(txCtx, params)
		return err
	})
	return list, total, err
}

// SubmitCriteria stores the eligibility answers. Unmet criteria are reported
// in the result and are not an error.
func (s *ApplicationService) SubmitCriteria(ctx context.Context, actor authz.Actor, id uuid.UUID, values map[uuid.UUID]bool) (application.Application, application.CriteriaResult, error) {
	if err := actor.Require(authz.ApplicationsProcess); err != nil {
		return application.Application{}, application.CriteriaResult{}, err
	}
	var res application.CriteriaResult
	a, err := s.mutate(ctx, id, func(txCtx context.Context, a application.Application) (application.Application, error) {
		active, err := s.requirements(txCtx, config.KindCriterion)
		if err != nil {
			return a, err
		}
		a, res, err = a.SubmitCriteria(values, active)
		return a, err
	})
	if err != nil {
		return application.Application{}, application.CriteriaResult{}, err
	}
	stepSubmissionsTotal.WithLabelValues("criteria", strconv.FormatBool(res.Advanced)).Inc()
	return a, res, nil
}

func (s *ApplicationService) SubmitQuestions(ctx context.Context, actor authz.Actor, id uuid.UUID, answered []uuid.UUID) (application.Application, application.QuestionsResult, error) {
	if err := actor.Require(authz.ApplicationsProcess); err != nil {
		return application.Application{}, application.QuestionsResult{}, err
	}
	var res application.QuestionsResult
	a, err := s.mutate(ctx, id, func(txCtx context.Context, a application.Application) (application.Application, error) {
		active, err := s.requirements(txCtx, config.KindQuestion)
		if err != nil {
			return a, err
		}
		a, res, err = a.SubmitQuestions(answered, active, s.threshold)
		return a, err
	})
	if err != nil {
		return application.Application{}, application.QuestionsResult{}, err
	}
	stepSubmissionsTotal.WithLabelValues("questions", strconv.FormatBool(res.Advanced)).Inc()
	return a, res, nil
}

func (s *ApplicationService) SubmitOnboarding(ctx context.Context, actor authz.Actor, id uuid.UUID, dto OnboardingDTO) (application.Application, application.OnboardingResult, error) {
	if err := actor.Require(authz.ApplicationsProcess); err != nil {
		return application.Application{}, application.OnboardingResult{}, err
	}
	var res application.OnboardingResult
	a, err := s.mutate(ctx, id, func(txCtx context.Context, a application.Application) (application.Application, error) {
		active, err := s.requirements(txCtx, config.KindChecklist)
		if err != nil {
			return a, err
		}
		a, res, err = a.SubmitOnboarding(dto.Completed, dto.DiscordID, dto.DiscordName, active)
		return a, err
	})
	if err != nil {
		return application.Application{}, application.OnboardingResult{}, err
	}
	stepSubmissionsTotal.WithLabelValues("onboarding", strconv.FormatBool(res.AllComplete)).Inc()
	return a, res, nil
}

// UploadIDCard stores the document and attaches it. A replaced document is
// removed once the new path is committed; a failed attach removes the new
// one.
func (s *ApplicationService) UploadIDCard(ctx context.Context, actor authz.Actor, id uuid.UUID, name string, r io.Reader) (application.Application, error) {
	if err := actor.Require(authz.ApplicationsProcess); err != nil {
		return application.Application{}, err
	}
	obj, err := s.blobs.Store(ctx, name, r)
	if err != nil {
		return application.Application{}, err
	}
	var prev string
	a, err := s.mutate(ctx, id, func(txCtx context.Context, a application.Application) (application.Application, error) {
		var err error
		a, prev, err = a.AttachIDCard(obj.Path)
		return a, err
	})
	if err != nil {
		if derr := s.blobs.Delete(ctx, obj.Path); derr != nil {
			composables.UseLogger(ctx).WithError(derr).Warn("failed to remove orphaned id card")
		}
		return application.Application{}, err
	}
	if prev != "" && prev != obj.Path {
		if err := s.blobs.Delete(ctx, prev); err != nil {
			composables.UseLogger(ctx).WithError(err).WithField("path", prev).Warn("failed to remove replaced id card")
		}
	}
	return a, nil
}

func (s *ApplicationService) IDCard(ctx context.Context, actor authz.Actor, id uuid.UUID) ([]byte, error) {
	a, err := s.GetByID(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if a.IDCardPath() == "" {
		return nil, blob.ErrNotFound
	}
	return s.blobs.Retrieve(ctx, a.IDCardPath())
}

// CreateInvite issues a single-use guild invite for an onboarding applicant.
// The platform call happens outside the transaction.
func (s *ApplicationService) CreateInvite(ctx context.Context, actor authz.Actor, id uuid.UUID) (application.Application, error) {
	if err := actor.Require(authz.ApplicationsProcess); err != nil {
		return application.Application{}, err
	}
	current, err := s.GetByID(ctx, actor, id)
	if err != nil {
		return application.Application{}, err
	}
	if current.Status() != application.StatusOnboarding {
		return application.Application{}, application.ErrInvalidStateTransition.WithMessage("invites are issued during onboarding")
	}
	url, err := s.profiles.CreateInviteLink(ctx, s.inviteTTL, 1)
	if err != nil {
		return application.Application{}, err
	}
	return s.mutate(ctx, id, func(_ context.Context, a application.Application) (application.Application, error) {
		return a.SetInvite(url)
	})
}

// Complete hires the applicant. The blacklist and employment checks run
// under the application row lock in the same transaction as the hire.
func (s *ApplicationService) Complete(ctx context.Context, actor authz.Actor, id uuid.UUID) (application.Application, error) {
	if err := actor.Require(authz.ApplicationsComplete); err != nil {
		return application.Application{}, err
	}
	a, err := s.mutate(ctx, id, func(txCtx context.Context, a application.Application) (application.Application, error) {
		if a.Status() != application.StatusOnboarding {
			return a, application.ErrInvalidStateTransition.WithMessage("application is %s, expected %s", a.Status(), application.StatusOnboarding)
		}
		if a.DiscordID() == "" {
			return a, serrors.ValidationErrors{"discord_id": "external identity is not linked"}.AsError()
		}
		entry, err := s.blacklist.GetByDiscordID(txCtx, a.DiscordID())
		switch {
		case err == nil && entry.ActiveAt(time.Now()):
			return a, application.ErrBlacklisted.WithDetails(map[string]any{"reason": entry.Reason})
		case err != nil && !errors.Is(err, blacklist.ErrNotFound):
			return a, err
		}
		employed, err := s.hirer.ExistsByDiscordID(txCtx, a.DiscordID())
		if err != nil {
			return a, err
		}
		if employed {
			return a, application.ErrAlreadyEmployed
		}
		name := a.DiscordName()
		if name == "" {
			name = a.ApplicantName()
		}
		employeeID, err := s.hirer.Hire(txCtx, a.DiscordID(), name, actor.ID)
		if err != nil {
			return a, err
		}
		completed, err := a.Complete(employeeID, actor.ID, time.Now())
		if err != nil {
			return a, err
		}
		if err := s.incentives.Emit(txCtx, payment.ApplicationProcessed, actor.ID, a.ApplicantName(), a.ID().String()); err != nil {
			return a, err
		}
		return completed, nil
	})
	if err != nil {
		return application.Application{}, err
	}
	decisionsTotal.WithLabelValues("completed").Inc()
	composables.UseLogger(ctx).WithFields(logrus.Fields{
		"application_id": a.ID(),
		"employee_id":    a.EmployeeID(),
	}).Info("application completed")
	return a, nil
}

// Reject closes the application. With dto.Blacklist an entry is added for
// the linked identity unless one already exists.
func (s *ApplicationService) Reject(ctx context.Context, actor authz.Actor, id uuid.UUID, dto RejectDTO) (application.Application, error) {
	if err := actor.Require(authz.ApplicationsReject); err != nil {
		return application.Application{}, err
	}
	a, err := s.mutate(ctx, id, func(txCtx context.Context, a application.Application) (application.Application, error) {
		rejected, err := a.Reject(dto.Reason, actor.ID, time.Now())
		if err != nil {
			return a, err
		}
		if !dto.Blacklist {
			return rejected, nil
		}
		if rejected.DiscordID() == "" {
			return a, serrors.ValidationErrors{"discord_id": "external identity is not linked"}.AsError()
		}
		_, err = s.blacklist.GetByDiscordID(txCtx, rejected.DiscordID())
		switch {
		case err == nil:
			return rejected, nil
		case !errors.Is(err, blacklist.ErrNotFound):
			return a, err
		}
		entry := blacklist.New(rejected.DiscordID(), rejected.ApplicantName(), rejected.RejectionReason(), rejected.ID(), actor.ID, dto.BlacklistUntil)
		if err := s.blacklist.Create(txCtx, entry); err != nil {
			return a, err
		}
		return rejected, nil
	})
	if err != nil {
		return application.Application{}, err
	}
	decisionsTotal.WithLabelValues("rejected").Inc()
	return a, nil
}

// Delete removes the application and, after commit, its ID card.
func (s *ApplicationService) Delete(ctx context.Context, actor authz.Actor, id uuid.UUID) error {
	if err := actor.Require(authz.ApplicationsDelete); err != nil {
		return err
	}
	return s.transactor.InTx(ctx, func(txCtx context.Context) error {
		a, err := s.repo.GetByIDForUpdate(txCtx, id)
		if err != nil {
			return err
		}
		if err := s.repo.Delete(txCtx, id); err != nil {
			return err
		}
		if path := a.IDCardPath(); path != "" {
			composables.AfterCommit(txCtx, func(ctx context.Context) {
				if err := s.blobs.Delete(ctx, path); err != nil {
					composables.UseLogger(ctx).WithError(err).WithField("path", path).Warn("failed to remove id card")
				}
			})
		}
		return nil
	})
}

func (s *ApplicationService) mutate(ctx context.Context, id uuid.UUID, fn func(context.Context, application.Application) (application.Application, error)) (application.Application, error) {
	return composables.InTxResult(ctx, s.transactor, func(txCtx context.Context) (application.Application, error) {
		a, err := s.repo.GetByIDForUpdate(txCtx, id)
		if err != nil {
			return application.Application{}, err
		}
		updated, err := fn(txCtx, a)
		if err != nil {
			return application.Application{}, err
		}
		if err := s.repo.Update(txCtx, updated); err != nil {
			return application.Application{}, err
		}
		return updated, nil
	})
}

func (s *ApplicationService) requirements(ctx context.Context, kind config.Kind) ([]application.Requirement, error) {
	items, err := s.configs.List(ctx, kind)
	if err != nil {
		return nil, err
	}
	return config.Requirements(items), nil
}
