package services

import (
	"bytes"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iota-uz/precinct/modules/hrm/domain/aggregates/employee"
	"github.com/iota-uz/precinct/modules/incentive/domain/payment"
	"github.com/iota-uz/precinct/modules/recruitment/domain/aggregates/application"
	"github.com/iota-uz/precinct/modules/recruitment/domain/entities/blacklist"
	"github.com/iota-uz/precinct/modules/recruitment/domain/entities/config"
	"github.com/iota-uz/precinct/pkg/authz"
	"github.com/iota-uz/precinct/pkg/serrors"
)

func png(suffix string) *bytes.Reader {
	return bytes.NewReader(append([]byte("\x89PNG\r\n\x1a\n"), suffix...))
}

func TestApplicationService_SubmitCriteria(t *testing.T) {
	f := newFixture(t)
	svc := f.applicationService()

	a, err := svc.Create(f.ctx, f.chief(), CreateApplicationDTO{ApplicantName: "Jane Doe"})
	require.NoError(t, err)

	_, res, err := svc.SubmitCriteria(f.ctx, f.chief(), a.ID(), nil)
	require.NoError(t, err)
	assert.False(t, res.Advanced)
	assert.True(t, res.NoneActive)

	items := f.configure(t, config.KindCriterion, "Is 18 or older", "Has a microphone")
	unmet, res, err := svc.SubmitCriteria(f.ctx, f.chief(), a.ID(), map[uuid.UUID]bool{items[0].ID: true})
	require.NoError(t, err)
	assert.False(t, res.Advanced)
	assert.Equal(t, application.StatusCriteria, unmet.Status())
	require.Len(t, res.Unmet, 1)
	assert.Equal(t, "Has a microphone", res.Unmet[0].Label)

	// Deactivated criteria no longer count.
	off := false
	_, err = f.configService().Update(f.ctx, f.chief(), items[1].ID, ItemDTO{Label: items[1].Label, Active: &off})
	require.NoError(t, err)
	advanced, res, err := svc.SubmitCriteria(f.ctx, f.chief(), a.ID(), map[uuid.UUID]bool{items[0].ID: true})
	require.NoError(t, err)
	assert.True(t, res.Advanced)
	assert.Equal(t, application.StatusQuestions, advanced.Status())
	assert.Equal(t, 2, advanced.Step())

	_, _, err = svc.SubmitCriteria(f.ctx, f.chief(), a.ID(), nil)
	require.ErrorIs(t, err, application.ErrInvalidStateTransition)
}

func TestApplicationService_SubmitQuestionsThreshold(t *testing.T) {
	f := newFixture(t)
	svc := f.applicationService()
	criteria := f.configure(t, config.KindCriterion, "Is 18 or older")
	questions := f.configure(t, config.KindQuestion, "Q1", "Q2", "Q3", "Q4")

	a, err := svc.Create(f.ctx, f.chief(), CreateApplicationDTO{ApplicantName: "Jane Doe"})
	require.NoError(t, err)
	_, _, err = svc.SubmitCriteria(f.ctx, f.chief(), a.ID(), map[uuid.UUID]bool{criteria[0].ID: true})
	require.NoError(t, err)

	// ceil(70% of 4) = 3
	held, res, err := svc.SubmitQuestions(f.ctx, f.chief(), a.ID(), ids(questions[:2]))
	require.NoError(t, err)
	assert.False(t, res.Advanced)
	assert.Equal(t, 2, res.Answered)
	assert.Equal(t, 3, res.Required)
	assert.Len(t, res.Unanswered, 2)
	assert.Equal(t, application.StatusQuestions, held.Status())

	advanced, res, err := svc.SubmitQuestions(f.ctx, f.chief(), a.ID(), append(ids(questions[:3]), uuid.New()))
	require.NoError(t, err)
	assert.True(t, res.Advanced)
	assert.Equal(t, application.StatusOnboarding, advanced.Status())
}

func TestApplicationService_SubmitOnboardingNeverTransitions(t *testing.T) {
	f := newFixture(t)
	svc := f.applicationService()
	a := f.onboarding(t, svc, "Jane Doe", "")
	checklist := f.configure(t, config.KindChecklist, "Read the handbook", "Joined radio")

	partial, res, err := svc.SubmitOnboarding(f.ctx, f.chief(), a.ID(), OnboardingDTO{Completed: ids(checklist[:1])})
	require.NoError(t, err)
	assert.False(t, res.AllComplete)
	assert.Equal(t, 1, res.Completed)
	assert.Equal(t, 2, res.Total)
	assert.Equal(t, application.StatusOnboarding, partial.Status())

	done, res, err := svc.SubmitOnboarding(f.ctx, f.chief(), a.ID(), OnboardingDTO{
		Completed:   ids(checklist),
		DiscordID:   "3001",
		DiscordName: "jane",
	})
	require.NoError(t, err)
	assert.True(t, res.AllComplete)
	assert.Equal(t, application.StatusOnboarding, done.Status())
	assert.Equal(t, "3001", done.DiscordID())
	assert.Equal(t, "jane", done.DiscordName())
}

func TestApplicationService_Complete(t *testing.T) {
	f := newFixture(t)
	svc := f.applicationService()
	a := f.onboarding(t, svc, "Jane Doe", "3001")

	completed, err := svc.Complete(f.ctx, f.chief(), a.ID())
	require.NoError(t, err)
	assert.Equal(t, application.StatusCompleted, completed.Status())
	assert.Equal(t, 4, completed.Step())
	assert.NotNil(t, completed.ProcessedAt())
	require.NotEqual(t, uuid.Nil, completed.EmployeeID())

	hired, err := f.employees.GetByID(f.ctx, completed.EmployeeID())
	require.NoError(t, err)
	assert.Equal(t, 1, hired.RankLevel())
	assert.Equal(t, "G-01", hired.BadgeNumber())
	assert.Equal(t, "3001", hired.DiscordID())
	assert.Equal(t, []string{employee.TopicHired, payment.TopicTriggered}, f.recorder.Topics())

	_, err = svc.Complete(f.ctx, f.chief(), a.ID())
	require.ErrorIs(t, err, application.ErrInvalidStateTransition)
}

func TestApplicationService_CompleteRequiresIdentity(t *testing.T) {
	f := newFixture(t)
	svc := f.applicationService()
	a := f.onboarding(t, svc, "Jane Doe", "")

	_, err := svc.Complete(f.ctx, f.chief(), a.ID())
	require.ErrorIs(t, err, serrors.ErrValidation)
}

func TestApplicationService_CompleteBlacklisted(t *testing.T) {
	f := newFixture(t)
	svc := f.applicationService()
	a := f.onboarding(t, svc, "Jane Doe", "3001")
	require.NoError(t, f.blacklist.Create(f.ctx, blacklist.New("3001", "Jane Doe", "cheating", uuid.Nil, uuid.Nil, nil)))

	_, err := svc.Complete(f.ctx, f.chief(), a.ID())
	require.ErrorIs(t, err, application.ErrBlacklisted)

	_, total, err := f.employees.GetPaginated(f.ctx, nil)
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, f.recorder.Topics())

	current, err := svc.GetByID(f.ctx, f.chief(), a.ID())
	require.NoError(t, err)
	assert.Equal(t, application.StatusOnboarding, current.Status())
}

func TestApplicationService_CompleteIgnoresExpiredBlacklist(t *testing.T) {
	f := newFixture(t)
	svc := f.applicationService()
	a := f.onboarding(t, svc, "Jane Doe", "3001")
	expired := time.Now().Add(-time.Hour)
	require.NoError(t, f.blacklist.Create(f.ctx, blacklist.New("3001", "Jane Doe", "cheating", uuid.Nil, uuid.Nil, &expired)))

	_, err := svc.Complete(f.ctx, f.chief(), a.ID())
	require.NoError(t, err)
}

func TestApplicationService_CompleteAlreadyEmployed(t *testing.T) {
	f := newFixture(t)
	svc := f.applicationService()
	_, err := f.employeeService().Hire(f.ctx, "3001", "Jane Doe", uuid.New())
	require.NoError(t, err)
	a := f.onboarding(t, svc, "Jane Doe", "3001")

	_, err = svc.Complete(f.ctx, f.chief(), a.ID())
	require.ErrorIs(t, err, application.ErrAlreadyEmployed)

	_, total, err := f.employees.GetPaginated(f.ctx, nil)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
}

func TestApplicationService_RejectWithBlacklist(t *testing.T) {
	f := newFixture(t)
	svc := f.applicationService()

	first, err := svc.Create(f.ctx, f.chief(), CreateApplicationDTO{ApplicantName: "Jane Doe", DiscordID: "3001"})
	require.NoError(t, err)
	_, err = svc.Reject(f.ctx, f.chief(), first.ID(), RejectDTO{Reason: " "})
	require.ErrorIs(t, err, serrors.ErrValidation)

	rejected, err := svc.Reject(f.ctx, f.chief(), first.ID(), RejectDTO{Reason: "failed interview", Blacklist: true})
	require.NoError(t, err)
	assert.Equal(t, application.StatusRejected, rejected.Status())
	assert.Equal(t, 0, rejected.Step())
	assert.Equal(t, "failed interview", rejected.RejectionReason())

	// A second rejection keeps the existing entry.
	second, err := svc.Create(f.ctx, f.chief(), CreateApplicationDTO{ApplicantName: "Jane Doe", DiscordID: "3001"})
	require.NoError(t, err)
	_, err = svc.Reject(f.ctx, f.chief(), second.ID(), RejectDTO{Reason: "again", Blacklist: true})
	require.NoError(t, err)

	entries, err := f.configService().Blacklist(f.ctx, f.chief())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, first.ID(), entries[0].ApplicationID)
	assert.Nil(t, entries[0].ExpiresAt)

	_, err = svc.Reject(f.ctx, f.chief(), first.ID(), RejectDTO{Reason: "twice"})
	require.ErrorIs(t, err, application.ErrInvalidStateTransition)
}

func TestApplicationService_IDCardLifecycle(t *testing.T) {
	f := newFixture(t)
	svc := f.applicationService()
	a, err := svc.Create(f.ctx, f.chief(), CreateApplicationDTO{ApplicantName: "Jane Doe"})
	require.NoError(t, err)

	_, err = svc.UploadIDCard(f.ctx, f.chief(), a.ID(), "id.txt", bytes.NewReader([]byte("plain text")))
	require.Error(t, err)

	first, err := svc.UploadIDCard(f.ctx, f.chief(), a.ID(), "id.png", png("one"))
	require.NoError(t, err)
	data, err := svc.IDCard(f.ctx, f.chief(), a.ID())
	require.NoError(t, err)
	assert.Equal(t, append([]byte("\x89PNG\r\n\x1a\n"), "one"...), data)

	second, err := svc.UploadIDCard(f.ctx, f.chief(), a.ID(), "id.png", png("two"))
	require.NoError(t, err)
	assert.NotEqual(t, first.IDCardPath(), second.IDCardPath())
	_, err = f.blobs.Retrieve(f.ctx, first.IDCardPath())
	require.Error(t, err)

	require.NoError(t, svc.Delete(f.ctx, f.chief(), a.ID()))
	_, err = f.blobs.Retrieve(f.ctx, second.IDCardPath())
	require.Error(t, err)
	_, err = svc.GetByID(f.ctx, f.chief(), a.ID())
	require.ErrorIs(t, err, application.ErrNotFound)
}

func TestApplicationService_CreateInvite(t *testing.T) {
	f := newFixture(t)
	svc := f.applicationService()
	a, err := svc.Create(f.ctx, f.chief(), CreateApplicationDTO{ApplicantName: "Jane Doe"})
	require.NoError(t, err)

	_, err = svc.CreateInvite(f.ctx, f.chief(), a.ID())
	require.ErrorIs(t, err, application.ErrInvalidStateTransition)

	a = f.onboarding(t, svc, "John Roe", "3002")
	invited, err := svc.CreateInvite(f.ctx, f.chief(), a.ID())
	require.NoError(t, err)
	assert.Equal(t, "https://discord.gg/test1", invited.InviteURL())
}

func TestApplicationService_PermissionsCheckedFirst(t *testing.T) {
	f := newFixture(t)
	svc := f.applicationService()
	a := f.onboarding(t, svc, "Jane Doe", "3001")
	reader := f.actor(authz.ApplicationsRead)

	_, err := svc.Create(f.ctx, reader, CreateApplicationDTO{ApplicantName: "x"})
	require.ErrorIs(t, err, authz.ErrPermissionDenied)
	_, err = svc.Complete(f.ctx, reader, a.ID())
	require.ErrorIs(t, err, authz.ErrPermissionDenied)
	_, err = svc.Reject(f.ctx, reader, a.ID(), RejectDTO{Reason: "x"})
	require.ErrorIs(t, err, authz.ErrPermissionDenied)
	require.ErrorIs(t, svc.Delete(f.ctx, reader, a.ID()), authz.ErrPermissionDenied)

	_, err = svc.GetByID(f.ctx, f.actor(), a.ID())
	require.ErrorIs(t, err, authz.ErrPermissionDenied)

	got, err := svc.GetByID(f.ctx, reader, a.ID())
	require.NoError(t, err)
	assert.Equal(t, application.StatusOnboarding, got.Status())
}

func TestApplicationService_DeleteWithoutCardLeavesUploads(t *testing.T) {
	f := newFixture(t)
	svc := f.applicationService()
	a, err := svc.Create(f.ctx, f.chief(), CreateApplicationDTO{ApplicantName: "Jane Doe"})
	require.NoError(t, err)
	other, err := svc.Create(f.ctx, f.chief(), CreateApplicationDTO{ApplicantName: "John Roe"})
	require.NoError(t, err)
	withCard, err := svc.UploadIDCard(f.ctx, f.chief(), other.ID(), "id.png", png("keep"))
	require.NoError(t, err)

	require.NoError(t, svc.Delete(f.ctx, f.chief(), a.ID()))
	require.ErrorIs(t, svc.Delete(f.ctx, f.chief(), a.ID()), application.ErrNotFound)

	_, err = f.blobs.Retrieve(f.ctx, withCard.IDCardPath())
	require.NoError(t, err)
}
