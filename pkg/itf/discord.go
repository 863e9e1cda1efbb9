package itf

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/iota-uz/precinct/pkg/discord"
)

// FakeDiscord is an in-memory discord.Gateway recording every call.
type FakeDiscord struct {
	mu        sync.Mutex
	roles     map[string][]string
	names     map[string]string
	kicked    []string
	announced []string
	invites   int

	// FailWrites makes SetMemberRoles fail with discord.ErrUpstream.
	FailWrites bool
}

var _ discord.Gateway = (*FakeDiscord)(nil)

func NewFakeDiscord() *FakeDiscord {
	return &FakeDiscord{
		roles: map[string][]string{},
		names: map[string]string{},
	}
}

// SeedRoles sets the roles the member currently holds.
func (f *FakeDiscord) SeedRoles(externalID string, roles ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.roles[externalID] = append([]string(nil), roles...)
}

func (f *FakeDiscord) Roles(externalID string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := append([]string(nil), f.roles[externalID]...)
	slices.Sort(out)
	return out
}

func (f *FakeDiscord) DisplayName(externalID string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.names[externalID]
}

func (f *FakeDiscord) Kicked() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.kicked...)
}

func (f *FakeDiscord) Announcements() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.announced...)
}

func (f *FakeDiscord) GetMemberRoles(_ context.Context, externalID string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.roles[externalID]...), nil
}

func (f *FakeDiscord) SetMemberRoles(_ context.Context, externalID string, add, remove []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FailWrites {
		return discord.ErrUpstream.WithMessage("fake: role update rejected")
	}
	current := f.roles[externalID]
	next := make([]string, 0, len(current)+len(add))
	for _, r := range current {
		if !slices.Contains(remove, r) {
			next = append(next, r)
		}
	}
	for _, r := range add {
		if !slices.Contains(next, r) {
			next = append(next, r)
		}
	}
	f.roles[externalID] = next
	return nil
}

func (f *FakeDiscord) UpdateDisplayName(_ context.Context, externalID, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.names[externalID] = name
	return nil
}

func (f *FakeDiscord) KickMember(_ context.Context, externalID, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.kicked = append(f.kicked, externalID)
	return nil
}

func (f *FakeDiscord) CreateInviteLink(context.Context, time.Duration, int) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.invites++
	return fmt.Sprintf("https://discord.gg/test%d", f.invites), nil
}

func (f *FakeDiscord) Announce(_ context.Context, channelID, content string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.announced = append(f.announced, content)
	return nil
}
