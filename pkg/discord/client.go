package discord

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/iota-uz/precinct/pkg/configuration"
)

const maxNicknameLength = 32

type Client struct {
	http            *http.Client
	base            string
	token           string
	guildID         string
	inviteChannelID string
	logger          *logrus.Entry
}

func NewClient(opts configuration.DiscordOptions, logger *logrus.Entry) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Client{
		http:            &http.Client{Timeout: timeout},
		base:            strings.TrimRight(opts.APIBase, "/"),
		token:           opts.BotToken,
		guildID:         opts.GuildID,
		inviteChannelID: opts.InviteChannelID,
		logger:          logger.WithField("component", "discord"),
	}
}

type member struct {
	Roles []string `json:"roles"`
	Nick  *string  `json:"nick"`
}

func (c *Client) GetMemberRoles(ctx context.Context, externalID string) ([]string, error) {
	var m member
	if err := c.do(ctx, http.MethodGet, c.memberPath(externalID), nil, "", &m); err != nil {
		return nil, err
	}
	return m.Roles, nil
}

// SetMemberRoles writes the resulting role list with a single member PATCH,
// so the guild never observes a half-applied batch.
func (c *Client) SetMemberRoles(ctx context.Context, externalID string, add, remove []string) error {
	if len(add) == 0 && len(remove) == 0 {
		return nil
	}
	current, err := c.GetMemberRoles(ctx, externalID)
	if err != nil {
		return err
	}
	removeSet := make(map[string]struct{}, len(remove))
	for _, r := range remove {
		removeSet[r] = struct{}{}
	}
	seen := map[string]struct{}{}
	next := make([]string, 0, len(current)+len(add))
	for _, r := range append(current, add...) {
		if _, drop := removeSet[r]; drop {
			continue
		}
		if _, dup := seen[r]; dup {
			continue
		}
		seen[r] = struct{}{}
		next = append(next, r)
	}
	return c.do(ctx, http.MethodPatch, c.memberPath(externalID), map[string]any{"roles": next}, "unit roles updated", nil)
}

func (c *Client) UpdateDisplayName(ctx context.Context, externalID, name string) error {
	if r := []rune(name); len(r) > maxNicknameLength {
		name = string(r[:maxNicknameLength])
	}
	return c.do(ctx, http.MethodPatch, c.memberPath(externalID), map[string]any{"nick": name}, "profile sync", nil)
}

func (c *Client) KickMember(ctx context.Context, externalID, reason string) error {
	return c.do(ctx, http.MethodDelete, c.memberPath(externalID), nil, reason, nil)
}

func (c *Client) CreateInviteLink(ctx context.Context, ttl time.Duration, maxUses int) (string, error) {
	if c.inviteChannelID == "" {
		return "", ErrUpstream.WithMessage("invite channel is not configured")
	}
	var out struct {
		Code string `json:"code"`
	}
	body := map[string]any{
		"max_age":  int(ttl.Seconds()),
		"max_uses": maxUses,
		"unique":   true,
	}
	if err := c.do(ctx, http.MethodPost, "/channels/"+url.PathEscape(c.inviteChannelID)+"/invites", body, "onboarding invite", &out); err != nil {
		return "", err
	}
	return "https://discord.gg/" + out.Code, nil
}

func (c *Client) Announce(ctx context.Context, channelID, content string) error {
	if channelID == "" {
		return nil
	}
	return c.do(ctx, http.MethodPost, "/channels/"+url.PathEscape(channelID)+"/messages", map[string]any{"content": content}, "", nil)
}

func (c *Client) memberPath(externalID string) string {
	return "/guilds/" + url.PathEscape(c.guildID) + "/members/" + url.PathEscape(externalID)
}

func (c *Client) do(ctx context.Context, method, path string, body any, auditReason string, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bot "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if auditReason != "" {
		req.Header.Set("X-Audit-Log-Reason", url.PathEscape(auditReason))
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.WithError(err).WithField("path", path).Warn("discord request failed")
		return ErrUpstream.Wrap(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.logger.WithFields(logrus.Fields{
			"path":   path,
			"method": method,
			"status": resp.StatusCode,
		}).Warn("discord request rejected")
		return ErrUpstream.Wrap(fmt.Errorf("%s %s: status %d: %s", method, path, resp.StatusCode, strings.TrimSpace(string(snippet))))
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return ErrUpstream.Wrap(err)
	}
	return nil
}
