package identity

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/accounthub/accounthub/internal/audit"
	"github.com/accounthub/accounthub/internal/secrets"
	"github.com/accounthub/accounthub/internal/shared"
)

// Domains rejected outright even when absent from the disposable list.
var blockedDomains = map[string]struct{}{
	"qq.com": {},
}

var lowerCaser = cases.Lower(language.Und)

// Recorder receives structured audit events; fire-and-forget.
type Recorder interface {
	Record(ctx context.Context, event audit.Event)
}

// Notifier delivers invitation and recovery links. The engine never retries
// on its behalf.
type Notifier interface {
	SendInvite(ctx context.Context, user *User, link string) error
	SendPasswordReset(ctx context.Context, user *User, link string) error
}

// TokenSource issues the opaque single-use tokens behind invite and reset
// links.
type TokenSource interface {
	InviteToken(userID int64) (string, error)
	ResetToken(userID int64) (string, error)
}

// DomainChecker answers disposable-domain membership; refreshed externally.
type DomainChecker interface {
	IsBlocked(ctx context.Context, domain string) bool
}

// ServiceConfig collects the collaborators of the lifecycle engine.
type ServiceConfig struct {
	Repo     Repository
	Hasher   secrets.Hasher
	Tokens   TokenSource
	Notifier Notifier
	Denylist DomainChecker
	Audit    Recorder
	Logger   *slog.Logger
	BaseURL  string
}

// Service is the account lifecycle engine. It owns every state transition a
// user account may undergo and applies the permission evaluator's verdicts
// before touching the repository.
type Service struct {
	repo     Repository
	hasher   secrets.Hasher
	tokens   TokenSource
	notifier Notifier
	denylist DomainChecker
	audit    Recorder
	logger   *slog.Logger
	baseURL  string
	validate *validator.Validate
}

// NewService constructs the lifecycle engine.
func NewService(cfg ServiceConfig) *Service {
	return &Service{
		repo:     cfg.Repo,
		hasher:   cfg.Hasher,
		tokens:   cfg.Tokens,
		notifier: cfg.Notifier,
		denylist: cfg.Denylist,
		audit:    cfg.Audit,
		logger:   cfg.Logger,
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		validate: validator.New(),
	}
}

// CreateInput carries a create-user request.
type CreateInput struct {
	Name           string
	Email          string
	SuppressInvite bool
}

// CreateResult bundles the created user with its invite link. The link is
// computed even when delivery is suppressed so the caller can relay it
// out-of-band. DeliveryErr reports a synchronous notifier failure; the
// account itself was created.
type CreateResult struct {
	User        *User
	InviteLink  string
	DeliveryErr error
}

// InviteResult bundles the target with a freshly issued invite link.
type InviteResult struct {
	User        *User
	InviteLink  string
	DeliveryErr error
}

// ResolveActor authenticates an API key and loads the actor's capabilities.
// Disabled accounts cannot act.
func (s *Service) ResolveActor(ctx context.Context, apiKey string) (shared.Actor, error) {
	user, err := s.repo.GetByAPIKey(ctx, apiKey)
	if err != nil {
		return shared.Actor{}, fmt.Errorf("%w: unknown api key", shared.ErrUnauthorized)
	}
	if user.IsDisabled {
		return shared.Actor{}, fmt.Errorf("%w: account disabled", shared.ErrUnauthorized)
	}
	caps, err := s.repo.EffectiveCapabilities(ctx, user.ID)
	if err != nil {
		return shared.Actor{}, err
	}
	return shared.Actor{
		ID:             user.ID,
		OrganizationID: user.OrganizationID,
		Email:          user.Email,
		Capabilities:   caps,
	}, nil
}

// ListUsers returns the roster of the actor's organization.
func (s *Service) ListUsers(ctx context.Context, actor shared.Actor) ([]User, error) {
	if !actor.HasCapability(shared.CapListUsers) {
		return nil, fmt.Errorf("%w: list_users capability required", shared.ErrUnauthorized)
	}
	return s.repo.ListByOrg(ctx, actor.OrganizationID)
}

// GetUser returns the target account when the actor may view it.
func (s *Service) GetUser(ctx context.Context, actor shared.Actor, targetID int64) (*User, error) {
	if !CanRead(actor, targetID) {
		return nil, fmt.Errorf("%w: not allowed to view this account", shared.ErrUnauthorized)
	}
	return s.repo.GetByIDAndOrg(ctx, targetID, actor.OrganizationID)
}

// CreateUser creates an account seeded with the organization's default
// group and triggers the invitation workflow.
func (s *Service) CreateUser(ctx context.Context, actor shared.Actor, input CreateInput) (*CreateResult, error) {
	if err := RequireAdmin(actor); err != nil {
		return nil, err
	}
	if strings.TrimSpace(input.Name) == "" {
		return nil, fmt.Errorf("%w: name is required", shared.ErrValidation)
	}
	email, domain, err := s.normalizeEmail(input.Email)
	if err != nil {
		return nil, err
	}
	if s.domainBlocked(ctx, domain) {
		return nil, fmt.Errorf("%w: bad email address", shared.ErrValidation)
	}

	defaultGroup, err := s.repo.DefaultGroup(ctx, actor.OrganizationID)
	if err != nil {
		return nil, err
	}

	candidate := &User{
		OrganizationID: actor.OrganizationID,
		Name:           strings.TrimSpace(input.Name),
		Email:          email,
		GroupIDs:       []int64{defaultGroup},
		APIKey:         uuid.NewString(),
	}
	created, err := s.repo.Create(ctx, candidate)
	if err != nil {
		return nil, err
	}

	s.record(ctx, actor, "create", created.ID, nil)

	link, err := s.inviteLink(created.ID)
	if err != nil {
		return nil, err
	}
	result := &CreateResult{User: created, InviteLink: link}
	if !input.SuppressInvite {
		if err := s.notifier.SendInvite(ctx, created, link); err != nil {
			result.DeliveryErr = fmt.Errorf("%w: invite email: %v", shared.ErrDeliveryFailed, err)
		}
	}
	return result, nil
}

// InviteUser issues a fresh invitation link for an existing account and
// delegates delivery.
func (s *Service) InviteUser(ctx context.Context, actor shared.Actor, targetID int64) (*InviteResult, error) {
	if err := RequireAdmin(actor); err != nil {
		return nil, err
	}
	user, err := s.repo.GetByIDAndOrg(ctx, targetID, actor.OrganizationID)
	if err != nil {
		return nil, err
	}
	link, err := s.inviteLink(user.ID)
	if err != nil {
		return nil, err
	}
	result := &InviteResult{User: user, InviteLink: link}
	if err := s.notifier.SendInvite(ctx, user, link); err != nil {
		result.DeliveryErr = fmt.Errorf("%w: invite email: %v", shared.ErrDeliveryFailed, err)
	}
	return result, nil
}

// ResetPassword issues a recovery link. Disabled accounts are never
// eligible and report NotFound.
func (s *Service) ResetPassword(ctx context.Context, actor shared.Actor, targetID int64) (string, error) {
	if err := RequireAdmin(actor); err != nil {
		return "", err
	}
	user, err := s.repo.GetByIDAndOrg(ctx, targetID, actor.OrganizationID)
	if err != nil {
		return "", err
	}
	if user.IsDisabled {
		return "", fmt.Errorf("%w: account not eligible", shared.ErrNotFound)
	}
	token, err := s.tokens.ResetToken(user.ID)
	if err != nil {
		return "", err
	}
	link := s.baseURL + "/reset/" + token
	if err := s.notifier.SendPasswordReset(ctx, user, link); err != nil {
		return link, fmt.Errorf("%w: reset email: %v", shared.ErrDeliveryFailed, err)
	}
	return link, nil
}

// UpdateUser applies a profile patch. Password changes require proof of the
// prior credential; group changes require admin.
func (s *Service) UpdateUser(ctx context.Context, actor shared.Actor, targetID int64, patch Patch) (*User, error) {
	if !CanWrite(actor, targetID) {
		return nil, fmt.Errorf("%w: not allowed to edit this account", shared.ErrUnauthorized)
	}
	user, err := s.repo.GetByIDAndOrg(ctx, targetID, actor.OrganizationID)
	if err != nil {
		return nil, err
	}
	if patch.Empty() && patch.OldPassword == nil {
		return user, nil
	}

	if patch.Password != nil && patch.OldPassword == nil {
		return nil, fmt.Errorf("%w: must provide current password to update password", shared.ErrPreconditionFailed)
	}
	if patch.OldPassword != nil && !s.hasher.Verify(*patch.OldPassword, user.PasswordHash) {
		return nil, fmt.Errorf("%w: incorrect current password", shared.ErrPreconditionFailed)
	}
	if patch.GroupIDs != nil && !actor.IsAdmin() {
		return nil, fmt.Errorf("%w: must be admin to change groups membership", shared.ErrUnauthorized)
	}

	store := StorePatch{Name: patch.Name, GroupIDs: patch.GroupIDs}
	if patch.Email != nil {
		email, _, err := s.normalizeEmail(*patch.Email)
		if err != nil {
			return nil, err
		}
		store.Email = &email
	}
	if patch.Password != nil {
		hash, err := s.hasher.Hash(*patch.Password)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", shared.ErrValidation, err)
		}
		store.PasswordHash = &hash
	}

	updated, err := s.repo.Update(ctx, targetID, actor.OrganizationID, store)
	if err != nil {
		return nil, err
	}
	s.record(ctx, actor, "edit", updated.ID, patch.FieldNames())
	return updated, nil
}

// DisableUser transitions the account to Disabled. Administrators can never
// disable their own account through this pathway. Disabling an already
// disabled account is a no-op success.
func (s *Service) DisableUser(ctx context.Context, actor shared.Actor, targetID int64) (*User, error) {
	if err := RequireAdmin(actor); err != nil {
		return nil, err
	}
	if actor.ID == targetID {
		return nil, fmt.Errorf("%w: you cannot disable your own account, ask another admin to do this for you", shared.ErrValidation)
	}
	user, err := s.repo.GetByIDAndOrg(ctx, targetID, actor.OrganizationID)
	if err != nil {
		return nil, err
	}
	if user.IsDisabled {
		return user, nil
	}
	updated, err := s.repo.SetDisabled(ctx, targetID, actor.OrganizationID, true)
	if err != nil {
		return nil, err
	}
	s.record(ctx, actor, "disable", updated.ID, nil)
	return updated, nil
}

// EnableUser transitions the account back to Active. Enabling an already
// enabled account is a no-op success.
func (s *Service) EnableUser(ctx context.Context, actor shared.Actor, targetID int64) (*User, error) {
	if err := RequireAdmin(actor); err != nil {
		return nil, err
	}
	user, err := s.repo.GetByIDAndOrg(ctx, targetID, actor.OrganizationID)
	if err != nil {
		return nil, err
	}
	if !user.IsDisabled {
		return user, nil
	}
	updated, err := s.repo.SetDisabled(ctx, targetID, actor.OrganizationID, false)
	if err != nil {
		return nil, err
	}
	s.record(ctx, actor, "enable", updated.ID, nil)
	return updated, nil
}

func (s *Service) inviteLink(userID int64) (string, error) {
	token, err := s.tokens.InviteToken(userID)
	if err != nil {
		return "", err
	}
	return s.baseURL + "/invite/" + token, nil
}

// normalizeEmail validates the address shape and lowercases the domain.
// The local part stays case-sensitive.
func (s *Service) normalizeEmail(raw string) (string, string, error) {
	raw = strings.TrimSpace(raw)
	if strings.Count(raw, "@") != 1 {
		return "", "", fmt.Errorf("%w: bad email address", shared.ErrValidation)
	}
	if err := s.validate.Var(raw, "required,email"); err != nil {
		return "", "", fmt.Errorf("%w: bad email address", shared.ErrValidation)
	}
	local, domain, _ := strings.Cut(raw, "@")
	domain = lowerCaser.String(domain)
	return local + "@" + domain, domain, nil
}

func (s *Service) domainBlocked(ctx context.Context, domain string) bool {
	if _, ok := blockedDomains[domain]; ok {
		return true
	}
	return s.denylist != nil && s.denylist.IsBlocked(ctx, domain)
}

func (s *Service) record(ctx context.Context, actor shared.Actor, action string, targetID int64, fields []string) {
	if s.audit == nil {
		return
	}
	s.audit.Record(ctx, audit.Event{
		ActorID:       actor.ID,
		Action:        action,
		ObjectType:    "user",
		ObjectID:      strconv.FormatInt(targetID, 10),
		UpdatedFields: fields,
	})
}
