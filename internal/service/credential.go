package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/psds-microservice/backoffice-service/internal/authz"
	"github.com/psds-microservice/backoffice-service/internal/errs"
	"github.com/psds-microservice/backoffice-service/internal/ids"
	"github.com/psds-microservice/backoffice-service/internal/model"
	"github.com/psds-microservice/backoffice-service/internal/repository"
	"go.uber.org/zap"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

type AdminInput struct {
	Name     string
	Email    string
	Password string
	Role     model.AdminRole
}

type ClientInput struct {
	Name     string
	Email    string
	Password string
	Company  string
	Phone    string
}

// ProfileInput carries optional client profile changes; nil fields are left untouched.
type ProfileInput struct {
	Name    *string
	Company *string
	Phone   *string
}

// CredentialService owns the two principal collections: provisioning, profile
// and password changes. Email uniqueness is enforced per collection by the store.
type CredentialService struct {
	admins            AdminStore
	clients           ClientStore
	hasher            PasswordHasher
	allowSelfRegister bool
	log               *zap.Logger
}

func NewCredentialService(admins AdminStore, clients ClientStore, hasher PasswordHasher, allowSelfRegister bool, log *zap.Logger) *CredentialService {
	if log == nil {
		log = zap.NewNop()
	}
	return &CredentialService{
		admins:            admins,
		clients:           clients,
		hasher:            hasher,
		allowSelfRegister: allowSelfRegister,
		log:               log,
	}
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if err := validate.Var(email, "required,email,max=320"); err != nil {
		return "", errs.Validation("invalid email")
	}
	return email, nil
}

func requireName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", errs.Validation("name is required")
	}
	if len(name) > 255 {
		return "", errs.Validation("name is too long")
	}
	return name, nil
}

// RegisterAdmin is the legacy open self-registration path. It is disabled unless
// explicitly enabled and always yields the least-privileged viewer role.
func (s *CredentialService) RegisterAdmin(ctx context.Context, in AdminInput) (*model.Admin, error) {
	if !s.allowSelfRegister {
		return nil, errs.ErrSelfRegisterDisabled
	}
	in.Role = model.AdminRoleViewer
	return s.CreateAdmin(ctx, in)
}

// CreateAdmin provisions an admin without an acting principal (CLI bootstrap, self-registration).
func (s *CredentialService) CreateAdmin(ctx context.Context, in AdminInput) (*model.Admin, error) {
	name, err := requireName(in.Name)
	if err != nil {
		return nil, err
	}
	email, err := normalizeEmail(in.Email)
	if err != nil {
		return nil, err
	}
	if in.Role == "" {
		in.Role = model.AdminRoleAdmin
	}
	if !in.Role.Valid() {
		return nil, errs.Validation("invalid role %q", in.Role)
	}
	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}
	a := &model.Admin{
		ID:           ids.New(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         in.Role,
	}
	if err := s.admins.Create(ctx, a); err != nil {
		return nil, fmt.Errorf("create admin: %w", err)
	}
	s.log.Info("admin created", zap.String("admin_id", a.ID), zap.String("role", string(a.Role)))
	return a, nil
}

func (s *CredentialService) GetAdmin(ctx context.Context, actor model.Principal, id string) (*model.Admin, error) {
	if err := authz.Authorize(actor, authz.AdminOnly, ""); err != nil {
		return nil, err
	}
	return s.admins.FindByID(ctx, id)
}

func (s *CredentialService) ListAdmins(ctx context.Context, actor model.Principal) ([]model.Admin, error) {
	if err := authz.Authorize(actor, authz.AdminOnly, ""); err != nil {
		return nil, err
	}
	return s.admins.List(ctx)
}

// checkCurrent verifies the current password on an already authenticated path.
// A mismatch is a bad request there, not a failed login.
func (s *CredentialService) checkCurrent(hash, current string) error {
	if err := s.hasher.Compare(hash, current); err != nil {
		if errors.Is(err, errs.ErrInvalidCredential) {
			return errs.Validation("current password is incorrect")
		}
		return err
	}
	return nil
}

// ChangeAdminPassword lets an admin rotate its own secret after proving the current one.
func (s *CredentialService) ChangeAdminPassword(ctx context.Context, actor model.Principal, current, next string) error {
	if err := authz.Authorize(actor, authz.AdminOnly, ""); err != nil {
		return err
	}
	a, err := s.admins.FindByID(ctx, actor.ID)
	if err != nil {
		return err
	}
	if err := s.checkCurrent(a.PasswordHash, current); err != nil {
		return err
	}
	hash, err := s.hasher.Hash(next)
	if err != nil {
		return err
	}
	return s.admins.UpdatePassword(ctx, a.ID, hash)
}

// DeleteAdmin hard-deletes another admin. Admins cannot remove themselves.
func (s *CredentialService) DeleteAdmin(ctx context.Context, actor model.Principal, id string) error {
	if err := authz.Authorize(actor, authz.AdminOnly, ""); err != nil {
		return err
	}
	if actor.ID == id {
		return errs.Validation("admins cannot delete themselves")
	}
	if err := s.admins.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info("admin deleted", zap.String("admin_id", id), zap.String("actor_id", actor.ID))
	return nil
}

// ProvisionClient creates an active client on behalf of the acting admin.
func (s *CredentialService) ProvisionClient(ctx context.Context, actor model.Principal, in ClientInput) (*model.Client, error) {
	if err := authz.Authorize(actor, authz.AdminOnly, ""); err != nil {
		return nil, err
	}
	name, err := requireName(in.Name)
	if err != nil {
		return nil, err
	}
	email, err := normalizeEmail(in.Email)
	if err != nil {
		return nil, err
	}
	if in.Phone != "" {
		if err := validate.Var(in.Phone, "max=32,printascii"); err != nil {
			return nil, errs.Validation("invalid phone")
		}
	}
	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}
	c := &model.Client{
		ID:           ids.New(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Company:      strings.TrimSpace(in.Company),
		Phone:        strings.TrimSpace(in.Phone),
		Status:       model.ClientStatusActive,
		CreatedBy:    actor.ID,
	}
	if err := s.clients.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("create client: %w", err)
	}
	s.log.Info("client provisioned", zap.String("client_id", c.ID), zap.String("actor_id", actor.ID))
	return c, nil
}

func (s *CredentialService) ListClients(ctx context.Context, actor model.Principal, f repository.ClientFilter) ([]model.Client, int64, error) {
	if err := authz.Authorize(actor, authz.AdminOnly, ""); err != nil {
		return nil, 0, err
	}
	if f.Status != "" && !f.Status.Valid() {
		return nil, 0, errs.Validation("invalid status %q", f.Status)
	}
	return s.clients.List(ctx, f)
}

func (s *CredentialService) GetClient(ctx context.Context, actor model.Principal, id string) (*model.Client, error) {
	if err := authz.Authorize(actor, authz.OwnerOrAdmin, id); err != nil {
		return nil, err
	}
	return s.clients.FindByID(ctx, id)
}

// SetClientStatus soft-retires or re-activates a client. There is no client delete path.
func (s *CredentialService) SetClientStatus(ctx context.Context, actor model.Principal, id string, status model.ClientStatus) error {
	if err := authz.Authorize(actor, authz.AdminOnly, ""); err != nil {
		return err
	}
	if !status.Valid() {
		return errs.Validation("invalid status %q", status)
	}
	if err := s.clients.SetStatus(ctx, id, status); err != nil {
		return err
	}
	s.log.Info("client status changed", zap.String("client_id", id), zap.String("status", string(status)), zap.String("actor_id", actor.ID))
	return nil
}

func (s *CredentialService) UpdateClientProfile(ctx context.Context, actor model.Principal, id string, in ProfileInput) (*model.Client, error) {
	if err := authz.Authorize(actor, authz.OwnerOrAdmin, id); err != nil {
		return nil, err
	}
	changes := make(map[string]interface{})
	if in.Name != nil {
		name, err := requireName(*in.Name)
		if err != nil {
			return nil, err
		}
		changes["name"] = name
	}
	if in.Company != nil {
		changes["company"] = strings.TrimSpace(*in.Company)
	}
	if in.Phone != nil {
		phone := strings.TrimSpace(*in.Phone)
		if err := validate.Var(phone, "max=32,printascii"); phone != "" && err != nil {
			return nil, errs.Validation("invalid phone")
		}
		changes["phone"] = phone
	}
	if len(changes) == 0 {
		return nil, errs.Validation("no changes")
	}
	if err := s.clients.UpdateProfile(ctx, id, changes); err != nil {
		return nil, err
	}
	return s.clients.FindByID(ctx, id)
}

// ChangeClientPassword rehashes a client secret. The client itself must present the
// current password; an admin may reset it without one.
func (s *CredentialService) ChangeClientPassword(ctx context.Context, actor model.Principal, id, current, next string) error {
	if err := authz.Authorize(actor, authz.OwnerOrAdmin, id); err != nil {
		return err
	}
	c, err := s.clients.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if !authz.IsAdmin(actor) {
		if err := s.checkCurrent(c.PasswordHash, current); err != nil {
			return err
		}
	}
	hash, err := s.hasher.Hash(next)
	if err != nil {
		return err
	}
	return s.clients.UpdatePassword(ctx, c.ID, hash)
}
