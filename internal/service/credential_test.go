package service

import (
	"context"
	"testing"

	"github.com/psds-microservice/backoffice-service/internal/errs"
	"github.com/psds-microservice/backoffice-service/internal/model"
	"github.com/psds-microservice/backoffice-service/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"go.uber.org/zap"
)

func TestRegisterAdminGated(t *testing.T) {
	hasher := NewPasswordHasher(bcrypt.MinCost)
	in := AdminInput{Name: "Eve", Email: "eve@example.com", Password: "eve-password", Role: model.AdminRoleAdmin}

	closed := NewCredentialService(newMemAdmins(), newMemClients(), hasher, false, zap.NewNop())
	_, err := closed.RegisterAdmin(context.Background(), in)
	assert.ErrorIs(t, err, errs.ErrSelfRegisterDisabled)
	assert.ErrorIs(t, err, errs.ErrForbidden)

	open := NewCredentialService(newMemAdmins(), newMemClients(), hasher, true, zap.NewNop())
	a, err := open.RegisterAdmin(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, model.AdminRoleViewer, a.Role, "self-registered admins never get elevated roles")
}

func TestCreateAdminValidation(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	_, err := f.creds.CreateAdmin(ctx, AdminInput{Name: "", Email: "x@example.com", Password: "long-enough"})
	assert.ErrorIs(t, err, errs.ErrValidation)
	_, err = f.creds.CreateAdmin(ctx, AdminInput{Name: "X", Email: "not-an-email", Password: "long-enough"})
	assert.ErrorIs(t, err, errs.ErrValidation)
	_, err = f.creds.CreateAdmin(ctx, AdminInput{Name: "X", Email: "x@example.com", Password: "short"})
	assert.ErrorIs(t, err, errs.ErrValidation)
	_, err = f.creds.CreateAdmin(ctx, AdminInput{Name: "X", Email: "x@example.com", Password: "long-enough", Role: "owner"})
	assert.ErrorIs(t, err, errs.ErrValidation)
	_, err = f.creds.CreateAdmin(ctx, AdminInput{Name: "Dup", Email: "Root@Example.com", Password: "long-enough"})
	assert.ErrorIs(t, err, errs.ErrConflict)
}

func TestProvisionClient(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	c, err := f.creds.ProvisionClient(ctx, f.root, ClientInput{Name: " Cleo ", Email: " Cleo@Example.COM", Password: "client-password", Company: "Acme"})
	require.NoError(t, err)
	assert.Equal(t, "cleo@example.com", c.Email)
	assert.Equal(t, "Cleo", c.Name)
	assert.Equal(t, model.ClientStatusActive, c.Status)
	assert.Equal(t, f.root.ID, c.CreatedBy)
	assert.NotEqual(t, "client-password", c.PasswordHash)

	_, err = f.creds.ProvisionClient(ctx, c.Principal(), ClientInput{Name: "Other", Email: "o@example.com", Password: "client-password"})
	assert.ErrorIs(t, err, errs.ErrForbidden)

	_, err = f.creds.ProvisionClient(ctx, model.Principal{}, ClientInput{Name: "Other", Email: "o@example.com", Password: "client-password"})
	assert.ErrorIs(t, err, errs.ErrUnauthenticated)

	_, err = f.creds.ProvisionClient(ctx, f.root, ClientInput{Name: "Again", Email: "cleo@example.com", Password: "client-password"})
	assert.ErrorIs(t, err, errs.ErrConflict)
}

func TestClientProfileAndPassword(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	c := f.client(t, "cleo@example.com", "client-password")
	other := f.client(t, "otto@example.com", "client-password")

	name, phone := "Cleo P.", "+1 555 0100"
	updated, err := f.creds.UpdateClientProfile(ctx, c.Principal(), c.ID, ProfileInput{Name: &name, Phone: &phone})
	require.NoError(t, err)
	assert.Equal(t, "Cleo P.", updated.Name)
	assert.Equal(t, phone, updated.Phone)

	_, err = f.creds.UpdateClientProfile(ctx, other.Principal(), c.ID, ProfileInput{Name: &name})
	assert.ErrorIs(t, err, errs.ErrForbidden)
	_, err = f.creds.UpdateClientProfile(ctx, c.Principal(), c.ID, ProfileInput{})
	assert.ErrorIs(t, err, errs.ErrValidation)

	err = f.creds.ChangeClientPassword(ctx, c.Principal(), c.ID, "wrong-password", "brand-new-pass")
	assert.ErrorIs(t, err, errs.ErrValidation)
	assert.NotErrorIs(t, err, errs.ErrInvalidCredential)
	assert.Contains(t, err.Error(), "current password is incorrect")
	require.NoError(t, f.creds.ChangeClientPassword(ctx, c.Principal(), c.ID, "client-password", "brand-new-pass"))

	_, err = f.resolver.Login(ctx, "cleo@example.com", "client-password")
	assert.ErrorIs(t, err, errs.ErrInvalidCredential)
	_, err = f.resolver.Login(ctx, "cleo@example.com", "brand-new-pass")
	require.NoError(t, err)

	// admins reset without the current password
	require.NoError(t, f.creds.ChangeClientPassword(ctx, f.root, c.ID, "", "reset-by-admin"))
	_, err = f.resolver.Login(ctx, "cleo@example.com", "reset-by-admin")
	require.NoError(t, err)
}

func TestAdminPasswordAndDelete(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	err := f.creds.ChangeAdminPassword(ctx, f.root, "nope-nope", "next-password")
	assert.ErrorIs(t, err, errs.ErrValidation)
	assert.NotErrorIs(t, err, errs.ErrInvalidCredential)
	require.NoError(t, f.creds.ChangeAdminPassword(ctx, f.root, "root-password", "next-password"))
	_, err = f.resolver.Login(ctx, "root@example.com", "next-password")
	require.NoError(t, err)

	assert.ErrorIs(t, f.creds.DeleteAdmin(ctx, f.root, f.root.ID), errs.ErrValidation)

	other, err := f.creds.CreateAdmin(ctx, AdminInput{Name: "Bob", Email: "bob@example.com", Password: "bob-password", Role: model.AdminRoleEditor})
	require.NoError(t, err)
	require.NoError(t, f.creds.DeleteAdmin(ctx, f.root, other.ID))
	_, err = f.creds.GetAdmin(ctx, f.root, other.ID)
	assert.ErrorIs(t, err, errs.ErrNotFound)
	assert.ErrorIs(t, f.creds.DeleteAdmin(ctx, f.root, other.ID), errs.ErrNotFound)
}

func TestListAndRetireClients(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	a := f.client(t, "a@example.com", "client-password")
	f.client(t, "b@example.com", "client-password")

	require.NoError(t, f.creds.SetClientStatus(ctx, f.root, a.ID, model.ClientStatusInactive))
	assert.ErrorIs(t, f.creds.SetClientStatus(ctx, f.root, a.ID, "deleted"), errs.ErrValidation)
	assert.ErrorIs(t, f.creds.SetClientStatus(ctx, a.Principal(), a.ID, model.ClientStatusActive), errs.ErrForbidden)

	inactive, total, err := f.creds.ListClients(ctx, f.root, repository.ClientFilter{Status: model.ClientStatusInactive})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, inactive, 1)
	assert.Equal(t, a.ID, inactive[0].ID)

	_, _, err = f.creds.ListClients(ctx, a.Principal(), repository.ClientFilter{})
	assert.ErrorIs(t, err, errs.ErrForbidden)
}
