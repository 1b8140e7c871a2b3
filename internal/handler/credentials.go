package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/psds-microservice/backoffice-service/internal/middleware"
	"github.com/psds-microservice/backoffice-service/internal/model"
	"github.com/psds-microservice/backoffice-service/internal/repository"
	"github.com/psds-microservice/backoffice-service/internal/service"
)

// CredentialManager is the subset of service.CredentialService used over HTTP.
type CredentialManager interface {
	GetAdmin(ctx context.Context, actor model.Principal, id string) (*model.Admin, error)
	ListAdmins(ctx context.Context, actor model.Principal) ([]model.Admin, error)
	ChangeAdminPassword(ctx context.Context, actor model.Principal, current, next string) error
	DeleteAdmin(ctx context.Context, actor model.Principal, id string) error
	ProvisionClient(ctx context.Context, actor model.Principal, in service.ClientInput) (*model.Client, error)
	ListClients(ctx context.Context, actor model.Principal, f repository.ClientFilter) ([]model.Client, int64, error)
	SetClientStatus(ctx context.Context, actor model.Principal, id string, status model.ClientStatus) error
	GetClient(ctx context.Context, actor model.Principal, id string) (*model.Client, error)
	UpdateClientProfile(ctx context.Context, actor model.Principal, id string, in service.ProfileInput) (*model.Client, error)
	ChangeClientPassword(ctx context.Context, actor model.Principal, id, current, next string) error
}

// actor returns the session principal; the zero value fails every authz check downstream.
func actor(c *gin.Context) model.Principal {
	p, _ := middleware.Principal(c)
	return p
}

// pageParams parses limit/offset query params, ignoring malformed values.
func pageParams(c *gin.Context) (limit, offset int) {
	if v := c.Query("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	if v := c.Query("offset"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed >= 0 {
			offset = parsed
		}
	}
	return limit, offset
}

type passwordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password" binding:"required"`
}

func passwordChanged(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Password updated"})
}
