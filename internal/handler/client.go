package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/psds-microservice/backoffice-service/internal/service"
	"go.uber.org/zap"
)

// ClientHandler serves the client portal's self-service endpoints.
type ClientHandler struct {
	creds CredentialManager
	log   *zap.Logger
}

func NewClientHandler(creds CredentialManager, log *zap.Logger) *ClientHandler {
	return &ClientHandler{creds: creds, log: log}
}

func (h *ClientHandler) Profile(c *gin.Context) {
	p := actor(c)
	client, err := h.creds.GetClient(c.Request.Context(), p, p.ID)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, client)
}

type updateProfileRequest struct {
	Name    *string `json:"name,omitempty"`
	Company *string `json:"company,omitempty"`
	Phone   *string `json:"phone,omitempty"`
}

func (h *ClientHandler) UpdateProfile(c *gin.Context) {
	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	p := actor(c)
	client, err := h.creds.UpdateClientProfile(c.Request.Context(), p, p.ID, service.ProfileInput{
		Name:    req.Name,
		Company: req.Company,
		Phone:   req.Phone,
	})
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, client)
}

func (h *ClientHandler) ChangePassword(c *gin.Context) {
	var req passwordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	p := actor(c)
	if err := h.creds.ChangeClientPassword(c.Request.Context(), p, p.ID, req.CurrentPassword, req.NewPassword); err != nil {
		writeError(c, h.log, err)
		return
	}
	passwordChanged(c)
}
