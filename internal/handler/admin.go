package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/psds-microservice/backoffice-service/internal/model"
	"github.com/psds-microservice/backoffice-service/internal/repository"
	"github.com/psds-microservice/backoffice-service/internal/service"
	"go.uber.org/zap"
)

type AdminHandler struct {
	creds CredentialManager
	log   *zap.Logger
}

func NewAdminHandler(creds CredentialManager, log *zap.Logger) *AdminHandler {
	return &AdminHandler{creds: creds, log: log}
}

func (h *AdminHandler) Me(c *gin.Context) {
	p := actor(c)
	a, err := h.creds.GetAdmin(c.Request.Context(), p, p.ID)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, a)
}

func (h *AdminHandler) ListAdmins(c *gin.Context) {
	items, err := h.creds.ListAdmins(c.Request.Context(), actor(c))
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"admins": items, "total": len(items)})
}

func (h *AdminHandler) ChangePassword(c *gin.Context) {
	var req passwordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := h.creds.ChangeAdminPassword(c.Request.Context(), actor(c), req.CurrentPassword, req.NewPassword); err != nil {
		writeError(c, h.log, err)
		return
	}
	passwordChanged(c)
}

func (h *AdminHandler) DeleteAdmin(c *gin.Context) {
	if err := h.creds.DeleteAdmin(c.Request.Context(), actor(c), c.Param("id")); err != nil {
		writeError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type createClientRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	Company  string `json:"company"`
	Phone    string `json:"phone"`
}

func (h *AdminHandler) CreateClient(c *gin.Context) {
	var req createClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	client, err := h.creds.ProvisionClient(c.Request.Context(), actor(c), service.ClientInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Company:  req.Company,
		Phone:    req.Phone,
	})
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, client)
}

func (h *AdminHandler) ListClients(c *gin.Context) {
	limit, offset := pageParams(c)
	items, total, err := h.creds.ListClients(c.Request.Context(), actor(c), repository.ClientFilter{
		Status: model.ClientStatus(c.Query("status")),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"clients": items,
		"total":   total,
	})
}

func (h *AdminHandler) GetClient(c *gin.Context) {
	client, err := h.creds.GetClient(c.Request.Context(), actor(c), c.Param("id"))
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, client)
}

type clientStatusRequest struct {
	Status string `json:"status" binding:"required,clientstatus"`
}

func (h *AdminHandler) SetClientStatus(c *gin.Context) {
	var req clientStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	id := c.Param("id")
	if err := h.creds.SetClientStatus(c.Request.Context(), actor(c), id, model.ClientStatus(req.Status)); err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "status": req.Status})
}
