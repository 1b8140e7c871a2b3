package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/psds-microservice/backoffice-service/internal/model"
	"github.com/psds-microservice/backoffice-service/internal/repository"
	"github.com/psds-microservice/backoffice-service/internal/service"
	"go.uber.org/zap"
)

type TicketHandler struct {
	svc service.TicketServicer
	log *zap.Logger
}

func NewTicketHandler(svc service.TicketServicer, log *zap.Logger) *TicketHandler {
	return &TicketHandler{svc: svc, log: log}
}

type createTicketRequest struct {
	ClientID    string   `json:"client_id"`
	Subject     string   `json:"subject" binding:"required,max=255"`
	Description string   `json:"description"`
	OrderID     string   `json:"order_id" binding:"max=64"`
	Priority    string   `json:"priority" binding:"ticketpriority"`
	Category    string   `json:"category" binding:"ticketcategory"`
	Message     string   `json:"message"`
	Attachments []string `json:"attachments" binding:"max=10"`
}

func (h *TicketHandler) Create(c *gin.Context) {
	var req createTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	t, err := h.svc.Create(c.Request.Context(), actor(c), service.CreateTicketInput{
		ClientID:    req.ClientID,
		Subject:     req.Subject,
		Description: req.Description,
		OrderID:     req.OrderID,
		Priority:    model.TicketPriority(req.Priority),
		Category:    model.TicketCategory(req.Category),
		Message:     req.Message,
		Attachments: req.Attachments,
	})
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, t)
}

func (h *TicketHandler) Get(c *gin.Context) {
	t, err := h.svc.Get(c.Request.Context(), actor(c), c.Param("id"))
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

// List returns admins every ticket matching the filters and clients only their own.
func (h *TicketHandler) List(c *gin.Context) {
	limit, offset := pageParams(c)
	f := repository.TicketFilter{
		ClientID:   c.Query("client_id"),
		AssignedTo: c.Query("assigned_to"),
		Status:     model.TicketStatus(c.Query("status")),
		Priority:   model.TicketPriority(c.Query("priority")),
		Category:   model.TicketCategory(c.Query("category")),
		Limit:      limit,
		Offset:     offset,
	}
	items, total, err := h.svc.List(c.Request.Context(), actor(c), f)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"tickets": items,
		"total":   total,
	})
}

func (h *TicketHandler) Stats(c *gin.Context) {
	counts, err := h.svc.Stats(c.Request.Context(), actor(c))
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	var total int64
	for _, n := range counts {
		total += n
	}
	c.JSON(http.StatusOK, gin.H{"by_status": counts, "total": total})
}

type messageRequest struct {
	Message     string   `json:"message" binding:"required"`
	Attachments []string `json:"attachments" binding:"max=10"`
}

func (h *TicketHandler) AddMessage(c *gin.Context) {
	var req messageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	t, err := h.svc.AppendMessage(c.Request.Context(), actor(c), c.Param("id"), service.MessageInput{
		Message:     req.Message,
		Attachments: req.Attachments,
	})
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

type statusRequest struct {
	Status string `json:"status" binding:"required,ticketstatus"`
}

func (h *TicketHandler) UpdateStatus(c *gin.Context) {
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	t, err := h.svc.SetStatus(c.Request.Context(), actor(c), c.Param("id"), model.TicketStatus(req.Status))
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

type assignRequest struct {
	AdminID string `json:"admin_id" binding:"required"`
}

func (h *TicketHandler) Assign(c *gin.Context) {
	var req assignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	t, err := h.svc.Assign(c.Request.Context(), actor(c), c.Param("id"), req.AdminID)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, t)
}
