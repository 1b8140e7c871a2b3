package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/psds-microservice/backoffice-service/internal/errs"
	"github.com/psds-microservice/backoffice-service/internal/model"
	"github.com/psds-microservice/backoffice-service/internal/repository"
	"github.com/psds-microservice/backoffice-service/internal/service"
	"github.com/psds-microservice/backoffice-service/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
	RegisterValidators()
}

var (
	adminP  = model.Principal{ID: "A1", Kind: model.KindAdmin, Email: "a1@example.com", Name: "Alice"}
	clientP = model.Principal{ID: "C1", Kind: model.KindClient, Email: "c1@example.com", Name: "Carl"}
)

type stubLogin struct {
	res *service.LoginResult
	err error
}

func (s stubLogin) Login(context.Context, string, string) (*service.LoginResult, error) {
	return s.res, s.err
}

type stubRegistrar struct{ err error }

func (s stubRegistrar) RegisterAdmin(_ context.Context, in service.AdminInput) (*model.Admin, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &model.Admin{ID: "A9", Name: in.Name, Email: in.Email, Role: model.AdminRoleViewer}, nil
}

type stubTickets struct {
	service.TicketServicer
	get       func(actor model.Principal, id string) (*model.Ticket, error)
	setStatus func(actor model.Principal, id string, target model.TicketStatus) (*model.Ticket, error)
	create    func(actor model.Principal, in service.CreateTicketInput) (*model.Ticket, error)
	list      func(actor model.Principal, f repository.TicketFilter) ([]model.Ticket, int64, error)
}

func (s stubTickets) Get(_ context.Context, actor model.Principal, id string) (*model.Ticket, error) {
	return s.get(actor, id)
}

func (s stubTickets) SetStatus(_ context.Context, actor model.Principal, id string, target model.TicketStatus) (*model.Ticket, error) {
	return s.setStatus(actor, id, target)
}

func (s stubTickets) Create(_ context.Context, actor model.Principal, in service.CreateTicketInput) (*model.Ticket, error) {
	return s.create(actor, in)
}

func (s stubTickets) List(_ context.Context, actor model.Principal, f repository.TicketFilter) ([]model.Ticket, int64, error) {
	return s.list(actor, f)
}

// as injects p the way middleware.Session would.
func as(p model.Principal) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request = c.Request.WithContext(session.WithPrincipal(c.Request.Context(), p))
		c.Next()
	}
}

func jsonRequest(t *testing.T, r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestUnifiedLoginSetsCookie(t *testing.T) {
	h := NewAuthHandler(stubLogin{res: &service.LoginResult{
		User:       clientP,
		Token:      "signed.jwt.token",
		ExpiresAt:  time.Now().Add(7 * 24 * time.Hour),
		RedirectTo: "/client/dashboard",
	}}, stubRegistrar{}, 7*24*time.Hour, true, zap.NewNop())
	r := gin.New()
	r.POST("/api/admin/unified-login", h.UnifiedLogin)

	rec := jsonRequest(t, r, http.MethodPost, "/api/admin/unified-login", loginRequest{Email: "c1@example.com", Password: "client-password"})
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "/client/dashboard", body["redirectTo"])
	assert.Equal(t, "client", body["user"].(map[string]any)["role"])

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, session.CookieName, cookies[0].Name)
	assert.Equal(t, "signed.jwt.token", cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)
	assert.True(t, cookies[0].Secure)
	assert.Equal(t, http.SameSiteNoneMode, cookies[0].SameSite)
}

func TestUnifiedLoginFailures(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code int
		msg  string
	}{
		{"invalid credential", errs.ErrInvalidCredential, http.StatusUnauthorized, msgInvalidLogin},
		{"inactive account", errs.ErrAccountInactive, http.StatusUnauthorized, msgInvalidLogin},
		{"database down", errors.New("dial tcp: connection refused"), http.StatusInternalServerError, "internal error"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := NewAuthHandler(stubLogin{err: tc.err}, stubRegistrar{}, time.Hour, false, zap.NewNop())
			r := gin.New()
			r.POST("/login", h.UnifiedLogin)

			rec := jsonRequest(t, r, http.MethodPost, "/login", loginRequest{Email: "x@example.com", Password: "whatever"})
			assert.Equal(t, tc.code, rec.Code)
			assert.Equal(t, tc.msg, decode(t, rec)["error"])
			assert.Empty(t, rec.Result().Cookies())
		})
	}

	h := NewAuthHandler(stubLogin{}, stubRegistrar{}, time.Hour, false, zap.NewNop())
	r := gin.New()
	r.POST("/login", h.UnifiedLogin)
	rec := jsonRequest(t, r, http.MethodPost, "/login", map[string]string{"email": "x@example.com"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRegisterDisabled(t *testing.T) {
	h := NewAuthHandler(stubLogin{}, stubRegistrar{err: errs.ErrSelfRegisterDisabled}, time.Hour, false, zap.NewNop())
	r := gin.New()
	r.POST("/register", h.Register)

	rec := jsonRequest(t, r, http.MethodPost, "/register", registerRequest{Name: "Eve", Email: "eve@example.com", Password: "eve-password"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestCheckCookieAndLogout(t *testing.T) {
	h := NewAuthHandler(stubLogin{}, stubRegistrar{}, time.Hour, false, zap.NewNop())
	r := gin.New()
	r.GET("/check-cookie", as(adminP), h.CheckCookie)
	r.GET("/anon", h.CheckCookie)
	r.POST("/logout", h.Logout)

	rec := jsonRequest(t, r, http.MethodGet, "/check-cookie", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id":"A1","role":"admin","email":"a1@example.com","name":"Alice"}`, rec.Body.String())

	assert.Equal(t, http.StatusUnauthorized, jsonRequest(t, r, http.MethodGet, "/anon", nil).Code)

	rec = jsonRequest(t, r, http.MethodPost, "/logout", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Less(t, cookies[0].MaxAge, 0)
}

func TestTicketGetErrorMapping(t *testing.T) {
	svc := stubTickets{get: func(actor model.Principal, id string) (*model.Ticket, error) {
		switch id {
		case "foreign":
			return nil, fmt.Errorf("%w: owner-or-admin denied for client", errs.ErrForbidden)
		case "missing":
			return nil, errs.ErrTicketNotFound
		}
		return &model.Ticket{ID: id, ClientID: actor.ID, Status: model.TicketStatusOpen}, nil
	}}
	h := NewTicketHandler(svc, zap.NewNop())
	r := gin.New()
	r.GET("/api/tickets/:id", as(clientP), h.Get)

	assert.Equal(t, http.StatusForbidden, jsonRequest(t, r, http.MethodGet, "/api/tickets/foreign", nil).Code)
	rec := jsonRequest(t, r, http.MethodGet, "/api/tickets/missing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "ticket not found", decode(t, rec)["error"])

	rec = jsonRequest(t, r, http.MethodGet, "/api/tickets/T1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "C1", decode(t, rec)["client_id"])
}

func TestTicketUpdateStatusBinding(t *testing.T) {
	var got model.TicketStatus
	svc := stubTickets{setStatus: func(actor model.Principal, id string, target model.TicketStatus) (*model.Ticket, error) {
		got = target
		return &model.Ticket{ID: id, Status: target}, nil
	}}
	h := NewTicketHandler(svc, zap.NewNop())
	r := gin.New()
	r.PATCH("/api/tickets/:id/status", as(clientP), h.UpdateStatus)

	rec := jsonRequest(t, r, http.MethodPatch, "/api/tickets/T1/status", statusRequest{Status: "archived"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = jsonRequest(t, r, http.MethodPatch, "/api/tickets/T1/status", statusRequest{Status: "closed"})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, model.TicketStatusClosed, got)
}

func TestTicketCreatePassesActor(t *testing.T) {
	var seen service.CreateTicketInput
	svc := stubTickets{create: func(actor model.Principal, in service.CreateTicketInput) (*model.Ticket, error) {
		assert.Equal(t, clientP, actor)
		seen = in
		return &model.Ticket{ID: "T1", ClientID: actor.ID, Status: model.TicketStatusOpen, Priority: in.Priority}, nil
	}}
	h := NewTicketHandler(svc, zap.NewNop())
	r := gin.New()
	r.POST("/api/tickets", as(clientP), h.Create)

	rec := jsonRequest(t, r, http.MethodPost, "/api/tickets", createTicketRequest{Subject: "Late order", Priority: "high", Category: "order"})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, model.TicketPriorityHigh, seen.Priority)
	assert.Equal(t, model.TicketCategoryOrder, seen.Category)

	rec = jsonRequest(t, r, http.MethodPost, "/api/tickets", createTicketRequest{Subject: "Late order", Priority: "urgent"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTicketListQueryFilters(t *testing.T) {
	var seen repository.TicketFilter
	svc := stubTickets{list: func(actor model.Principal, f repository.TicketFilter) ([]model.Ticket, int64, error) {
		seen = f
		return []model.Ticket{{ID: "T1"}}, 7, nil
	}}
	h := NewTicketHandler(svc, zap.NewNop())
	r := gin.New()
	r.GET("/api/tickets", as(adminP), h.List)

	rec := jsonRequest(t, r, http.MethodGet, "/api/tickets?status=open&priority=high&limit=5&offset=10&limit_bad=x", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, model.TicketStatusOpen, seen.Status)
	assert.Equal(t, model.TicketPriorityHigh, seen.Priority)
	assert.Equal(t, 5, seen.Limit)
	assert.Equal(t, 10, seen.Offset)
	assert.EqualValues(t, 7, decode(t, rec)["total"])
}

func TestWriteErrorMapping(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{errs.ErrNotFound, http.StatusNotFound},
		{errs.ErrTicketNotFound, http.StatusNotFound},
		{errs.ErrInvalidCredential, http.StatusUnauthorized},
		{errs.ErrAccountInactive, http.StatusUnauthorized},
		{errs.ErrUnauthenticated, http.StatusUnauthorized},
		{errs.ErrForbidden, http.StatusForbidden},
		{errs.ErrSelfRegisterDisabled, http.StatusForbidden},
		{errs.Validation("subject is required"), http.StatusBadRequest},
		{fmt.Errorf("create client: %w", errs.ErrConflict), http.StatusConflict},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(rec)
		c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
		writeError(c, zap.NewNop(), tc.err)
		assert.Equal(t, tc.code, rec.Code, tc.err.Error())
	}

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	writeError(c, zap.NewNop(), errs.Validation("subject is required"))
	assert.JSONEq(t, `{"error":"subject is required"}`, rec.Body.String())
}
