package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	authdomain "github.com/reclaimlabs/recoveryhub/internal/auth/domain"
	"github.com/reclaimlabs/recoveryhub/internal/auth/session"
	casedomain "github.com/reclaimlabs/recoveryhub/internal/cases/domain"
	"github.com/reclaimlabs/recoveryhub/internal/config"
	"github.com/reclaimlabs/recoveryhub/internal/currency"
	roledomain "github.com/reclaimlabs/recoveryhub/internal/role/domain"
	"go.uber.org/zap"
)

const testUserID = snowflake.ID(42)

type fakeAuthService struct {
	loginErr    error
	loginCalls  int
	deleteCalls int
	users       map[snowflake.ID]*authdomain.User
}

func (f *fakeAuthService) CreateUser(ctx context.Context, req authdomain.CreateUserRequest) (*authdomain.User, error) {
	_ = ctx
	return &authdomain.User{ID: snowflake.ID(200), Email: req.Email}, nil
}

func (f *fakeAuthService) Login(ctx context.Context, req authdomain.LoginRequest) (*authdomain.LoginResult, error) {
	f.loginCalls++
	_ = ctx
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	return &authdomain.LoginResult{
		User:      &authdomain.User{ID: testUserID, Email: req.Email},
		RawToken:  "session-token",
		ExpiresAt: time.Now().Add(time.Hour),
		SessionID: snowflake.ID(300),
	}, nil
}

func (f *fakeAuthService) Logout(ctx context.Context, rawToken string) error {
	_ = ctx
	_ = rawToken
	return nil
}

func (f *fakeAuthService) Authenticate(ctx context.Context, rawToken string) (*authdomain.Session, error) {
	_ = ctx
	if rawToken != "session-token" {
		return nil, authdomain.ErrInvalidSession
	}
	return &authdomain.Session{ID: snowflake.ID(300), UserID: testUserID}, nil
}

func (f *fakeAuthService) ChangePassword(ctx context.Context, userID snowflake.ID, newPassword string) error {
	_ = ctx
	_ = userID
	_ = newPassword
	return nil
}

func (f *fakeAuthService) UpdateCredentials(ctx context.Context, req authdomain.UpdateCredentialsRequest) (*authdomain.User, error) {
	_ = ctx
	return &authdomain.User{ID: req.UserID, Email: req.Email}, nil
}

func (f *fakeAuthService) GetAuthDetails(ctx context.Context, userID snowflake.ID) (*authdomain.AuthDetails, error) {
	_ = ctx
	return &authdomain.AuthDetails{UserID: userID}, nil
}

func (f *fakeAuthService) GetUser(ctx context.Context, userID snowflake.ID) (*authdomain.User, error) {
	_ = ctx
	if user, ok := f.users[userID]; ok {
		return user, nil
	}
	return &authdomain.User{ID: userID, Email: "user@example.com"}, nil
}

func (f *fakeAuthService) DeleteUser(ctx context.Context, userID snowflake.ID) error {
	_ = ctx
	_ = userID
	f.deleteCalls++
	return nil
}

type fakeAuthzService struct {
	denied map[string]bool // "object/action" entries refused
}

func (f *fakeAuthzService) Authorize(ctx context.Context, actor, object, action string) error {
	_ = ctx
	_ = actor
	if f.denied[object+"/"+action] {
		return ErrForbidden
	}
	return nil
}

type fakeRoleService struct {
	removeErr   error
	ensureErr   error
	removeCalls int
	assigned    []roledomain.Role
}

func (f *fakeRoleService) Assign(ctx context.Context, userID snowflake.ID, role roledomain.Role, grantedBy *snowflake.ID) error {
	_ = ctx
	_ = userID
	_ = grantedBy
	f.assigned = append(f.assigned, role)
	return nil
}

func (f *fakeRoleService) Remove(ctx context.Context, userID snowflake.ID, role roledomain.Role) error {
	_ = ctx
	_ = userID
	_ = role
	f.removeCalls++
	return f.removeErr
}

func (f *fakeRoleService) RolesForUser(ctx context.Context, userID snowflake.ID) ([]roledomain.Role, error) {
	_ = ctx
	_ = userID
	return []roledomain.Role{roledomain.RoleUser}, nil
}

func (f *fakeRoleService) HasRole(ctx context.Context, userID snowflake.ID, role roledomain.Role) (bool, error) {
	_ = ctx
	_ = userID
	_ = role
	return false, nil
}

func (f *fakeRoleService) CountAdmins(ctx context.Context) (int64, error) {
	_ = ctx
	return 1, nil
}

func (f *fakeRoleService) EnsureUserDeletable(ctx context.Context, userID snowflake.ID) error {
	_ = ctx
	_ = userID
	return f.ensureErr
}

type fakeCaseService struct {
	cases map[snowflake.ID]*casedomain.Case
}

func (f *fakeCaseService) Create(ctx context.Context, req casedomain.CreateCaseRequest) (*casedomain.Case, error) {
	_ = ctx
	return &casedomain.Case{ID: snowflake.ID(1), UserID: req.UserID, Title: req.Title}, nil
}

func (f *fakeCaseService) List(ctx context.Context, req casedomain.ListCaseRequest) ([]casedomain.Case, error) {
	_ = ctx
	out := make([]casedomain.Case, 0, len(f.cases))
	for _, kase := range f.cases {
		if req.UserID != 0 && kase.UserID != req.UserID {
			continue
		}
		out = append(out, *kase)
	}
	return out, nil
}

func (f *fakeCaseService) GetByID(ctx context.Context, id snowflake.ID) (*casedomain.Case, error) {
	_ = ctx
	kase, ok := f.cases[id]
	if !ok {
		return nil, casedomain.ErrNotFound
	}
	return kase, nil
}

func (f *fakeCaseService) GetByReference(ctx context.Context, reference string) (*casedomain.Case, error) {
	_ = ctx
	for _, kase := range f.cases {
		if kase.Reference == reference {
			return kase, nil
		}
	}
	return nil, casedomain.ErrNotFound
}

func (f *fakeCaseService) UpdateStatus(ctx context.Context, id snowflake.ID, to casedomain.Status) (*casedomain.Case, error) {
	_ = ctx
	_ = to
	return f.GetByID(ctx, id)
}

func (f *fakeCaseService) AddMessage(ctx context.Context, req casedomain.AddMessageRequest) (*casedomain.Message, error) {
	_ = ctx
	return &casedomain.Message{ID: snowflake.ID(5), CaseID: req.CaseID, SenderID: req.SenderID, Body: req.Body}, nil
}

func (f *fakeCaseService) ListMessages(ctx context.Context, caseID snowflake.ID) ([]casedomain.Message, error) {
	_ = ctx
	_ = caseID
	return nil, nil
}

func (f *fakeCaseService) MarkRead(ctx context.Context, caseID, readerID snowflake.ID) error {
	_ = ctx
	_ = caseID
	_ = readerID
	return nil
}

func (f *fakeCaseService) AddProgress(ctx context.Context, req casedomain.AddProgressRequest) (*casedomain.ProgressUpdate, error) {
	_ = ctx
	return &casedomain.ProgressUpdate{ID: snowflake.ID(6), CaseID: req.CaseID, Stage: req.Stage}, nil
}

func (f *fakeCaseService) ListProgress(ctx context.Context, caseID snowflake.ID) ([]casedomain.ProgressUpdate, error) {
	_ = ctx
	_ = caseID
	return nil, nil
}

func (f *fakeCaseService) NudgeInProgress(ctx context.Context, caseID snowflake.ID) error {
	_ = ctx
	_ = caseID
	return nil
}

type testServer struct {
	srv   *Server
	auth  *fakeAuthService
	authz *fakeAuthzService
	roles *fakeRoleService
	cases *fakeCaseService
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	engine := gin.New()
	engine.Use(ErrorHandlingMiddleware())

	auth := &fakeAuthService{}
	authz := &fakeAuthzService{denied: map[string]bool{}}
	roles := &fakeRoleService{}
	cases := &fakeCaseService{cases: map[snowflake.ID]*casedomain.Case{}}

	srv := &Server{
		engine:    engine,
		cfg:       config.Config{AppName: "recoveryhub"},
		sessions:  session.NewManager(config.Config{}),
		authsvc:   auth,
		authzSvc:  authz,
		roleSvc:   roles,
		caseSvc:   cases,
		converter: currency.NewConverter(zap.NewNop()),
	}
	srv.registerAuthRoutes()
	srv.registerPortalRoutes()
	srv.registerAdminRoutes()

	return &testServer{srv: srv, auth: auth, authz: authz, roles: roles, cases: cases}
}

func (ts *testServer) do(t *testing.T, method, path string, body string, loggedIn bool) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body == "" {
		reader = bytes.NewReader(nil)
	} else {
		reader = bytes.NewReader([]byte(body))
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if loggedIn {
		req.AddCookie(&http.Cookie{Name: session.DefaultCookieName, Value: "session-token"})
	}
	rec := httptest.NewRecorder()
	ts.srv.engine.ServeHTTP(rec, req)
	return rec
}

func TestLoginSetsSessionCookie(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/v1/auth/login", `{"email":"a@b.c","password":"secret"}`, false)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	cookie := rec.Header().Get("Set-Cookie")
	if !strings.Contains(cookie, session.DefaultCookieName+"=session-token") {
		t.Fatalf("expected session cookie, got %q", cookie)
	}
}

func TestLoginInvalidCredentials(t *testing.T) {
	ts := newTestServer(t)
	ts.auth.loginErr = authdomain.ErrInvalidCredentials

	rec := ts.do(t, http.MethodPost, "/v1/auth/login", `{"email":"a@b.c","password":"wrong"}`, false)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}

	var resp errorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if resp.Error.Type != "unauthorized" {
		t.Fatalf("expected unauthorized error type, got %q", resp.Error.Type)
	}
}

func TestRoutesRequireSession(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/v1/cases", "", false)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestCapabilityDenied(t *testing.T) {
	ts := newTestServer(t)
	ts.authz.denied["invoice/invoice.create"] = true

	rec := ts.do(t, http.MethodPost, "/v1/invoices", `{}`, true)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestGetCaseHidesForeignCase(t *testing.T) {
	ts := newTestServer(t)
	foreign := snowflake.ID(900)
	ts.cases.cases[snowflake.ID(7)] = &casedomain.Case{ID: snowflake.ID(7), UserID: foreign}
	// Not staff: cross-account lookups are refused.
	ts.authz.denied["user/user.view"] = true

	rec := ts.do(t, http.MethodGet, "/v1/cases/7", "", true)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestGetOwnCase(t *testing.T) {
	ts := newTestServer(t)
	ts.cases.cases[snowflake.ID(7)] = &casedomain.Case{ID: snowflake.ID(7), UserID: testUserID, Title: "frozen funds"}

	rec := ts.do(t, http.MethodGet, "/v1/cases/7", "", true)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestRemoveLastAdminRoleConflict(t *testing.T) {
	ts := newTestServer(t)
	ts.roles.removeErr = roledomain.ErrLastAdmin

	rec := ts.do(t, http.MethodDelete, "/v1/admin/users/42/roles/admin", "", true)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp errorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if resp.Error.Type != "conflict" {
		t.Fatalf("expected conflict error type, got %q", resp.Error.Type)
	}
}

func TestRemoveAdminRoleBlockedBeforeService(t *testing.T) {
	ts := newTestServer(t)
	ts.roles.ensureErr = roledomain.ErrLastAdmin

	rec := ts.do(t, http.MethodDelete, "/v1/admin/users/42/roles/admin", "", true)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", rec.Code, rec.Body.String())
	}
	if ts.roles.removeCalls != 0 {
		t.Fatalf("expected no removal attempt, got %d", ts.roles.removeCalls)
	}
}

func TestDeleteLastAdminBlockedBeforeService(t *testing.T) {
	ts := newTestServer(t)
	ts.roles.ensureErr = roledomain.ErrLastAdmin

	rec := ts.do(t, http.MethodDelete, "/v1/admin/users/42", "", true)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", rec.Code, rec.Body.String())
	}
	if ts.auth.deleteCalls != 0 {
		t.Fatalf("expected no delete attempt, got %d", ts.auth.deleteCalls)
	}
}

func TestCaseLookupByReference(t *testing.T) {
	ts := newTestServer(t)
	ts.cases.cases[snowflake.ID(7)] = &casedomain.Case{ID: snowflake.ID(7), UserID: testUserID, Reference: "frozen-funds-1"}
	ts.cases.cases[snowflake.ID(8)] = &casedomain.Case{ID: snowflake.ID(8), UserID: snowflake.ID(900), Reference: "other-case-2"}
	// Not staff: cross-account lookups are refused.
	ts.authz.denied["user/user.view"] = true

	rec := ts.do(t, http.MethodGet, "/v1/case-lookup/frozen-funds-1", "", true)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = ts.do(t, http.MethodGet, "/v1/case-lookup/other-case-2", "", true)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestCreateInvoiceUnsupportedCurrency(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/v1/invoices", `{"case_id":"1","user_id":"2","amount_due":100,"currency":"ZZZ"}`, true)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp errorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if len(resp.Error.Errors) != 1 || resp.Error.Errors[0].Code != "invalid_currency" {
		t.Fatalf("expected invalid_currency, got %+v", resp.Error)
	}
}

func TestSignupAssignsClientRole(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/v1/auth/signup", `{"email":"new@b.c","password":"longenough"}`, false)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(ts.roles.assigned) != 1 || ts.roles.assigned[0] != roledomain.RoleUser {
		t.Fatalf("expected user role assigned, got %v", ts.roles.assigned)
	}
}
