package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/vasiliy-maslov/user-management-api/internal/auth"
	userHandler "github.com/vasiliy-maslov/user-management-api/internal/handler/http"
	"github.com/vasiliy-maslov/user-management-api/internal/user"
)

type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) ListUsers(ctx context.Context, filter user.ListFilter) ([]user.User, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]user.User), args.Error(1)
}

func (m *MockUserService) CreateUser(ctx context.Context, input user.CreateUserInput) (*user.User, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

func (m *MockUserService) GetUserByID(ctx context.Context, id int64) (*user.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

func (m *MockUserService) UpdateUser(ctx context.Context, id int64, input user.UpdateUserInput) (*user.User, error) {
	args := m.Called(ctx, id, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

func (m *MockUserService) DeactivateUser(ctx context.Context, actorID, id int64) error {
	args := m.Called(ctx, actorID, id)
	return args.Error(0)
}

func (m *MockUserService) RestoreUser(ctx context.Context, id int64) (*user.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) Login(ctx context.Context, email, password string) (*auth.LoginResult, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auth.LoginResult), args.Error(1)
}

func (m *MockAuthService) Authenticate(ctx context.Context, bearer string) (auth.Principal, error) {
	args := m.Called(ctx, bearer)
	return args.Get(0).(auth.Principal), args.Error(1)
}

func (m *MockAuthService) Logout(ctx context.Context, p auth.Principal) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockAuthService) CurrentIdentity(ctx context.Context, p auth.Principal) (*user.User, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

type fakePinger struct {
	err error
}

func (p fakePinger) Ping(context.Context) error {
	return p.err
}

const validBearer = "valid-token"

var testPrincipal = auth.Principal{UserID: 1, TokenID: uuid.Must(uuid.FromString("6ba7b810-9dad-11d1-80b4-00c04fd430c8"))}

// responseBody mirrors the envelope for decoding in tests.
type responseBody struct {
	Success bool                `json:"success"`
	Message string              `json:"message"`
	Data    json.RawMessage     `json:"data"`
	Error   string              `json:"error"`
	Total   *int                `json:"total"`
	Errors  map[string][]string `json:"errors"`
}

type testServer struct {
	router http.Handler
	users  *MockUserService
	auth   *MockAuthService
}

func newTestServer(debug bool) *testServer {
	s := &testServer{
		users: new(MockUserService),
		auth:  new(MockAuthService),
	}
	s.router = userHandler.NewRouter(userHandler.RouterDeps{
		Users:  s.users,
		Auth:   s.auth,
		Health: fakePinger{},
		Debug:  debug,
	})
	return s
}

// authenticated makes the identity check accept validBearer as testPrincipal.
func (s *testServer) authenticated() *testServer {
	s.auth.On("Authenticate", mock.Anything, validBearer).Return(testPrincipal, nil)
	return s
}

func (s *testServer) do(t *testing.T, method, path string, body any, bearer string) (*httptest.ResponseRecorder, responseBody) {
	t.Helper()

	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	rr := httptest.NewRecorder()
	s.router.ServeHTTP(rr, req)

	var decoded responseBody
	if rr.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &decoded), rr.Body.String())
	}
	return rr, decoded
}

func sampleUser(id int64, status user.Status) *user.User {
	return &user.User{
		ID:           id,
		FirstName:    "Juan Carlos",
		LastName:     "Pérez García",
		Email:        "juan.perez@example.com",
		Phone:        "+57 310 234 5678",
		PasswordHash: "$2a$10$digest",
		Status:       status,
		CreatedAt:    time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC),
		UpdatedAt:    time.Date(2024, 1, 20, 14, 25, 0, 0, time.UTC),
	}
}

func decodeData(t *testing.T, raw json.RawMessage) map[string]any {
	t.Helper()
	var data map[string]any
	require.NoError(t, json.Unmarshal(raw, &data))
	return data
}

func newRawRequest(method, path string) *http.Request {
	return httptest.NewRequest(method, path, nil)
}

func serve(s *testServer, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	s.router.ServeHTTP(rr, req)
	return rr
}
