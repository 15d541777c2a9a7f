package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/sudhir200/expense-tracker-sub001/internal/api/dto"
	"github.com/sudhir200/expense-tracker-sub001/internal/api/handlers"
	"github.com/sudhir200/expense-tracker-sub001/internal/api/middleware"
	"github.com/sudhir200/expense-tracker-sub001/internal/auth"
	"github.com/sudhir200/expense-tracker-sub001/internal/family"
	"github.com/sudhir200/expense-tracker-sub001/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupAuthTestRouter(t *testing.T) (*chi.Mux, *testutil.TestSetup) {
	tc := testutil.NewTestContext(t)
	t.Cleanup(tc.Cleanup)

	families := family.NewService(tc.DB, testutil.TestLogger())
	authService := auth.NewService(tc.DB, tc.JWTService, families)
	// No queue client in tests; registration must work without one.
	handler := handlers.NewAuthHandler(authService, nil, testutil.TestLogger())

	r := chi.NewRouter()
	r.Post("/api/v1/auth/register", handler.Register)
	r.Post("/api/v1/auth/login", handler.Login)
	r.Post("/api/v1/auth/logout", handler.Logout)
	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(tc.JWTService))
		r.Get("/api/v1/me", handler.Me)
		r.Put("/api/v1/me", handler.UpdateMe)
	})

	return r, tc
}

func TestAuthHandler_Register(t *testing.T) {
	router, _ := setupAuthTestRouter(t)

	t.Run("successful registration", func(t *testing.T) {
		body := map[string]string{
			"email":    "newuser@example.com",
			"password": "securepassword123",
			"name":     "New User",
		}

		req := testutil.UnauthenticatedRequest(t, "POST", "/api/v1/auth/register", body)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		testutil.AssertStatus(t, rr, http.StatusCreated)

		var resp dto.AuthResponse
		testutil.ParseJSONResponse(t, rr, &resp)
		assert.NotEmpty(t, resp.Token)
		assert.Equal(t, "newuser@example.com", resp.User.Email)
		assert.Equal(t, "user", resp.User.GlobalRole)
	})

	t.Run("registration with a family", func(t *testing.T) {
		body := map[string]string{
			"email":       "founder@example.com",
			"password":    "securepassword123",
			"name":        "Founder",
			"family_name": "The Founders",
		}

		req := testutil.UnauthenticatedRequest(t, "POST", "/api/v1/auth/register", body)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		testutil.AssertStatus(t, rr, http.StatusCreated)
	})

	t.Run("duplicate email", func(t *testing.T) {
		body := map[string]string{
			"email":    "duplicate@example.com",
			"password": "securepassword123",
			"name":     "First User",
		}

		req := testutil.UnauthenticatedRequest(t, "POST", "/api/v1/auth/register", body)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		testutil.AssertStatus(t, rr, http.StatusCreated)

		req = testutil.UnauthenticatedRequest(t, "POST", "/api/v1/auth/register", body)
		rr = httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		testutil.AssertStatus(t, rr, http.StatusConflict)
	})

	t.Run("missing email", func(t *testing.T) {
		body := map[string]string{
			"password": "securepassword123",
			"name":     "No Email User",
		}

		req := testutil.UnauthenticatedRequest(t, "POST", "/api/v1/auth/register", body)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		testutil.AssertStatus(t, rr, http.StatusBadRequest)
	})

	t.Run("password too short", func(t *testing.T) {
		body := map[string]string{
			"email":    "shortpw@example.com",
			"password": "short",
			"name":     "Short PW User",
		}

		req := testutil.UnauthenticatedRequest(t, "POST", "/api/v1/auth/register", body)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		testutil.AssertStatus(t, rr, http.StatusBadRequest)
	})
}

func TestAuthHandler_Login(t *testing.T) {
	router, _ := setupAuthTestRouter(t)

	register := map[string]string{
		"email":    "login@example.com",
		"password": "securepassword123",
		"name":     "Login User",
	}
	req := testutil.UnauthenticatedRequest(t, "POST", "/api/v1/auth/register", register)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusCreated, rr.Code)

	t.Run("valid credentials", func(t *testing.T) {
		body := map[string]string{
			"email":    "login@example.com",
			"password": "securepassword123",
		}

		req := testutil.UnauthenticatedRequest(t, "POST", "/api/v1/auth/login", body)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		testutil.AssertStatus(t, rr, http.StatusOK)

		var resp dto.AuthResponse
		testutil.ParseJSONResponse(t, rr, &resp)
		assert.NotEmpty(t, resp.Token)

		// Sets an HTTP-only cookie alongside the body token
		cookies := rr.Result().Cookies()
		require.NotEmpty(t, cookies)
		assert.Equal(t, "token", cookies[0].Name)
		assert.True(t, cookies[0].HttpOnly)
	})

	t.Run("wrong password", func(t *testing.T) {
		body := map[string]string{
			"email":    "login@example.com",
			"password": "wrongpassword",
		}

		req := testutil.UnauthenticatedRequest(t, "POST", "/api/v1/auth/login", body)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		testutil.AssertStatus(t, rr, http.StatusUnauthorized)
	})

	t.Run("unknown email", func(t *testing.T) {
		body := map[string]string{
			"email":    "ghost@example.com",
			"password": "securepassword123",
		}

		req := testutil.UnauthenticatedRequest(t, "POST", "/api/v1/auth/login", body)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		testutil.AssertStatus(t, rr, http.StatusUnauthorized)
	})
}

func TestAuthHandler_Me(t *testing.T) {
	router, tc := setupAuthTestRouter(t)

	t.Run("returns the authenticated user", func(t *testing.T) {
		req := testutil.AuthenticatedRequest(t, "GET", "/api/v1/me", nil, tc.Token)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		testutil.AssertStatus(t, rr, http.StatusOK)

		var resp dto.UserDTO
		testutil.ParseJSONResponse(t, rr, &resp)
		assert.Equal(t, tc.User.Email, resp.Email)
	})

	t.Run("rejects missing token", func(t *testing.T) {
		req := testutil.UnauthenticatedRequest(t, "GET", "/api/v1/me", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		testutil.AssertStatus(t, rr, http.StatusUnauthorized)
	})

	t.Run("rejects garbage token", func(t *testing.T) {
		req := testutil.AuthenticatedRequest(t, "GET", "/api/v1/me", nil, "not-a-token")
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		testutil.AssertStatus(t, rr, http.StatusUnauthorized)
	})
}

func TestAuthHandler_UpdateMe(t *testing.T) {
	router, tc := setupAuthTestRouter(t)

	t.Run("renames the authenticated user", func(t *testing.T) {
		body := map[string]string{"name": "Renamed"}
		req := testutil.AuthenticatedRequest(t, "PUT", "/api/v1/me", body, tc.Token)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		testutil.AssertStatus(t, rr, http.StatusOK)

		var resp dto.UserDTO
		testutil.ParseJSONResponse(t, rr, &resp)
		assert.Equal(t, "Renamed", resp.Name)
	})

	t.Run("rejects an empty update", func(t *testing.T) {
		req := testutil.AuthenticatedRequest(t, "PUT", "/api/v1/me", map[string]string{}, tc.Token)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		testutil.AssertStatus(t, rr, http.StatusBadRequest)
	})

	t.Run("rejects a short password", func(t *testing.T) {
		body := map[string]string{"password": "short"}
		req := testutil.AuthenticatedRequest(t, "PUT", "/api/v1/me", body, tc.Token)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		testutil.AssertStatus(t, rr, http.StatusBadRequest)
	})
}
