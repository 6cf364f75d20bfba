package controllers

import (
	"errors"
	"log/slog"
	"time"

	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"

	"github.com/praveen001/planner/internal/api/authenticator"
	"github.com/praveen001/planner/internal/perrors"
	"github.com/praveen001/planner/internal/services"
	user2 "github.com/praveen001/planner/internal/services/user"
)

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

type UserResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func RegisterAuthRoutes(r *router.Router, svc *services.Services, auth *authenticator.Authenticator) {
	// Register a new account. Pending invitations for the email are
	// materialized into memberships right away.
	r.POST("/auth/register", func(ctx *fasthttp.RequestCtx) {
		stdCtx := requestContext(ctx)

		var req RegisterRequest
		if err := parseBody(ctx, &req); err != nil {
			writeError(ctx, stdCtx, "Invalid request body", perrors.NewErrInvalidRequest("Invalid request body", err))
			return
		}

		if req.Email == "" || req.Password == "" {
			writeError(ctx, stdCtx, "Email and password are required", perrors.NewErrInvalidRequest("Email and password are required", errors.New("missing credentials")))
			return
		}

		u, err := svc.User.Register(stdCtx, req.Name, req.Email, req.Password)
		if err != nil {
			switch {
			case errors.Is(err, user2.ErrEmailTaken):
				writeError(ctx, stdCtx, "Email already registered", perrors.New(perrors.ErrCodeConflict, "Email already registered", err))
			default:
				writeError(ctx, stdCtx, "Failed to register", perrors.NewErrInternalServerError("Failed to register", err))
			}
			return
		}

		if claimed, err := svc.Project.ClaimInvitations(stdCtx, u.ID, u.Email); err != nil {
			slog.WarnContext(stdCtx, "Unable to claim invitations", slog.Any("error", err))
		} else if claimed > 0 {
			slog.InfoContext(stdCtx, "Claimed pending invitations", slog.Int("count", claimed))
		}

		token, err := auth.GenerateToken(u.ID, u.Email, u.Name)
		if err != nil {
			writeError(ctx, stdCtx, "Failed to generate token", perrors.NewErrInternalServerError("Failed to generate token", err))
			return
		}

		setTokenCookie(ctx, token)
		writeCreated(ctx, stdCtx, "Registered successfully", LoginResponse{
			Token: token,
			User:  UserResponse{ID: u.ID, Name: u.Name, Email: u.Email},
		})
	})

	// Login with email/password
	r.POST("/auth/login", func(ctx *fasthttp.RequestCtx) {
		stdCtx := requestContext(ctx)

		var req LoginRequest
		if err := parseBody(ctx, &req); err != nil {
			writeError(ctx, stdCtx, "Invalid request body", perrors.NewErrInvalidRequest("Invalid request body", err))
			return
		}

		if req.Email == "" || req.Password == "" {
			writeError(ctx, stdCtx, "Email and password are required", perrors.NewErrInvalidRequest("Email and password are required", errors.New("missing credentials")))
			return
		}

		u, err := svc.User.Authenticate(stdCtx, req.Email, req.Password)
		if err != nil {
			writeError(ctx, stdCtx, "Invalid credentials", perrors.NewErrUnauthorized("Invalid credentials", err))
			return
		}

		token, err := auth.GenerateToken(u.ID, u.Email, u.Name)
		if err != nil {
			writeError(ctx, stdCtx, "Failed to generate token", perrors.NewErrInternalServerError("Failed to generate token", err))
			return
		}

		setTokenCookie(ctx, token)
		writeOK(ctx, stdCtx, "Logged in successfully", LoginResponse{
			Token: token,
			User:  UserResponse{ID: u.ID, Name: u.Name, Email: u.Email},
		})
	})

	// Get current user info
	r.GET("/auth/me", func(ctx *fasthttp.RequestCtx) {
		stdCtx := requestContext(ctx)

		c, err := claims(ctx)
		if err != nil {
			writeError(ctx, stdCtx, "Unauthorized", perrors.NewErrUnauthorized("Unauthorized", err))
			return
		}

		u, err := svc.User.GetByID(stdCtx, c.UserID)
		if err != nil {
			writeError(ctx, stdCtx, "Failed to get user", perrors.NewErrInternalServerError("Failed to get user", err))
			return
		}

		writeOK(ctx, stdCtx, "success", UserResponse{ID: u.ID, Name: u.Name, Email: u.Email})
	})

	// Logout clears the access token cookie
	r.POST("/auth/logout", func(ctx *fasthttp.RequestCtx) {
		stdCtx := requestContext(ctx)

		var cookie fasthttp.Cookie
		cookie.SetKey("access_token")
		cookie.SetValue("")
		cookie.SetPath("/")
		cookie.SetHTTPOnly(true)
		cookie.SetExpire(time.Now().Add(-1 * time.Hour))
		ctx.Response.Header.SetCookie(&cookie)

		writeOK(ctx, stdCtx, "Logged out successfully", nil)
	})
}

func setTokenCookie(ctx *fasthttp.RequestCtx, token string) {
	var cookie fasthttp.Cookie
	cookie.SetKey("access_token")
	cookie.SetValue(token)
	cookie.SetPath("/")
	cookie.SetHTTPOnly(true)
	cookie.SetSecure(false) // Set to true in production (HTTPS)
	cookie.SetSameSite(fasthttp.CookieSameSiteLaxMode)
	cookie.SetExpire(time.Now().Add(24 * time.Hour))
	ctx.Response.Header.SetCookie(&cookie)
}
