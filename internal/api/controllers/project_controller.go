package controllers

import (
	"context"
	"errors"

	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"

	"github.com/praveen001/planner/internal/perrors"
	"github.com/praveen001/planner/internal/services"
	project2 "github.com/praveen001/planner/internal/services/project"
	user2 "github.com/praveen001/planner/internal/services/user"
)

func RegisterProjectRoutes(r *router.Router, svc *services.Services) {
	// List projects owned by or shared with the caller
	r.GET("/projects", func(ctx *fasthttp.RequestCtx) {
		stdCtx := requestContext(ctx)
		c, err := claims(ctx)
		if err != nil {
			writeError(ctx, stdCtx, "Unauthorized", perrors.NewErrUnauthorized("Unauthorized", err))
			return
		}

		projects, err := svc.Project.List(stdCtx, c.UserID)
		if err != nil {
			writeError(ctx, stdCtx, "Failed to list projects", perrors.NewErrInternalServerError("Failed to list projects", err))
			return
		}

		writeOK(ctx, stdCtx, "Projects retrieved successfully", projects)
	})

	// Create project
	r.POST("/projects", func(ctx *fasthttp.RequestCtx) {
		stdCtx := requestContext(ctx)
		c, err := claims(ctx)
		if err != nil {
			writeError(ctx, stdCtx, "Unauthorized", perrors.NewErrUnauthorized("Unauthorized", err))
			return
		}

		var body project2.CreateProjectRequest
		if err := parseBody(ctx, &body); err != nil {
			writeError(ctx, stdCtx, "Invalid request body", perrors.NewErrInvalidRequest("Invalid request body", err))
			return
		}

		created, err := svc.Project.Create(stdCtx, c.UserID, &body)
		if err != nil {
			switch {
			case errors.Is(err, project2.ErrNameRequired):
				writeError(ctx, stdCtx, "Project name is required", perrors.NewErrInvalidRequest("Project name is required", err))
			default:
				writeError(ctx, stdCtx, "Failed to create project", perrors.NewErrInternalServerError("Failed to create project", err))
			}
			return
		}

		writeCreated(ctx, stdCtx, "Project created successfully", created)
	})

	// Invite a member by email. An existing account is added (or upgraded)
	// right away; an unknown email gets a pending invitation.
	r.POST("/projects/{id}/invite", func(ctx *fasthttp.RequestCtx) {
		stdCtx := requestContext(ctx)
		c, err := claims(ctx)
		if err != nil {
			writeError(ctx, stdCtx, "Unauthorized", perrors.NewErrUnauthorized("Unauthorized", err))
			return
		}

		projectID, err := pathParamInt64(ctx, "id")
		if err != nil {
			writeError(ctx, stdCtx, "Invalid project id", perrors.NewErrInvalidRequest("Invalid project id", err))
			return
		}

		var body project2.InviteMemberRequest
		if err := parseBody(ctx, &body); err != nil {
			writeError(ctx, stdCtx, "Invalid request body", perrors.NewErrInvalidRequest("Invalid request body", err))
			return
		}

		if body.Email == "" {
			writeError(ctx, stdCtx, "Email is required", perrors.NewErrInvalidRequest("Email is required", errors.New("email is required")))
			return
		}

		role := project2.RoleMember
		if body.Role != "" {
			if !project2.ValidRole(body.Role) {
				writeError(ctx, stdCtx, "Invalid role", perrors.NewErrInvalidRequest("Invalid role", errors.New("invalid role")))
				return
			}
			role = project2.Role(body.Role)
		}

		invitee, err := svc.User.GetByEmail(stdCtx, body.Email)
		if err != nil && !errors.Is(err, user2.ErrUserNotFound) {
			writeError(ctx, stdCtx, "Failed to invite member", perrors.NewErrInternalServerError("Failed to invite member", err))
			return
		}

		if invitee != nil {
			member, err := svc.Project.AddMember(stdCtx, c.UserID, projectID, invitee.ID, role)
			if err != nil {
				writeInviteError(ctx, stdCtx, err)
				return
			}

			writeOK(ctx, stdCtx, "Member added", member)
			return
		}

		invitation, err := svc.Project.CreateInvitation(stdCtx, c.UserID, projectID, body.Email, role)
		if err != nil {
			writeInviteError(ctx, stdCtx, err)
			return
		}

		writeCreated(ctx, stdCtx, "Invitation created", invitation)
	})
}

func writeInviteError(ctx *fasthttp.RequestCtx, stdCtx context.Context, err error) {
	switch {
	case errors.Is(err, project2.ErrProjectNotFound):
		writeError(ctx, stdCtx, "Project not found", perrors.NewErrNotFound("Project not found", err))
	case errors.Is(err, project2.ErrNotAllowed):
		writeError(ctx, stdCtx, "Forbidden", perrors.NewErrForbidden("Forbidden", err))
	default:
		writeError(ctx, stdCtx, "Failed to invite member", perrors.NewErrInternalServerError("Failed to invite member", err))
	}
}
