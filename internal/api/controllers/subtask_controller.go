package controllers

import (
	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"

	"github.com/praveen001/planner/internal/perrors"
	"github.com/praveen001/planner/internal/services"
	task2 "github.com/praveen001/planner/internal/services/task"
)

func RegisterSubtaskRoutes(r *router.Router, svc *services.Services) {
	// List subtasks of an owned task
	r.GET("/tasks/{id}/subtasks", func(ctx *fasthttp.RequestCtx) {
		stdCtx := requestContext(ctx)
		c, err := claims(ctx)
		if err != nil {
			writeError(ctx, stdCtx, "Unauthorized", perrors.NewErrUnauthorized("Unauthorized", err))
			return
		}

		parentID, err := pathParamInt64(ctx, "id")
		if err != nil {
			writeError(ctx, stdCtx, "Invalid task id", perrors.NewErrInvalidRequest("Invalid task id", err))
			return
		}

		subtasks, err := svc.Task.ListSubtasks(stdCtx, c.UserID, parentID)
		if err != nil {
			writeTaskError(ctx, stdCtx, "Failed to list subtasks", err)
			return
		}

		writeOK(ctx, stdCtx, "Subtasks retrieved successfully", subtasks)
	})

	// Create subtask under an owned task
	r.POST("/tasks/{id}/subtasks", func(ctx *fasthttp.RequestCtx) {
		stdCtx := requestContext(ctx)
		c, err := claims(ctx)
		if err != nil {
			writeError(ctx, stdCtx, "Unauthorized", perrors.NewErrUnauthorized("Unauthorized", err))
			return
		}

		parentID, err := pathParamInt64(ctx, "id")
		if err != nil {
			writeError(ctx, stdCtx, "Invalid task id", perrors.NewErrInvalidRequest("Invalid task id", err))
			return
		}

		var body task2.CreateSubtaskRequest
		if err := parseBody(ctx, &body); err != nil {
			writeError(ctx, stdCtx, "Invalid request body", perrors.NewErrInvalidRequest("Invalid request body", err))
			return
		}

		created, err := svc.Task.CreateSubtask(stdCtx, c.UserID, parentID, &body)
		if err != nil {
			writeTaskError(ctx, stdCtx, "Failed to create subtask", err)
			return
		}

		writeCreated(ctx, stdCtx, "Subtask created successfully", created)
	})

	// Update subtask (partial); ownership is transitive through the parent
	r.PATCH("/tasks/subtasks/{subId}", func(ctx *fasthttp.RequestCtx) {
		stdCtx := requestContext(ctx)
		c, err := claims(ctx)
		if err != nil {
			writeError(ctx, stdCtx, "Unauthorized", perrors.NewErrUnauthorized("Unauthorized", err))
			return
		}

		subID, err := pathParamInt64(ctx, "subId")
		if err != nil {
			writeError(ctx, stdCtx, "Invalid subtask id", perrors.NewErrInvalidRequest("Invalid subtask id", err))
			return
		}

		var body task2.UpdateSubtaskRequest
		if err := parseBody(ctx, &body); err != nil {
			writeError(ctx, stdCtx, "Invalid request body", perrors.NewErrInvalidRequest("Invalid request body", err))
			return
		}

		updated, err := svc.Task.UpdateSubtask(stdCtx, c.UserID, subID, &body)
		if err != nil {
			writeTaskError(ctx, stdCtx, "Failed to update subtask", err)
			return
		}

		writeOK(ctx, stdCtx, "Subtask updated successfully", updated)
	})

	// Delete subtask
	r.DELETE("/tasks/subtasks/{subId}", func(ctx *fasthttp.RequestCtx) {
		stdCtx := requestContext(ctx)
		c, err := claims(ctx)
		if err != nil {
			writeError(ctx, stdCtx, "Unauthorized", perrors.NewErrUnauthorized("Unauthorized", err))
			return
		}

		subID, err := pathParamInt64(ctx, "subId")
		if err != nil {
			writeError(ctx, stdCtx, "Invalid subtask id", perrors.NewErrInvalidRequest("Invalid subtask id", err))
			return
		}

		if err := svc.Task.DeleteSubtask(stdCtx, c.UserID, subID); err != nil {
			writeTaskError(ctx, stdCtx, "Failed to delete subtask", err)
			return
		}

		ctx.SetStatusCode(fasthttp.StatusNoContent)
	})
}
