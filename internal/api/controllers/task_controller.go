package controllers

import (
	"context"
	"errors"

	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"

	"github.com/praveen001/planner/internal/api/response"
	"github.com/praveen001/planner/internal/perrors"
	"github.com/praveen001/planner/internal/services"
	task2 "github.com/praveen001/planner/internal/services/task"
)

func RegisterTaskRoutes(r *router.Router, svc *services.Services) {
	// List tasks with filtering, sorting and pagination
	r.GET("/tasks", func(ctx *fasthttp.RequestCtx) {
		stdCtx := requestContext(ctx)
		c, err := claims(ctx)
		if err != nil {
			writeError(ctx, stdCtx, "Unauthorized", perrors.NewErrUnauthorized("Unauthorized", err))
			return
		}

		q := task2.ParseListQuery(queryParams(ctx))

		tasks, meta, err := svc.Task.List(stdCtx, c.UserID, q)
		if err != nil {
			writeTaskError(ctx, stdCtx, "Failed to list tasks", err)
			return
		}

		response.NewResponse(stdCtx, "Tasks retrieved successfully", tasks).WithMeta(meta).Write(ctx)
	})

	// Task stats for the dashboard
	r.GET("/tasks/stats", func(ctx *fasthttp.RequestCtx) {
		stdCtx := requestContext(ctx)
		c, err := claims(ctx)
		if err != nil {
			writeError(ctx, stdCtx, "Unauthorized", perrors.NewErrUnauthorized("Unauthorized", err))
			return
		}

		stats, err := svc.Task.Stats(stdCtx, c.UserID)
		if err != nil {
			writeError(ctx, stdCtx, "Failed to get task stats", perrors.NewErrInternalServerError("Failed to get task stats", err))
			return
		}

		writeOK(ctx, stdCtx, "Task stats retrieved successfully", stats)
	})

	// Create task
	r.POST("/tasks", func(ctx *fasthttp.RequestCtx) {
		stdCtx := requestContext(ctx)
		c, err := claims(ctx)
		if err != nil {
			writeError(ctx, stdCtx, "Unauthorized", perrors.NewErrUnauthorized("Unauthorized", err))
			return
		}

		var body task2.CreateTaskRequest
		if err := parseBody(ctx, &body); err != nil {
			writeError(ctx, stdCtx, "Invalid request body", perrors.NewErrInvalidRequest("Invalid request body", err))
			return
		}

		created, err := svc.Task.Create(stdCtx, c.UserID, &body)
		if err != nil {
			writeTaskError(ctx, stdCtx, "Failed to create task", err)
			return
		}

		writeCreated(ctx, stdCtx, "Task created successfully", created)
	})

	// Update task (partial)
	r.PATCH("/tasks/{id}", func(ctx *fasthttp.RequestCtx) {
		stdCtx := requestContext(ctx)
		c, err := claims(ctx)
		if err != nil {
			writeError(ctx, stdCtx, "Unauthorized", perrors.NewErrUnauthorized("Unauthorized", err))
			return
		}

		id, err := pathParamInt64(ctx, "id")
		if err != nil {
			writeError(ctx, stdCtx, "Invalid task id", perrors.NewErrInvalidRequest("Invalid task id", err))
			return
		}

		var body task2.UpdateTaskRequest
		if err := parseBody(ctx, &body); err != nil {
			writeError(ctx, stdCtx, "Invalid request body", perrors.NewErrInvalidRequest("Invalid request body", err))
			return
		}

		updated, err := svc.Task.Update(stdCtx, c.UserID, id, &body)
		if err != nil {
			writeTaskError(ctx, stdCtx, "Failed to update task", err)
			return
		}

		writeOK(ctx, stdCtx, "Task updated successfully", updated)
	})

	// Delete task
	r.DELETE("/tasks/{id}", func(ctx *fasthttp.RequestCtx) {
		stdCtx := requestContext(ctx)
		c, err := claims(ctx)
		if err != nil {
			writeError(ctx, stdCtx, "Unauthorized", perrors.NewErrUnauthorized("Unauthorized", err))
			return
		}

		id, err := pathParamInt64(ctx, "id")
		if err != nil {
			writeError(ctx, stdCtx, "Invalid task id", perrors.NewErrInvalidRequest("Invalid task id", err))
			return
		}

		if err := svc.Task.Delete(stdCtx, c.UserID, id); err != nil {
			writeTaskError(ctx, stdCtx, "Failed to delete task", err)
			return
		}

		ctx.SetStatusCode(fasthttp.StatusNoContent)
	})
}

// writeTaskError maps task service sentinels onto the error taxonomy.
func writeTaskError(ctx *fasthttp.RequestCtx, stdCtx context.Context, message string, err error) {
	switch {
	case errors.Is(err, task2.ErrInvalidInput):
		writeError(ctx, stdCtx, message, perrors.NewErrInvalidRequest(err.Error(), err))
	case errors.Is(err, task2.ErrProjectForbidden):
		writeError(ctx, stdCtx, "Forbidden", perrors.NewErrForbidden("Forbidden", err))
	case errors.Is(err, task2.ErrTaskNotFound):
		writeError(ctx, stdCtx, "Task not found", perrors.NewErrNotFound("Task not found", err))
	case errors.Is(err, task2.ErrSubtaskNotFound):
		writeError(ctx, stdCtx, "Subtask not found", perrors.NewErrNotFound("Subtask not found", err))
	default:
		writeError(ctx, stdCtx, message, perrors.NewErrInternalServerError(message, err))
	}
}
