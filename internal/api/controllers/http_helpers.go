package controllers

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	json "github.com/bytedance/sonic"
	"github.com/valyala/fasthttp"

	"github.com/praveen001/planner/internal/api/authenticator"
	"github.com/praveen001/planner/internal/api/response"
)

// requestContext returns a baseline context for handlers. fasthttp does not
// provide a standard context, so we start from the trace context extracted
// by the middleware, falling back to Background.
func requestContext(ctx *fasthttp.RequestCtx) context.Context {
	if traceCtx, ok := ctx.UserValue("traceCtx").(context.Context); ok {
		return traceCtx
	}

	return context.Background()
}

// claims returns the identity the auth middleware attached to the request.
func claims(ctx *fasthttp.RequestCtx) (*authenticator.UserClaims, error) {
	c, ok := ctx.UserValue("userClaims").(*authenticator.UserClaims)
	if !ok || c == nil {
		return nil, errors.New("no user claims on request")
	}

	return c, nil
}

func parseBody(ctx *fasthttp.RequestCtx, target any) error {
	body := ctx.PostBody()
	if len(body) == 0 {
		return errors.New("request body is empty")
	}

	return json.Unmarshal(body, target)
}

func writeError(ctx *fasthttp.RequestCtx, stdCtx context.Context, message string, err error) {
	response.NewResponse[any](stdCtx, message, nil).WithError(err).Write(ctx)
}

func writeOK(ctx *fasthttp.RequestCtx, stdCtx context.Context, message string, data any) {
	response.NewResponse(stdCtx, message, data).Write(ctx)
}

func writeCreated(ctx *fasthttp.RequestCtx, stdCtx context.Context, message string, data any) {
	response.NewResponse(stdCtx, message, data).WithStatus(fasthttp.StatusCreated).Write(ctx)
}

func pathParam(ctx *fasthttp.RequestCtx, key string) (string, error) {
	val := ctx.UserValue(key)
	if val == nil {
		return "", fmt.Errorf("%s is required", key)
	}

	return fmt.Sprint(val), nil
}

func pathParamInt64(ctx *fasthttp.RequestCtx, key string) (int64, error) {
	raw, err := pathParam(ctx, key)
	if err != nil {
		return 0, err
	}

	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}

	return id, nil
}

// queryParams flattens the fasthttp query args into a plain map for the
// query builder.
func queryParams(ctx *fasthttp.RequestCtx) map[string]string {
	params := map[string]string{}
	ctx.QueryArgs().VisitAll(func(k, v []byte) {
		params[string(k)] = string(v)
	})

	return params
}
