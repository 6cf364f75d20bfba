package api

import (
	"log"
	"log/slog"
	"net/http"
	"time"

	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"
	"go.opentelemetry.io/otel/propagation"

	"github.com/praveen001/planner/internal/api/authenticator"
	"github.com/praveen001/planner/internal/api/controllers"
	"github.com/praveen001/planner/internal/api/response"
	"github.com/praveen001/planner/internal/perrors"
)

var tracePropagator = propagation.TraceContext{}

func (s *Server) initNewRoutes() fasthttp.RequestHandler {
	r := router.New()

	r.GET("/health", func(ctx *fasthttp.RequestCtx) {
		ctx.SetStatusCode(fasthttp.StatusOK)
		_, _ = ctx.Write([]byte("OK"))
	})

	auth, err := authenticator.New(s.conf)
	if err != nil {
		log.Fatal(err)
	}

	controllers.RegisterAuthRoutes(r, s.services, auth)
	controllers.RegisterTaskRoutes(r, s.services)
	controllers.RegisterSubtaskRoutes(r, s.services)
	controllers.RegisterProjectRoutes(r, s.services)

	return s.withMiddlewares(r.Handler, auth)
}

func (s *Server) withMiddlewares(next fasthttp.RequestHandler, auth *authenticator.Authenticator) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		s.applyCORS(ctx)
		if string(ctx.Method()) == fasthttp.MethodOptions {
			ctx.SetStatusCode(fasthttp.StatusNoContent)
			return
		}

		start := time.Now()
		uri := ctx.URI()
		requestURI := string(uri.FullURI())
		slog.Info("Started processing", slog.String("method", string(ctx.Method())), slog.String("request_uri", requestURI))

		h := http.Header{}
		ctx.Request.Header.VisitAll(func(k, v []byte) {
			h[string(k)] = []string{string(v)}
		})
		traceCtx := tracePropagator.Extract(ctx, propagation.HeaderCarrier(h))
		ctx.SetUserValue("traceCtx", traceCtx)

		// Auth check
		if !isPublicRoute(ctx) {
			accessToken := authenticator.ExtractToken(string(ctx.Request.Header.Peek("Authorization")))
			if accessToken == "" {
				accessToken = string(ctx.Request.Header.Cookie("access_token"))
			}

			if accessToken == "" {
				ctx.SetStatusCode(fasthttp.StatusUnauthorized)
				return
			}

			claims, err := auth.VerifyAccessToken(accessToken)
			if err != nil {
				ctx.SetStatusCode(fasthttp.StatusUnauthorized)
				return
			}

			// Store user claims in context for downstream handlers
			ctx.SetUserValue("userClaims", claims)

			if s.limiter != nil {
				allowed, err := s.limiter.Allow(traceCtx, claims.UserID)
				if err != nil {
					slog.WarnContext(traceCtx, "Rate limiter failure, letting request through", slog.Any("error", err))
				} else if !allowed {
					response.NewResponse[any](traceCtx, "Too many requests", nil).
						WithError(perrors.New(perrors.ErrCodeTooManyRequests, "Too many requests", nil)).
						Write(ctx)
					return
				}
			}
		}

		next(ctx)

		slog.Info("Finished processing", slog.String("method", string(ctx.Method())), slog.String("request_uri", requestURI), slog.Duration("duration", time.Since(start)))
	}
}

func (s *Server) applyCORS(ctx *fasthttp.RequestCtx) {
	origin := string(ctx.Request.Header.Peek("Origin"))

	allowed := origin
	if len(s.conf.ALLOWED_ORIGINS) > 0 {
		allowed = ""
		for _, o := range s.conf.ALLOWED_ORIGINS {
			if o == origin {
				allowed = origin
				break
			}
		}
	}

	if allowed == "" {
		return
	}

	headers := &ctx.Response.Header
	headers.Set("Access-Control-Allow-Origin", allowed)
	headers.Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS,PATCH")
	headers.Set("Access-Control-Allow-Headers", s.conf.ALLOWED_HEADERS)
	headers.Set("Access-Control-Allow-Credentials", "true")
}

func isPublicRoute(ctx *fasthttp.RequestCtx) bool {
	path := string(ctx.Path())

	publicRoutes := []string{
		"/health",
		"/auth/register",
		"/auth/login",
	}

	for _, route := range publicRoutes {
		if path == route {
			return true
		}
	}
	return false
}
