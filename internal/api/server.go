package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/damongreen123/fpl-ccd-configuration/internal/controller"
	"github.com/damongreen123/fpl-ccd-configuration/internal/failure"
	"github.com/damongreen123/fpl-ccd-configuration/internal/scenario"
)

type Service interface {
	ListFeatures(ctx context.Context) []controller.FeatureInfo
	StartRun(ctx context.Context, filter scenario.Filter) (controller.RunDetail, error)
	ListRuns(ctx context.Context) ([]controller.RunEntry, error)
	GetRun(ctx context.Context, id string) (controller.RunDetail, error)
	ReadScreenshot(ctx context.Context, runID, name string) ([]byte, error)
}

type runIDInput struct {
	RunID string `path:"run_id" doc:"Run identifier (UUID)"`
}

func NewServer(svc Service) http.Handler {
	router := chi.NewMux()
	router.Use(middleware.RequestID)
	router.Use(requestLogger)
	router.Use(middleware.Recoverer)

	cfg := huma.DefaultConfig(apiTitle, apiVersion)
	cfg.DocsPath = ""
	api := humachi.New(router, cfg)

	router.Get("/docs", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		if _, err := w.Write([]byte(docsHTML)); err != nil {
			slog.Debug("docs response write failed", "error", err)
		}
	})

	registerHealthHandlers(api)
	registerScenarioHandlers(api, svc)
	registerRunHandlers(api, svc)

	return router
}

func mapErr(err error) error {
	if err == nil {
		return nil
	}
	var coded *failure.CodedError
	if errors.As(err, &coded) {
		switch coded.Code {
		case failure.CodeValidation:
			return huma.Error400BadRequest(coded.Message)
		case failure.CodeRunNotFound:
			return huma.Error404NotFound(coded.Message)
		case failure.CodeRunInProgress:
			return huma.Error409Conflict(coded.Message)
		case failure.CodeTimeoutExceeded:
			return huma.Error504GatewayTimeout(coded.Message)
		case failure.CodeDriverFailure, failure.CodeCaseService:
			return huma.Error502BadGateway(coded.Message)
		default:
			return huma.Error500InternalServerError(fmt.Sprintf("%s: %s", coded.Code, coded.Message))
		}
	}
	return huma.Error500InternalServerError(err.Error())
}
