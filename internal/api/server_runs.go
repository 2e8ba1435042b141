package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/damongreen123/fpl-ccd-configuration/internal/controller"
	"github.com/damongreen123/fpl-ccd-configuration/internal/scenario"
)

func registerHealthHandlers(api huma.API) {
	type healthOutput struct {
		Body struct {
			Status string `json:"status"`
		}
	}
	huma.Register(api, huma.Operation{OperationID: "health", Method: http.MethodGet, Path: "/health", Summary: "Health check", Tags: []string{"Health"}},
		func(ctx context.Context, input *struct{}) (*healthOutput, error) {
			out := &healthOutput{}
			out.Body.Status = "ok"
			return out, nil
		})
}

func registerScenarioHandlers(api huma.API, svc Service) {
	type listFeaturesOutput struct {
		Body struct {
			Features []controller.FeatureInfo `json:"features"`
		}
	}
	huma.Register(api, huma.Operation{OperationID: "list-features", Method: http.MethodGet, Path: "/api/v1/features", Summary: "List features and their scenarios", Tags: []string{"Scenarios"}},
		func(ctx context.Context, input *struct{}) (*listFeaturesOutput, error) {
			out := &listFeaturesOutput{}
			out.Body.Features = svc.ListFeatures(ctx)
			if out.Body.Features == nil {
				out.Body.Features = []controller.FeatureInfo{}
			}
			return out, nil
		})
}

type startRunBody struct {
	Features []string `json:"features,omitempty" doc:"Feature names to run"`
	Tags     []string `json:"tags,omitempty" doc:"Run only scenarios carrying one of these tags"`
}

func registerRunHandlers(api huma.API, svc Service) {
	type runOutput struct {
		Body controller.RunDetail
	}

	huma.Register(api, huma.Operation{
		OperationID:   "start-run",
		Method:        http.MethodPost,
		Path:          "/api/v1/runs",
		Summary:       "Start a run",
		Description:   "Starts the selected scenarios in the background. Empty filters select everything. Only one run executes at a time.",
		Tags:          []string{"Runs"},
		DefaultStatus: http.StatusAccepted,
	},
		func(ctx context.Context, input *struct {
			Body *startRunBody `required:"false"`
		}) (*runOutput, error) {
			var filter scenario.Filter
			if input.Body != nil {
				filter = scenario.Filter{Features: input.Body.Features, Tags: input.Body.Tags}
			}
			d, err := svc.StartRun(ctx, filter)
			if err != nil {
				return nil, mapErr(err)
			}
			return &runOutput{Body: d}, nil
		})

	type listRunsOutput struct {
		Body struct {
			Runs []controller.RunEntry `json:"runs"`
		}
	}
	huma.Register(api, huma.Operation{OperationID: "list-runs", Method: http.MethodGet, Path: "/api/v1/runs", Summary: "List runs, newest first", Tags: []string{"Runs"}},
		func(ctx context.Context, input *struct{}) (*listRunsOutput, error) {
			runs, err := svc.ListRuns(ctx)
			if err != nil {
				return nil, mapErr(err)
			}
			out := &listRunsOutput{}
			out.Body.Runs = runs
			if out.Body.Runs == nil {
				out.Body.Runs = []controller.RunEntry{}
			}
			return out, nil
		})

	huma.Register(api, huma.Operation{OperationID: "get-run", Method: http.MethodGet, Path: "/api/v1/runs/{run_id}", Summary: "Get a run with its results", Tags: []string{"Runs"}},
		func(ctx context.Context, input *runIDInput) (*runOutput, error) {
			d, err := svc.GetRun(ctx, input.RunID)
			if err != nil {
				return nil, mapErr(err)
			}
			return &runOutput{Body: d}, nil
		})

	type screenshotOutput struct {
		ContentType string `header:"Content-Type"`
		Body        []byte
	}
	huma.Register(api, huma.Operation{OperationID: "get-screenshot", Method: http.MethodGet, Path: "/api/v1/runs/{run_id}/screenshots/{name}", Summary: "Get a failure screenshot", Tags: []string{"Runs"}},
		func(ctx context.Context, input *struct {
			RunID string `path:"run_id"`
			Name  string `path:"name" doc:"Screenshot file name, as listed in the run's results"`
		}) (*screenshotOutput, error) {
			data, err := svc.ReadScreenshot(ctx, input.RunID, input.Name)
			if err != nil {
				return nil, mapErr(err)
			}
			return &screenshotOutput{ContentType: "image/png", Body: data}, nil
		})
}
