// Package projectinfo implements the project-info extraction sub-stage
// that runs concurrently with orientation fusion in C8, producing the
// identity/location/classification block shared by the TakeoffSpec and
// BuildingSpec.
package projectinfo

import (
	"context"

	"github.com/abudker/takeoff24/internal/takeoff/agent"
	"github.com/abudker/takeoff24/internal/takeoff/model"
	"github.com/abudker/takeoff24/internal/takeoff/obs/errs"
)

const agentName = "extract_project"

// Runner invokes a single agent call to extract ProjectInfo.
type Runner struct {
	Executor agent.Executor
}

func (r *Runner) Run(ctx context.Context, prompt string) (model.ProjectInfo, error) {
	reply, err := r.Executor.Invoke(ctx, agentName, prompt)
	if err != nil {
		return model.ProjectInfo{}, errs.Wrap(errs.FatalToEvaluation, "project", err)
	}
	var info model.ProjectInfo
	if err := agent.ExtractJSON(reply, &info); err != nil {
		return model.ProjectInfo{}, errs.Wrap(errs.FatalToEvaluation, "project", err)
	}
	return info, nil
}
