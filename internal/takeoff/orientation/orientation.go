// Package orientation implements C5: two independent bearing-estimation
// passes run concurrently, reconciled by geometric agreement rules.
package orientation

import (
	"context"
	"sync"

	"github.com/abudker/takeoff24/internal/takeoff/agent"
	"github.com/abudker/takeoff24/internal/takeoff/geo"
	"github.com/abudker/takeoff24/internal/takeoff/model"
)

const (
	pass1AgentName = "orientation_pass1_north_arrow"
	pass2AgentName = "orientation_pass2_elevation_labels"
)

// Runner drives both orientation passes and reconciles their results.
type Runner struct {
	Executor agent.Executor
}

// Run launches both passes concurrently and returns the reconciled
// OrientationVerification. Per §4.8 this stage's wall-clock is the max of
// its two internal awaits, not their sum — goroutines provide that for
// free.
func (r *Runner) Run(ctx context.Context, prompt1, prompt2 string) model.OrientationVerification {
	var wg sync.WaitGroup
	var result1, result2 model.OrientationPassResult

	wg.Add(2)
	go func() {
		defer wg.Done()
		result1 = r.runPass(ctx, model.Pass1, pass1AgentName, prompt1)
	}()
	go func() {
		defer wg.Done()
		result2 = r.runPass(ctx, model.Pass2, pass2AgentName, prompt2)
	}()
	wg.Wait()

	return Verify(result1, result2)
}

func (r *Runner) runPass(ctx context.Context, pass model.PassNumber, agentName, prompt string) model.OrientationPassResult {
	reply, err := r.Executor.Invoke(ctx, agentName, prompt)
	if err != nil {
		return model.OrientationPassResult{Pass: pass, Status: model.PassError, Error: err.Error()}
	}

	var parsed model.OrientationPassResult
	if err := agent.ExtractJSON(reply, &parsed); err != nil {
		return model.OrientationPassResult{Pass: pass, Status: model.PassError, Error: err.Error()}
	}
	parsed.Pass = pass
	if parsed.Status == "" {
		parsed.Status = model.PassSuccess
	}
	return parsed
}

// thresholds for §4.5 reconciliation, in degrees.
const (
	agreementMaxDelta          = 20.0
	sideFrontConfusionMin      = 70.0
	sideFrontConfusionMax      = 110.0
	frontBackConfusionMin      = 160.0
	frontBackConfusionMax      = 200.0
)

// Verify reconciles two orientation passes into a single bearing per the
// agreement-category rules: agreement, side/front confusion, front/back
// confusion, disagreement, or one/both passes having failed outright.
func Verify(p1, p2 model.OrientationPassResult) model.OrientationVerification {
	p1ok := p1.Status == model.PassSuccess
	p2ok := p2.Status == model.PassSuccess

	switch {
	case !p1ok && !p2ok:
		return model.OrientationVerification{
			FinalBearing: 0.0,
			Confidence:   model.ConfidenceLow,
			Category:     model.VerifyBothFailed,
			Notes:        "both orientation passes failed",
		}
	case !p1ok:
		return model.OrientationVerification{
			FinalBearing: p2.Bearing,
			Confidence:   p2.Confidence,
			Category:     model.VerifyPass1Failed,
			Notes:        "pass 1 failed: " + p1.Error,
		}
	case !p2ok:
		return model.OrientationVerification{
			FinalBearing: p1.Bearing,
			Confidence:   p1.Confidence,
			Category:     model.VerifyPass2Failed,
			Notes:        "pass 2 failed: " + p2.Error,
		}
	}

	delta := geo.AngularDistance(p1.Bearing, p2.Bearing)
	winner := higherConfidencePass(p1, p2)

	switch {
	case delta <= agreementMaxDelta:
		return model.OrientationVerification{
			FinalBearing: geo.CircularMean(p1.Bearing, p2.Bearing),
			Confidence:   model.ConfidenceHigh,
			Category:     model.VerifyAgreement,
		}
	case delta >= sideFrontConfusionMin && delta <= sideFrontConfusionMax:
		return model.OrientationVerification{
			FinalBearing: winner.Bearing,
			Confidence:   model.ConfidenceLow,
			Category:     model.VerifySideFrontConfusion,
		}
	case delta >= frontBackConfusionMin && delta <= frontBackConfusionMax:
		return model.OrientationVerification{
			FinalBearing: winner.Bearing,
			Confidence:   model.ConfidenceLow,
			Category:     model.VerifyFrontBackConfusion,
		}
	default:
		return model.OrientationVerification{
			FinalBearing: winner.Bearing,
			Confidence:   model.ConfidenceLow,
			Category:     model.VerifyDisagreement,
		}
	}
}

// higherConfidencePass breaks ties in favor of pass 1, per §4.5.
func higherConfidencePass(p1, p2 model.OrientationPassResult) model.OrientationPassResult {
	if p2.Confidence.Rank() > p1.Confidence.Rank() {
		return p2
	}
	return p1
}

// FrontOrientationContext derives the four cardinal wall azimuths from a
// resolved front bearing, using the non-geographic convention where
// "east" names the front.
func FrontOrientationContext(frontBearing float64) model.FrontOrientationContext {
	return model.FrontOrientationContext{
		FrontBearing: frontBearing,
		Azimuths: map[model.WallKey]float64{
			model.WallEast:  geo.NormalizeBearing(frontBearing),
			model.WallWest:  geo.NormalizeBearing(frontBearing + 180),
			model.WallNorth: geo.NormalizeBearing(frontBearing - 90),
			model.WallSouth: geo.NormalizeBearing(frontBearing + 90),
		},
	}
}
