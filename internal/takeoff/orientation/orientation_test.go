package orientation

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/abudker/takeoff24/internal/takeoff/model"
)

func pass(status model.PassStatus, bearing float64, confidence model.Confidence) model.OrientationPassResult {
	return model.OrientationPassResult{Status: status, Bearing: bearing, Confidence: confidence}
}

func TestVerify_Agreement(t *testing.T) {
	v := Verify(pass(model.PassSuccess, 1, model.ConfidenceHigh), pass(model.PassSuccess, 359, model.ConfidenceHigh))
	assert.Equal(t, model.VerifyAgreement, v.Category)
	assert.Equal(t, model.ConfidenceHigh, v.Confidence)
	assert.InDelta(t, 0, v.FinalBearing, 1e-6)
}

func TestVerify_SideFrontConfusion(t *testing.T) {
	v := Verify(pass(model.PassSuccess, 0, model.ConfidenceHigh), pass(model.PassSuccess, 90, model.ConfidenceMedium))
	assert.Equal(t, model.VerifySideFrontConfusion, v.Category)
	assert.Equal(t, model.ConfidenceLow, v.Confidence)
	assert.Equal(t, 0.0, v.FinalBearing) // pass 1 wins: higher confidence
}

func TestVerify_FrontBackConfusion(t *testing.T) {
	v := Verify(pass(model.PassSuccess, 10, model.ConfidenceMedium), pass(model.PassSuccess, 190, model.ConfidenceHigh))
	assert.Equal(t, model.VerifyFrontBackConfusion, v.Category)
	assert.Equal(t, 190.0, v.FinalBearing) // pass 2 wins: higher confidence
}

func TestVerify_Disagreement(t *testing.T) {
	v := Verify(pass(model.PassSuccess, 0, model.ConfidenceHigh), pass(model.PassSuccess, 130, model.ConfidenceHigh))
	assert.Equal(t, model.VerifyDisagreement, v.Category)
	assert.Equal(t, 0.0, v.FinalBearing) // tie on confidence -> pass 1 wins
}

func TestVerify_Pass1Failed(t *testing.T) {
	v := Verify(model.OrientationPassResult{Status: model.PassError, Error: "boom"}, pass(model.PassSuccess, 45, model.ConfidenceMedium))
	assert.Equal(t, model.VerifyPass1Failed, v.Category)
	assert.Equal(t, 45.0, v.FinalBearing)
}

func TestVerify_BothFailed(t *testing.T) {
	v := Verify(
		model.OrientationPassResult{Status: model.PassError},
		model.OrientationPassResult{Status: model.PassError},
	)
	assert.Equal(t, model.VerifyBothFailed, v.Category)
	assert.Equal(t, 0.0, v.FinalBearing)
	assert.Equal(t, model.ConfidenceLow, v.Confidence)
}

func TestFrontOrientationContext_NonGeographicConvention(t *testing.T) {
	ctx := FrontOrientationContext(90)
	assert.InDelta(t, 90, ctx.Azimuths[model.WallEast], 1e-9)
	assert.InDelta(t, 270, ctx.Azimuths[model.WallWest], 1e-9)
	assert.InDelta(t, 0, ctx.Azimuths[model.WallNorth], 1e-9)
	assert.InDelta(t, 180, ctx.Azimuths[model.WallSouth], 1e-9)
}
