package verify

// FieldMetrics is one evaluation's field-level precision/recall/F1,
// treating each ground-truth field as a binary classification: did
// extraction reproduce it correctly.
type FieldMetrics struct {
	Precision             float64
	Recall                float64
	F1                     float64
	TruePositives          int
	FalsePositives         int
	FalseNegatives         int
	TotalFieldsGT          int
	TotalFieldsExtracted   int
	CorrectFields          int
	Omissions              int
	Hallucinations         int
	WrongValues            int
	FormatErrors           int
}

// ComputeFieldLevelMetrics turns a discrepancy list plus both sides'
// total field counts into precision/recall/F1, per §C10:
//
//	TP = total_fields_gt - omissions - wrong_values - format_errors
//	FP = hallucinations + wrong_values + format_errors
//	FN = omissions
func ComputeFieldLevelMetrics(discrepancies []FieldDiscrepancy, totalFieldsGT, totalFieldsExtracted int) FieldMetrics {
	var omissions, hallucinations, wrongValues, formatErrors int
	for _, d := range discrepancies {
		switch d.ErrorType {
		case Omission:
			omissions++
		case Hallucination:
			hallucinations++
		case WrongValue:
			wrongValues++
		case FormatError:
			formatErrors++
		}
	}

	tp := totalFieldsGT - omissions - wrongValues - formatErrors
	fp := hallucinations + wrongValues + formatErrors
	fn := omissions

	var precision, recall, f1 float64
	if tp+fp > 0 {
		precision = float64(tp) / float64(tp+fp)
	}
	if tp+fn > 0 {
		recall = float64(tp) / float64(tp+fn)
	}
	if precision+recall > 0 {
		f1 = 2 * (precision * recall) / (precision + recall)
	}

	return FieldMetrics{
		Precision:            precision,
		Recall:               recall,
		F1:                   f1,
		TruePositives:        tp,
		FalsePositives:       fp,
		FalseNegatives:       fn,
		TotalFieldsGT:        totalFieldsGT,
		TotalFieldsExtracted: totalFieldsExtracted,
		CorrectFields:        tp,
		Omissions:            omissions,
		Hallucinations:       hallucinations,
		WrongValues:          wrongValues,
		FormatErrors:         formatErrors,
	}
}

// AggregateMetrics summarizes a batch of evaluations: macro-average
// (the mean of per-eval precision/recall/F1, the primary metric
// reported to the improvement loop) alongside a micro-average (pooled
// TP/FP/FN recomputed across the whole batch, which down-weights small
// evals relative to macro).
type AggregateMetrics struct {
	Precision     float64
	Recall        float64
	F1            float64
	MicroPrecision float64
	MicroRecall    float64
	MicroF1        float64
	TotalEvals     int
	PerEval        []FieldMetrics
}

// ComputeAggregateMetrics folds a batch of per-eval FieldMetrics into
// both the macro- and micro-averaged view.
func ComputeAggregateMetrics(evalMetrics []FieldMetrics) AggregateMetrics {
	if len(evalMetrics) == 0 {
		return AggregateMetrics{}
	}
	n := len(evalMetrics)

	var sumPrecision, sumRecall, sumF1 float64
	var totalTP, totalFP, totalFN int
	for _, m := range evalMetrics {
		sumPrecision += m.Precision
		sumRecall += m.Recall
		sumF1 += m.F1
		totalTP += m.TruePositives
		totalFP += m.FalsePositives
		totalFN += m.FalseNegatives
	}

	var microPrecision, microRecall, microF1 float64
	if totalTP+totalFP > 0 {
		microPrecision = float64(totalTP) / float64(totalTP+totalFP)
	}
	if totalTP+totalFN > 0 {
		microRecall = float64(totalTP) / float64(totalTP+totalFN)
	}
	if microPrecision+microRecall > 0 {
		microF1 = 2 * microPrecision * microRecall / (microPrecision + microRecall)
	}

	return AggregateMetrics{
		Precision:      sumPrecision / float64(n),
		Recall:         sumRecall / float64(n),
		F1:             sumF1 / float64(n),
		MicroPrecision: microPrecision,
		MicroRecall:    microRecall,
		MicroF1:        microF1,
		TotalEvals:     n,
		PerEval:        evalMetrics,
	}
}
