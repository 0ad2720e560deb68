package analysis_test

import "github.com/felixgeelhaar/essaycoach/pkg/domain/feedback"

func sampleFeedback() *feedback.Result {
	return &feedback.Result{
		Summary:           "Clear motivation, vague goals.",
		Score:             6,
		ImprovementPoints: []string{"Name a specific lab or professor."},
		QuotedImprovements: []feedback.QuotedImprovement{
			{OriginalText: "I like science", ImprovedText: "Chemistry reshaped how I see cooking", Explanation: "specific"},
		},
		StrengthsIdentified:    []string{},
		IndustrySpecificAdvice: []string{},
	}
}
