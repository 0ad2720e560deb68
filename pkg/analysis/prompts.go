package analysis

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/felixgeelhaar/essaycoach/pkg/domain/analysis"
	"github.com/felixgeelhaar/essaycoach/pkg/domain/feedback"
)

const systemPrompt = "You are an experienced university admissions coach reviewing application documents. " +
	"You answer ONLY with a single JSON object matching the schema you are given. Do not add commentary."

var actionInstructions = map[analysis.Action]string{
	analysis.ActionSuggestions: "Give up to five short, concrete writing suggestions for the text as it stands. " +
		`Return {"suggestions": [string]}.`,
	analysis.ActionContentGaps: "List the elements an admissions reader expects in this kind of document that are missing, " +
		"describe the gaps in one or two sentences and estimate completeness from 0 to 100. " +
		`Return {"missingElements": [string], "gapAnalysis": string, "completionScore": number}.`,
	analysis.ActionToneConsistency: "Rate how consistent the tone is with the requested tone from 0 to 100 and explain briefly. " +
		`Return {"toneScore": number, "toneAnalysis": string}.`,
	analysis.ActionRedundancy: "Find repeated words, phrases and ideas. Score 100 means no redundancy. Count the words. " +
		`Return {"redundancyScore": number, "redundantPhrases": [string], "wordCount": number}.`,
	analysis.ActionFullFeedback: "Write a complete review. Scores are 0 to 10. For quotedImprovements, originalText MUST be copied " +
		"verbatim from the document so it can be located; improvedText is the rewritten passage.",
	analysis.ActionRegenerateDraft: "Rewrite the whole document applying the feedback below. Keep the author's voice and facts; " +
		`do not invent experiences. Return {"draft": string} containing the full replacement text.`,
}

// buildPrompt renders the user prompt for a request.
func buildPrompt(req analysis.Request) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Task: %s\n", actionInstructions[req.Action])
	fmt.Fprintf(&b, "Document type: %s\n", orDefault(req.DocumentType, "essay"))
	if req.ProgramID != "" {
		fmt.Fprintf(&b, "Target program: %s\n", req.ProgramID)
	}
	if req.Tone != "" {
		fmt.Fprintf(&b, "Requested tone: %s\n", req.Tone)
	}
	if req.Action == analysis.ActionRegenerateDraft && req.Feedback != nil {
		b.WriteString("\nFeedback to apply:\n")
		b.WriteString(renderFeedback(req.Feedback))
	}

	fmt.Fprintf(&b, "\nResponse JSON schema:\n%s\n", analysis.SchemaFor(req.Action))
	fmt.Fprintf(&b, "\nDocument:\n<<<\n%s\n>>>\n", req.Content)
	return b.String()
}

func renderFeedback(fb *feedback.Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Summary: %s\n", fb.Summary)
	for _, p := range fb.ImprovementPoints {
		fmt.Fprintf(&b, "- %s\n", p)
	}
	if len(fb.QuotedImprovements) > 0 {
		quotes, _ := json.Marshal(fb.QuotedImprovements)
		fmt.Fprintf(&b, "Quoted improvements: %s\n", quotes)
	}
	return b.String()
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}

// extractJSONPayload strips code fences and surrounding prose from a model answer.
func extractJSONPayload(text string) string {
	clean := strings.TrimSpace(text)
	clean = strings.TrimPrefix(clean, "```json")
	clean = strings.TrimPrefix(clean, "```")
	clean = strings.TrimSuffix(clean, "```")
	clean = strings.TrimSpace(clean)
	if clean == "" {
		return clean
	}

	start := strings.IndexAny(clean, "{[")
	if start == -1 {
		return clean
	}
	closer := "}"
	if clean[start] == '[' {
		closer = "]"
	}
	end := strings.LastIndex(clean, closer)
	if end < start {
		return clean[start:]
	}
	return clean[start : end+1]
}
