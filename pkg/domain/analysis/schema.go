package analysis

import (
	"github.com/xeipuuv/gojsonschema"
)

// Response schemas are deliberately permissive about missing keys: absent fields
// are default-filled at decode time. They reject payloads whose shape is wrong
// for the action (a string where a list belongs, an array instead of an object).

const stringListSchema = `{ "type": ["array", "null"], "items": { "type": ["string", "null"] } }`

const scoreSchema = `{ "type": ["number", "string", "null"] }`

const suggestionsSchemaJSON = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "suggestions": ` + stringListSchema + `
  }
}`

const gapsSchemaJSON = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "missingElements": ` + stringListSchema + `,
    "gapAnalysis": { "type": ["string", "null"] },
    "completionScore": ` + scoreSchema + `
  }
}`

const toneSchemaJSON = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "toneScore": ` + scoreSchema + `,
    "toneAnalysis": { "type": ["string", "null"] }
  }
}`

const redundancySchemaJSON = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "redundancyScore": ` + scoreSchema + `,
    "redundantPhrases": ` + stringListSchema + `,
    "wordCount": ` + scoreSchema + `
  }
}`

const feedbackSchemaJSON = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["summary"],
  "properties": {
    "summary": { "type": "string" },
    "score": ` + scoreSchema + `,
    "detailedScores": {
      "type": ["object", "null"],
      "additionalProperties": ` + scoreSchema + `
    },
    "improvementPoints": ` + stringListSchema + `,
    "quotedImprovements": {
      "type": ["array", "null"],
      "items": {
        "type": "object",
        "properties": {
          "originalText": { "type": ["string", "null"] },
          "improvedText": { "type": ["string", "null"] },
          "explanation": { "type": ["string", "null"] }
        }
      }
    },
    "strengthsIdentified": ` + stringListSchema + `,
    "industrySpecificAdvice": ` + stringListSchema + `
  }
}`

const draftSchemaJSON = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["draft"],
  "properties": {
    "draft": { "type": "string" }
  }
}`

var schemaLoaders = map[Action]gojsonschema.JSONLoader{
	ActionSuggestions:     gojsonschema.NewStringLoader(suggestionsSchemaJSON),
	ActionContentGaps:     gojsonschema.NewStringLoader(gapsSchemaJSON),
	ActionToneConsistency: gojsonschema.NewStringLoader(toneSchemaJSON),
	ActionRedundancy:      gojsonschema.NewStringLoader(redundancySchemaJSON),
	ActionFullFeedback:    gojsonschema.NewStringLoader(feedbackSchemaJSON),
	ActionRegenerateDraft: gojsonschema.NewStringLoader(draftSchemaJSON),
}

// SchemaFor returns the raw JSON schema for an action's response, for prompts and docs.
func SchemaFor(action Action) string {
	switch action {
	case ActionSuggestions:
		return suggestionsSchemaJSON
	case ActionContentGaps:
		return gapsSchemaJSON
	case ActionToneConsistency:
		return toneSchemaJSON
	case ActionRedundancy:
		return redundancySchemaJSON
	case ActionFullFeedback:
		return feedbackSchemaJSON
	case ActionRegenerateDraft:
		return draftSchemaJSON
	}
	return ""
}
