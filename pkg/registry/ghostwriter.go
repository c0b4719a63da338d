package registry

const (
	TaskGenerateContent    = "generate-content"
	TaskCheckOriginality   = "check-originality"
	TaskDecideRegeneration = "decide-regeneration"
	TaskRewriteContent     = "rewrite-content"
	TaskExportContent      = "export-content"
	TaskResetSession       = "reset-session"

	categoryGhostwriter = "ghostwriter"
	registryVersion     = "1.0.0"
)

type obj = map[string]interface{}

func str() obj { return obj{"type": "string"} }

func props(p obj, required ...string) obj {
	schema := obj{"type": "object", "properties": p}
	if len(required) > 0 {
		req := make([]interface{}, len(required))
		for i, r := range required {
			req[i] = r
		}
		schema["required"] = req
	}
	return schema
}

var snippetSchema = props(obj{
	"title":   str(),
	"url":     str(),
	"snippet": str(),
})

// Unknown tones are accepted and treated as Neutral.
var toneSchema = obj{
	"type":        "string",
	"description": "Neutral, Casual, Formal or Excited",
}

// Default returns the registry of the ghostwriter activities.
func Default() *ActivityRegistry {
	return &ActivityRegistry{
		Version:     registryVersion,
		LastUpdated: "2025-01-01T00:00:00Z",
		Activities: []Activity{
			{
				ID:                   TaskGenerateContent,
				DisplayName:          "Generate Content",
				Description:          "Sends the user's prompt to the generative model and stores the text in the session",
				Category:             categoryGhostwriter,
				Version:              registryVersion,
				TaskType:             TaskGenerateContent,
				ImplementationStatus: StatusCompleted,
				Session:              SessionWrite,
				RateLimited:          true,
				InputSchema: props(obj{
					"sessionId": str(),
					"prompt":    str(),
				}),
				OutputSchema: props(obj{
					"sessionId":       str(),
					"generatedText":   str(),
					"generationCount": obj{"type": "integer"},
				}, "sessionId", "generatedText"),
				ErrorCodes: []string{"INVALID_INPUT", "INVALID_PROMPT", "RATE_LIMITED", "GENERATION_FAILED", "GENERATION_TIMEOUT", "SESSION_STORE_FAILED"},
				Timeout:    "60s",
				Retries:    2,
				Tags:       []string{"genai"},
			},
			{
				ID:                   TaskCheckOriginality,
				DisplayName:          "Check Originality",
				Description:          "Searches the web for the content and scores how original it is",
				Category:             categoryGhostwriter,
				Version:              registryVersion,
				TaskType:             TaskCheckOriginality,
				ImplementationStatus: StatusCompleted,
				Session:              SessionRead,
				InputSchema: props(obj{
					"sessionId": str(),
					"content":   str(),
				}),
				OutputSchema: props(obj{
					"assessment": props(obj{
						"score":              obj{"type": "integer"},
						"consideredSnippets": obj{"type": "array", "items": snippetSchema},
					}),
					"score":               obj{"type": "integer", "minimum": 0, "maximum": 100},
					"consideredSnippets":  obj{"type": "array", "items": snippetSchema},
					"similarContentFound": obj{"type": "boolean"},
					"resultCount":         obj{"type": "integer"},
					"searchError":         str(),
				}, "score", "consideredSnippets"),
				ErrorCodes: []string{"INVALID_INPUT", "NO_CONTENT", "SESSION_NOT_FOUND", "SESSION_STORE_FAILED"},
				Timeout:    "20s",
				Retries:    3,
				Tags:       []string{"web-search"},
			},
			{
				ID:                   TaskDecideRegeneration,
				DisplayName:          "Decide Regeneration",
				Description:          "Decides whether to offer a rewrite and builds the rewrite instruction",
				Category:             categoryGhostwriter,
				Version:              registryVersion,
				TaskType:             TaskDecideRegeneration,
				ImplementationStatus: StatusCompleted,
				Session:              SessionNone,
				InputSchema: props(obj{
					"assessment": props(obj{
						"score":              obj{"type": "integer", "minimum": 0, "maximum": 100},
						"consideredSnippets": obj{"type": "array", "items": snippetSchema},
					}, "score"),
					"originalityThreshold": obj{"type": "integer"},
					"tone":                 toneSchema,
				}, "assessment"),
				OutputSchema: props(obj{
					"shouldOffer": obj{"type": "boolean"},
					"instruction": str(),
				}, "shouldOffer", "instruction"),
				ErrorCodes: []string{"INVALID_INPUT"},
				Timeout:    "5s",
				Retries:    0,
				Tags:       []string{"policy"},
			},
			{
				ID:                   TaskRewriteContent,
				DisplayName:          "Rewrite Content",
				Description:          "Rewrites the content through the model, falling back to synonym substitution when the model echoes it",
				Category:             categoryGhostwriter,
				Version:              registryVersion,
				TaskType:             TaskRewriteContent,
				ImplementationStatus: StatusCompleted,
				Session:              SessionWrite,
				InputSchema: props(obj{
					"sessionId":   str(),
					"content":     str(),
					"instruction": str(),
					"tone":        toneSchema,
				}),
				OutputSchema: props(obj{
					"sessionId":     str(),
					"rewrittenText": str(),
					"strategy":      obj{"type": "string", "enum": []interface{}{"remote", "local"}},
					"converged":     obj{"type": "boolean"},
				}, "rewrittenText", "strategy", "converged"),
				ErrorCodes: []string{"INVALID_INPUT", "NO_CONTENT", "SESSION_NOT_FOUND", "REWRITE_FAILED", "GENERATION_TIMEOUT", "SESSION_STORE_FAILED"},
				Timeout:    "60s",
				Retries:    2,
				Tags:       []string{"genai"},
			},
			{
				ID:                   TaskExportContent,
				DisplayName:          "Export Content",
				Description:          "Renders the content as a text, markdown or html file",
				Category:             categoryGhostwriter,
				Version:              registryVersion,
				TaskType:             TaskExportContent,
				ImplementationStatus: StatusCompleted,
				Session:              SessionRead,
				InputSchema: props(obj{
					"sessionId": str(),
					"content":   str(),
					"format":    str(),
				}),
				OutputSchema: props(obj{
					"fileName":    str(),
					"contentType": str(),
					"content":     obj{"type": "string", "contentEncoding": "base64"},
					"size":        obj{"type": "integer"},
				}, "fileName", "contentType", "content"),
				ErrorCodes: []string{"INVALID_INPUT", "NO_CONTENT", "SESSION_NOT_FOUND", "UNSUPPORTED_EXPORT_FORMAT", "EXPORT_FAILED", "SESSION_STORE_FAILED"},
				Timeout:    "10s",
				Retries:    0,
				Tags:       []string{"export"},
			},
			{
				ID:                   TaskResetSession,
				DisplayName:          "Reset Session",
				Description:          "Clears the session's generated text, flags and rate limit window",
				Category:             categoryGhostwriter,
				Version:              registryVersion,
				TaskType:             TaskResetSession,
				ImplementationStatus: StatusCompleted,
				Session:              SessionWrite,
				InputSchema: props(obj{
					"sessionId": obj{"type": "string", "minLength": 1},
				}, "sessionId"),
				OutputSchema: props(obj{
					"sessionId": str(),
					"reset":     obj{"type": "boolean"},
				}, "sessionId", "reset"),
				ErrorCodes: []string{"INVALID_INPUT", "SESSION_STORE_FAILED"},
				Timeout:    "5s",
				Retries:    3,
				Tags:       []string{"session"},
			},
		},
	}
}
