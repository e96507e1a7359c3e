package service

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const contextSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "additionalProperties": false,
  "required": ["intent", "product_interest", "notes", "follow_up_message", "confidence_score"],
  "properties": {
    "intent": {"type": "string", "enum": ["Hot", "Warm", "Cold"]},
    "product_interest": {"type": "string"},
    "notes": {"type": "string"},
    "follow_up_message": {"type": "string"},
    "confidence_score": {"type": "integer", "minimum": 0, "maximum": 100}
  }
}`

var (
	openingFence = regexp.MustCompile("^```[a-zA-Z]*\\s*")
	closingFence = regexp.MustCompile("\\s*```$")
)

type modelReply struct {
	Intent          string  `json:"intent"`
	ProductInterest string  `json:"product_interest"`
	Notes           string  `json:"notes"`
	FollowUpMessage string  `json:"follow_up_message"`
	ConfidenceScore float64 `json:"confidence_score"`
}

func compileContextSchema() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("context.json", strings.NewReader(contextSchema)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("context.json")
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return schema, nil
}

// stripCodeFences removes a wrapping ```json ... ``` block.
func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	s = openingFence.ReplaceAllString(s, "")
	s = closingFence.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

// parseReply accepts a reply only when it matches the schema in full.
func parseReply(schema *jsonschema.Schema, raw string) (modelReply, error) {
	body := stripCodeFences(raw)
	if body == "" {
		return modelReply{}, fmt.Errorf("empty reply")
	}

	var v any
	if err := json.Unmarshal([]byte(body), &v); err != nil {
		return modelReply{}, fmt.Errorf("reply is not json: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return modelReply{}, fmt.Errorf("reply does not match schema: %w", err)
	}

	var reply modelReply
	if err := json.Unmarshal([]byte(body), &reply); err != nil {
		return modelReply{}, fmt.Errorf("decode reply: %w", err)
	}
	return reply, nil
}
