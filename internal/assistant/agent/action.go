// internal/assistant/agent/action.go
package agent

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	apperrors "fiscal-assistant/internal/common/errors"
	"fiscal-assistant/internal/common/validation"
)

const FinalAnswerAction = "Final Answer"

const actionSchema = `{
	"type": "object",
	"required": ["action", "action_input"],
	"properties": {
		"action": {"type": "string", "minLength": 1},
		"action_input": {"type": ["string", "object", "number", "boolean"]}
	}
}`

var (
	compiledActionSchema = mustCompile(actionSchema)
	fencedBlock          = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)```")
)

func mustCompile(schema string) *validation.Schema {
	s, err := validation.CompileSchema(schema)
	if err != nil {
		panic(fmt.Sprintf("action schema: %v", err))
	}
	return s
}

type actionKind int

const (
	actionFinal actionKind = iota
	actionTool
	actionInvalid
)

// Action is one parsed step of the model's output.
type Action struct {
	kind  actionKind
	Tool  string
	Input string
	Err   error
}

func (a Action) IsFinal() bool { return a.kind == actionFinal }
func (a Action) IsTool() bool  { return a.kind == actionTool }

// ParseAction reads a structured-chat action blob. Text that holds no JSON is the final answer.
func ParseAction(text string) Action {
	raw, ok := extractJSON(text)
	if !ok {
		return Action{kind: actionFinal, Input: strings.TrimSpace(text)}
	}

	var doc interface{}
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return Action{kind: actionFinal, Input: strings.TrimSpace(text)}
	}

	if res := compiledActionSchema.Validate(doc); !res.Valid {
		return Action{kind: actionInvalid, Err: apperrors.NewAgentOutputInvalidError(res.Error())}
	}

	blob := doc.(map[string]interface{})
	name := strings.TrimSpace(blob["action"].(string))
	input := inputString(blob["action_input"])

	if strings.EqualFold(name, FinalAnswerAction) {
		return Action{kind: actionFinal, Input: strings.TrimSpace(input)}
	}
	return Action{kind: actionTool, Tool: name, Input: input}
}

func extractJSON(text string) (string, bool) {
	if m := fencedBlock.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1]), true
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return "", false
	}
	return text[start : end+1], true
}

// inputString flattens action_input. Objects with a single textual query field collapse to it.
func inputString(v interface{}) string {
	switch in := v.(type) {
	case string:
		return in
	case map[string]interface{}:
		for _, key := range []string{"query", "question", "input", "tool_input"} {
			if s, ok := in[key].(string); ok {
				return s
			}
		}
		b, _ := json.Marshal(in)
		return string(b)
	default:
		return fmt.Sprint(in)
	}
}
