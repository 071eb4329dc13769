// internal/assistant/agent/offline.go
package agent

import (
	"encoding/json"
	"strings"

	"fiscal-assistant/internal/assistant/llm"
	"fiscal-assistant/internal/models"
)

// OfflineResponder drives the mock provider without a hosted model: it calls
// toolName with the user's question and returns the observation as the answer.
func OfflineResponder(toolName string) llm.Responder {
	return func(messages []models.Message) (string, error) {
		if len(messages) == 0 {
			return FallbackMessage, nil
		}

		last := messages[len(messages)-1].Content
		if strings.HasPrefix(last, observationPrefix) {
			observation := strings.TrimSuffix(strings.TrimPrefix(last, observationPrefix), observationReminder)
			return actionBlob(FinalAnswerAction, observation), nil
		}
		if last == generatePrompt {
			return FallbackMessage, nil
		}
		return actionBlob(toolName, last), nil
	}
}

func actionBlob(action, input string) string {
	b, _ := json.Marshal(map[string]string{"action": action, "action_input": input})
	return "```json\n" + string(b) + "\n```"
}
