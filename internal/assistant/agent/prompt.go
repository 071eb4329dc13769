// internal/assistant/agent/prompt.go
package agent

import (
	"fmt"
	"strings"

	"fiscal-assistant/internal/assistant/tool"
	"fiscal-assistant/internal/models"
)

const observationPrefix = "Observation: "

const formatInstructions = `Vous disposez des outils suivants :

%s

Pour utiliser un outil ou répondre, renvoyez uniquement un blob JSON entre balises, par exemple :

` + "```json" + `
{"action": "%s", "action_input": "question à rechercher"}
` + "```" + `

Valeurs possibles pour "action" : "Final Answer" ou %s.
Quand vous connaissez la réponse, renvoyez :

` + "```json" + `
{"action": "Final Answer", "action_input": "réponse finale pour l'utilisateur"}
` + "```"

const observationReminder = "\n\nRépondez avec un blob JSON d'action. Utilisez \"Final Answer\" si vous avez la réponse."

const generatePrompt = "Le nombre maximal d'étapes est atteint. À partir des observations ci-dessus, " +
	"rédigez maintenant la meilleure réponse finale possible pour l'utilisateur, en texte simple."

const invalidFormatObservation = "Format invalide. Renvoyez un blob JSON avec les clés \"action\" et \"action_input\"."

func systemMessage(systemPrompt string, tools []tool.Tool) models.Message {
	var catalogue strings.Builder
	names := make([]string, 0, len(tools))
	for _, t := range tools {
		fmt.Fprintf(&catalogue, "%s: %s\n", t.Name(), t.Description())
		names = append(names, fmt.Sprintf("%q", t.Name()))
	}

	example := "Final Answer"
	if len(tools) > 0 {
		example = tools[0].Name()
	}

	content := strings.TrimSpace(systemPrompt) + "\n\n" +
		fmt.Sprintf(formatInstructions, strings.TrimSpace(catalogue.String()), example, strings.Join(names, ", "))
	return models.Message{Role: models.RoleSystem, Content: content}
}

// buildMessages assembles one Reasoning request: instructions, history window, the new input and the scratchpad.
func buildMessages(system models.Message, history []models.Message, input string, scratchpad []models.Message) []models.Message {
	out := make([]models.Message, 0, 2+len(history)+len(scratchpad))
	out = append(out, system)
	out = append(out, history...)
	out = append(out, models.Message{Role: models.RoleUser, Content: input})
	out = append(out, scratchpad...)
	return out
}

func observationMessage(observation string) models.Message {
	return models.Message{Role: models.RoleUser, Content: observationPrefix + observation + observationReminder}
}

func unknownToolObservation(name string, tools []tool.Tool) string {
	names := make([]string, len(tools))
	for i, t := range tools {
		names[i] = t.Name()
	}
	return fmt.Sprintf("%s n'est pas un outil valide, essayez parmi [%s].", name, strings.Join(names, ", "))
}
