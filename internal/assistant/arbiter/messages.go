// internal/assistant/arbiter/messages.go
package arbiter

const (
	GreetingMessage = "💼 Bonjour ! Assistant fiscal sénégalais à votre service. Posez-moi vos questions sur les impôts et taxes."

	RefusalMessage = "⚠️ Je suis un assistant spécialisé exclusivement en fiscalité sénégalaise.\n"

	NotFoundMessage = "🔍 Je n'ai pas trouvé d'information précise dans ma base fiscale. " +
		"Consultez le site officiel : www.impotsetdomaines.gouv.sn\n"
)
