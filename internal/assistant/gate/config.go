// internal/assistant/gate/config.go
package gate

// Config lists the tokens the keyword gate looks for.
type Config struct {
	Greetings []string
	Keywords  []string
	// Greetings of at most this many letters are matched as whole words.
	// Keywords always match as substrings.
	WholeWordMaxLen int
}

var DefaultGreetings = []string{"bonjour", "salut", "hello", "bonsoir", "coucou", "hi", "salam"}

var DefaultKeywords = []string{
	"impôt", "impot", "taxe", "tva", "cfpnb", "pv", "pme", "quitus", "pcf", "fiscalité",
	"déclaration", "cgu", "patente", "récapitulatifs", "exonération", "remboursement",
	"trop perçu", "délai", "quitus fiscal", "délai de paiement", "quittance", "récépissé",
	"revenus", "formalisation", "contribution", "taxation", "droit d'enregistrement",
	"droits d'enregistrement", "taxes d'enregistrement", "entreprise", "changement de statuts",
	"taxes sur les salaires", "taxe sur les salaires", "taxe foncière", "taxe professionnelle",
	"ninea", "direct", "indirect", "réouverture", "taxe sur la valeur ajoutée", "passeport",
	"taxe sur les boissons", "réductions", "immatriculation", "propriétaire", "compte",
	"duplicata", "ir", "is", "douane", "régime fiscal", "code général des impôts", "procédure",
	"acte administratif", "exonérations", "obligation fiscale", "penalité", "pénalité", "amende",
	"contrôle fiscal", "démarrage des activités", "homologation", "acte", "titre", "sigtas",
	"imposition", "bail", "foncier bâti", "foncier non bâti", "teom", "vérification",
}

func DefaultConfig() *Config {
	return &Config{
		Greetings:       DefaultGreetings,
		Keywords:        DefaultKeywords,
		WholeWordMaxLen: 2,
	}
}
