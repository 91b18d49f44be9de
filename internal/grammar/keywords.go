package grammar

import (
	"sort"
	"strings"

	"github.com/bnema/finchat/internal/textnorm"
)

var intentKeywords = map[string]struct{}{
	"depense": {}, "depenses": {}, "depensees": {},
	"revenu": {}, "revenus": {}, "entree": {}, "entrees": {}, "salaire": {}, "salaires": {},
	"total": {}, "totale": {}, "totales": {}, "totaux": {}, "combien": {}, "somme": {},
	"transactions": {}, "transaction": {}, "operations": {}, "operation": {},
	"liste": {}, "lister": {}, "affiche": {}, "montre": {}, "montre-moi": {},
	"cherche": {}, "recherche": {}, "rechercher": {},
	"categories": {}, "categorie": {}, "comptes": {}, "compte": {}, "profil": {},
	"supprime": {}, "supprimer": {}, "cree": {}, "creer": {}, "ajoute": {}, "ajouter": {},
	"renomme": {}, "renommer": {}, "exclus": {}, "exclure": {}, "inclus": {}, "inclure": {},
	"repartition": {}, "importer": {}, "import": {},
}

var followupKeywords = map[string]struct{}{
	"et": {}, "ok": {}, "pareil": {}, "idem": {}, "dans": {}, "en": {}, "?": {}, "aussi": {}, "meme": {},
}

var continuationTokens = map[string]struct{}{
	"et": {}, "ok": {}, "okay": {}, "pareil": {}, "idem": {}, "?": {}, "aussi": {}, "meme": {},
	"chose": {}, "la": {}, "le": {}, "encore": {}, "alors": {}, "d'accord": {}, "pour": {}, "ca": {},
}

var (
	affirmativeAnswers = map[string]struct{}{
		"oui": {}, "o": {}, "ok": {}, "okay": {}, "yes": {}, "y": {}, "ouais": {}, "confirme": {},
		"je confirme": {}, "confirmer": {}, "vas-y": {}, "vas y": {}, "go": {}, "d'accord": {},
		"daccord": {}, "valide": {}, "oui merci": {}, "c'est bon": {}, "oui vas-y": {}, "oui supprime": {},
	}
	negativeAnswers = map[string]struct{}{
		"non": {}, "n": {}, "no": {}, "annule": {}, "annuler": {}, "stop": {}, "non merci": {},
		"laisse tomber": {}, "pas maintenant": {}, "surtout pas": {}, "abandonne": {},
	}
	stopwordCategories = map[string]struct{}{
		"salut": {}, "bonjour": {}, "bonsoir": {}, "merci": {}, "ok": {}, "oui": {}, "non": {},
		"et": {}, "en": {}, "le": {}, "la": {}, "les": {}, "total": {}, "depenses": {}, "revenus": {},
		"ping": {}, "hello": {}, "coucou": {}, "tout": {}, "toutes": {},
	}
)

type Answer int

const (
	AnswerUnknown Answer = iota
	AnswerYes
	AnswerNo
)

// ParseYesNo accepts only a fixed vocabulary; anything else is AnswerUnknown.
func ParseYesNo(message string) Answer {
	normalized := strings.Trim(textnorm.Fold(message), " .!?,;")
	tokens := make([]string, 0, 4)
	for _, token := range textnorm.Tokens(normalized) {
		if token != "?" {
			tokens = append(tokens, token)
		}
	}
	joined := strings.Join(tokens, " ")
	for _, candidate := range []string{normalized, joined} {
		if _, ok := affirmativeAnswers[candidate]; ok {
			return AnswerYes
		}
		if _, ok := negativeAnswers[candidate]; ok {
			return AnswerNo
		}
	}
	return AnswerUnknown
}

// HasIntentKeyword reports an explicit request verb or noun such as "dépenses" or "liste".
func HasIntentKeyword(message string) bool {
	for _, token := range textnorm.Tokens(message) {
		if _, ok := intentKeywords[token]; ok {
			return true
		}
	}
	return false
}

// IsFollowupMessage reports a short context-dependent message such as "et en janvier ?".
func IsFollowupMessage(message string) bool {
	tokens := textnorm.Tokens(message)
	if len(tokens) == 0 || len(tokens) > 8 {
		return false
	}
	if HasIntentKeyword(message) {
		return false
	}
	if len(tokens) <= 2 {
		return true
	}
	for _, token := range tokens {
		if _, ok := followupKeywords[token]; ok {
			return true
		}
	}
	return false
}

// IsContinuationOnly reports messages like "ok", "et ?" or "pareil" that add no new content.
func IsContinuationOnly(message string) bool {
	tokens := textnorm.Tokens(message)
	if len(tokens) == 0 {
		return false
	}
	for _, token := range tokens {
		if _, ok := continuationTokens[token]; !ok {
			return false
		}
	}
	return true
}

// MatchKnownCategory returns the longest known category named in the message, with its stored casing.
func MatchKnownCategory(message string, known []string) (string, bool) {
	candidates := append([]string(nil), known...)
	sort.SliceStable(candidates, func(i, j int) bool {
		return len(candidates[i]) > len(candidates[j])
	})
	for _, category := range candidates {
		if strings.TrimSpace(category) == "" {
			continue
		}
		if textnorm.ContainsWord(message, category) {
			return category, true
		}
	}
	return "", false
}

// CanonicalCategory returns the stored casing of a category that folds equal to value.
func CanonicalCategory(value string, known []string) (string, bool) {
	for _, category := range known {
		if textnorm.Equal(category, value) {
			return category, true
		}
	}
	return "", false
}

// LooksLikeNonCategory flags values that are greetings, stopwords or date literals.
func LooksLikeNonCategory(value string) bool {
	folded := textnorm.Fold(value)
	if folded == "" {
		return true
	}
	if _, ok := stopwordCategories[folded]; ok {
		return true
	}
	if _, ok := MonthFromToken(folded); ok {
		return true
	}
	if HasExplicitPeriod(folded) {
		return true
	}
	if _, ok := ParseYearAnswer(folded); ok {
		return true
	}
	if _, ok := ParseDateLiteral(folded); ok {
		return true
	}
	return false
}

// ParseDateLiteral accepts a bare YYYY-MM-DD or YYYY-MM value.
func ParseDateLiteral(value string) (string, bool) {
	trimmed := strings.TrimSpace(value)
	if len(trimmed) == len("2006-01") && trimmed[4] == '-' && allDigits(trimmed[:4]) && allDigits(trimmed[5:]) {
		return trimmed, true
	}
	if len(trimmed) == len("2006-01-02") && trimmed[4] == '-' && trimmed[7] == '-' && allDigits(trimmed[:4]) && allDigits(trimmed[5:7]) && allDigits(trimmed[8:]) {
		return trimmed, true
	}
	return "", false
}

func allDigits(value string) bool {
	if value == "" {
		return false
	}
	for _, r := range value {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
