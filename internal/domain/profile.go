package domain

import (
	"regexp"
	"sort"
	"strings"

	"github.com/bnema/finchat/internal/textnorm"
)

type ProfileField struct {
	Key        string
	Label      string
	Possessive string
}

// ProfileFields lists the profile columns the chat can read or write, in display order.
var ProfileFields = []ProfileField{
	{Key: "first_name", Label: "Prénom", Possessive: "prénom"},
	{Key: "last_name", Label: "Nom", Possessive: "nom"},
	{Key: "birth_date", Label: "Date de naissance", Possessive: "date de naissance"},
	{Key: "gender", Label: "Genre", Possessive: "genre"},
	{Key: "address_line1", Label: "Adresse", Possessive: "adresse"},
	{Key: "address_line2", Label: "Complément d’adresse", Possessive: "complément d’adresse"},
	{Key: "postal_code", Label: "Code postal", Possessive: "code postal"},
	{Key: "city", Label: "Ville", Possessive: "ville"},
	{Key: "canton", Label: "Canton", Possessive: "canton"},
	{Key: "country", Label: "Pays", Possessive: "pays"},
	{Key: "personal_situation", Label: "Situation personnelle", Possessive: "situation personnelle"},
	{Key: "professional_situation", Label: "Situation professionnelle", Possessive: "situation professionnelle"},
	{Key: "default_bank_account_id", Label: "Compte bancaire par défaut", Possessive: "compte bancaire par défaut"},
}

// profileAliases maps folded French field names to canonical keys.
var profileAliases = map[string]string{
	"prenom":                    "first_name",
	"nom":                       "last_name",
	"date de naissance":         "birth_date",
	"naissance":                 "birth_date",
	"ne":                        "birth_date",
	"nee":                       "birth_date",
	"genre":                     "gender",
	"adresse":                   "address_line1",
	"adresse 1":                 "address_line1",
	"adresse 2":                 "address_line2",
	"complement d adresse":      "address_line2",
	"code postal":               "postal_code",
	"zip":                       "postal_code",
	"ville":                     "city",
	"canton":                    "canton",
	"pays":                      "country",
	"situation personnelle":     "personal_situation",
	"situation professionnelle": "professional_situation",
}

var profileTokenCleaner = regexp.MustCompile(`[^\p{L}\p{N}_\s]+`)

// ProfileFieldKey resolves a canonical key or a folded French alias to a canonical key.
func ProfileFieldKey(raw string) (string, bool) {
	normalized := foldProfileAccents(profileTokenCleaner.ReplaceAllString(raw, " "))
	for _, field := range ProfileFields {
		if field.Key == normalized {
			return field.Key, true
		}
	}
	key, ok := profileAliases[normalized]
	return key, ok
}

// ProfileAliasNames returns every alias, longest first, for building recognizers.
func ProfileAliasNames() []string {
	names := make([]string, 0, len(profileAliases))
	for alias := range profileAliases {
		names = append(names, alias)
	}
	sortByLengthDesc(names)
	return names
}

func ProfileFieldLabel(key string) string {
	for _, field := range ProfileFields {
		if field.Key == key {
			return field.Label
		}
	}
	return key
}

func ProfileFieldPossessive(key string) string {
	for _, field := range ProfileFields {
		if field.Key == key {
			return field.Possessive
		}
	}
	return key
}

func foldProfileAccents(value string) string {
	return strings.Join(strings.Fields(strings.ReplaceAll(textnorm.Fold(value), "'", " ")), " ")
}

func sortByLengthDesc(values []string) {
	sort.Slice(values, func(i, j int) bool {
		if len(values[i]) != len(values[j]) {
			return len(values[i]) > len(values[j])
		}
		return values[i] < values[j]
	})
}
