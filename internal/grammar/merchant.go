package grammar

import (
	"regexp"
	"strings"

	"github.com/bnema/finchat/internal/textnorm"
)

// MerchantMention is the result of a "chez <merchant>" match.
type MerchantMention struct {
	// Name is lowercased with accents preserved.
	Name string
	// Display keeps the user's casing.
	Display string
	// Prefix is the text before "chez" as typed.
	Prefix string
}

var (
	chezPattern = regexp.MustCompile(`(?i)(?:^|\s)chez\s+`)
	// merchantStopPattern marks where a trailing temporal clause or punctuation starts.
	merchantStopPattern = regexp.MustCompile(`(?i)[?!.,;]|\s+(?:en|ce|cette|le|les|depuis|du|au|pour|sur|durant|pendant|entre|dans|avant|apr[eè]s|et\s+en|et\s+pour)(?:\s|$)|\s+(?:` + accentedMonthAlternation + `)\b|\s+(?:19|20|21)\d{2}\b|\s+(?:[0-9]{1,2}|deux|trois|quatre|cinq|six|sept|huit|neuf|dix|douze)\s+derniers\b`)
	quotePattern        = regexp.MustCompile(`^["'«»“”\s]+|["'«»“”\s]+$`)
	categoryPattern     = regexp.MustCompile(`(?i)\bcat[ée]gorie\s+(.+)`)
)

const accentedMonthAlternation = `janvier|janv|f[ée]vrier|f[ée]vr|mars|avril|avr|mai|juin|juillet|juil|ao[uû]t|septembre|sept|octobre|oct|novembre|nov|d[ée]cembre|d[ée]c`

// ExtractMerchant finds "chez X" and strips any trailing temporal clause from X.
func ExtractMerchant(message string) (MerchantMention, bool) {
	collapsed := textnorm.Collapse(message)
	location := chezPattern.FindStringIndex(collapsed)
	if location == nil {
		return MerchantMention{}, false
	}

	display := CleanName(CutTemporalClause(collapsed[location[1]:]))
	if display == "" {
		return MerchantMention{}, false
	}

	return MerchantMention{
		Name:    strings.ToLower(display),
		Display: display,
		Prefix:  strings.TrimSpace(collapsed[:location[0]]),
	}, true
}

// ExplicitCategory returns the name written after "catégorie", without a trailing "chez" or date clause.
func ExplicitCategory(message string) (string, bool) {
	match := categoryPattern.FindStringSubmatch(textnorm.Collapse(message))
	if match == nil {
		return "", false
	}
	name := match[1]
	if index := strings.Index(strings.ToLower(name), " chez "); index >= 0 {
		name = name[:index]
	}
	name = CleanName(CutTemporalClause(name))
	return name, name != ""
}

// CutTemporalClause drops everything from the first trailing date phrase or punctuation mark.
func CutTemporalClause(text string) string {
	if stop := merchantStopPattern.FindStringIndex(text); stop != nil {
		return text[:stop[0]]
	}
	return text
}

// CleanName trims quotes, whitespace and terminal punctuation around an entity name.
func CleanName(value string) string {
	trimmed := strings.TrimSpace(value)
	trimmed = strings.TrimRight(trimmed, " .,!?:;")
	trimmed = quotePattern.ReplaceAllString(trimmed, "")
	return textnorm.Collapse(trimmed)
}
