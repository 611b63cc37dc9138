package normalizer

import (
	"strings"

	"github.com/medflow/medflow-idscan/internal/idscan/domain"
)

var maleTokens = []string{
	"m", "male", "man", "masculine",
	"muški", "muski", "musko", "muško", "мушки", "мушко", "м",
	"männlich", "maennlich", "mann", "masculin", "masculino", "hombre", "homme",
}

var femaleTokens = []string{
	"f", "female", "woman", "feminine",
	"ž", "z", "ženski", "zenski", "žensko", "zensko", "женски", "женско", "ж",
	"w", "weiblich", "frau", "féminin", "feminin", "femenino", "mujer", "femme",
}

var genderByToken map[string]string

func init() {
	genderByToken = make(map[string]string, len(maleTokens)+len(femaleTokens))
	for _, t := range maleTokens {
		genderByToken[Fold(t)] = domain.GenderMale
	}
	for _, t := range femaleTokens {
		genderByToken[Fold(t)] = domain.GenderFemale
	}
}

// Gender maps a scanned gender token to Male or Female.
// Unknown tokens are returned trimmed but otherwise unchanged.
func Gender(s string) string {
	if g, ok := genderByToken[Fold(strings.Trim(s, " .:"))]; ok {
		return g
	}
	return strings.TrimSpace(s)
}

// IsGenderToken reports whether s is a canonical or recognized gender token
func IsGenderToken(s string) bool {
	_, ok := genderByToken[Fold(strings.Trim(s, " .:"))]
	return ok
}
