package normalizer

import (
	"github.com/medflow/medflow-idscan/internal/idscan/domain"
)

// fieldSynonyms lists the key spellings seen on cards, QR payloads and forms.
// Entries are folded with FoldKey when the lookup table is built.
var fieldSynonyms = map[domain.Field][]string{
	domain.FieldFirstName: {
		"firstName", "first name", "given name", "given names", "forename", "fn",
		"ime", "име", "vorname", "prénom", "nombre",
	},
	domain.FieldLastName: {
		"lastName", "last name", "surname", "family name", "ln",
		"prezime", "презиме", "nachname", "familienname", "nom", "apellido", "apellidos",
	},
	domain.FieldDateOfBirth: {
		"dateOfBirth", "date of birth", "dob", "birth date", "birthdate", "birthday", "born",
		"datum rođenja", "datum rodjenja", "datum rodenja", "rođen", "rodjen", "rođena", "rodjena",
		"датум рођења", "рођен", "рођена",
		"geburtsdatum", "date de naissance", "fecha de nacimiento",
	},
	domain.FieldGender: {
		"gender", "sex",
		"pol", "spol", "пол",
		"geschlecht", "sexe", "sexo",
	},
	domain.FieldNationalIDNumber: {
		"nationalIdNumber", "national id", "national id number", "personal id", "personal number",
		"personal identification number", "id number", "pin",
		"jmbg", "јмбг", "emšo", "emso", "embg", "матични број", "matični broj", "maticni broj",
		"jedinstveni matični broj građana",
	},
	domain.FieldAddress: {
		"address", "street", "residence",
		"adresa", "адреса", "prebivalište", "prebivaliste", "пребивалиште", "ulica", "boravište",
		"anschrift", "adresse", "dirección", "direccion",
	},
	domain.FieldRegion: {
		"region", "municipality", "district", "canton",
		"regija", "opština", "opstina", "општина", "općina", "opcina", "kanton", "entitet",
	},
	domain.FieldInsuranceProvider: {
		"insuranceProvider", "insurance", "insurer", "insurance provider", "health insurance",
		"osiguranje", "osiguravač", "osiguravac", "осигурање", "filijala", "филијала", "fond",
		"krankenkasse", "krankenversicherung", "assurance", "aseguradora",
	},
}

// fullNameSynonyms are keys whose value holds first and last name together.
// The flag marks keys where the surname comes first.
var fullNameSynonyms = map[string]bool{
	"name":             false,
	"full name":        false,
	"fullName":         false,
	"patient":          false,
	"patient name":     false,
	"ime i prezime":    false,
	"ime prezime":      false,
	"име и презиме":    false,
	"vor und nachname": false,
	"prezime i ime":    true,
	"prezime ime":      true,
	"презиме и име":    true,
}

var (
	fieldByKey   map[string]domain.Field
	fullNameKeys map[string]bool
)

func init() {
	fieldByKey = make(map[string]domain.Field)
	for field, keys := range fieldSynonyms {
		for _, k := range keys {
			fieldByKey[FoldKey(k)] = field
		}
	}

	fullNameKeys = make(map[string]bool, len(fullNameSynonyms))
	for k, surnameFirst := range fullNameSynonyms {
		fullNameKeys[FoldKey(k)] = surnameFirst
	}
}

// LookupField maps an arbitrary key to its canonical field
func LookupField(key string) (domain.Field, bool) {
	f, ok := fieldByKey[FoldKey(key)]
	return f, ok
}

// LookupFullName reports whether key labels a combined first and last name,
// and whether the surname is written first.
func LookupFullName(key string) (surnameFirst bool, ok bool) {
	surnameFirst, ok = fullNameKeys[FoldKey(key)]
	return surnameFirst, ok
}
