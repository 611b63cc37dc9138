package normalizer_test

import (
	"testing"

	"github.com/medflow/medflow-idscan/internal/idscan/domain"
	"github.com/medflow/medflow-idscan/internal/idscan/normalizer"
	"github.com/stretchr/testify/assert"
)

func TestLookupField_Synonyms(t *testing.T) {
	tests := []struct {
		key  string
		want domain.Field
	}{
		{"first_name", domain.FieldFirstName},
		{"IME", domain.FieldFirstName},
		{"Име", domain.FieldFirstName},
		{"Vorname", domain.FieldFirstName},
		{"Prezime", domain.FieldLastName},
		{"SURNAME", domain.FieldLastName},
		{"DOB", domain.FieldDateOfBirth},
		{"Datum rođenja", domain.FieldDateOfBirth},
		{"DATUM RODJENJA", domain.FieldDateOfBirth},
		{"Датум рођења", domain.FieldDateOfBirth},
		{"date-of-birth", domain.FieldDateOfBirth},
		{"Pol", domain.FieldGender},
		{"Geschlecht", domain.FieldGender},
		{"JMBG", domain.FieldNationalIDNumber},
		{"ЈМБГ", domain.FieldNationalIDNumber},
		{"EMŠO", domain.FieldNationalIDNumber},
		{"Adresa", domain.FieldAddress},
		{"Opština", domain.FieldRegion},
		{"Osiguravač", domain.FieldInsuranceProvider},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			got, ok := normalizer.LookupField(tt.key)
			assert.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}

	_, ok := normalizer.LookupField("HC")
	assert.False(t, ok)
}

func TestDate(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"15.03.1985", "1985-03-15"},
		{"15.03.1985.", "1985-03-15"},
		{"15. 03. 1985.", "1985-03-15"},
		{"15/03/1985", "1985-03-15"},
		{"15-03-1985", "1985-03-15"},
		{"5.3.1985", "1985-03-05"},
		{"1985-03-15", "1985-03-15"},
		{"1985.03.15", "1985-03-15"},
		{"1985/3/5", "1985-03-05"},
		{"1985-03-15T00:00:00Z", "1985-03-15"},
		// passed through unchanged
		{"15.03.85", "15.03.85"},
		{"31.02.1985", "31.02.1985"},
		{"1985-13-01", "1985-13-01"},
		{"March 15th", "March 15th"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, normalizer.Date(tt.in))
		})
	}
}

func TestGender(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"M", domain.GenderMale},
		{"male", domain.GenderMale},
		{"Muški", domain.GenderMale},
		{"мушки", domain.GenderMale},
		{"männlich", domain.GenderMale},
		{"F", domain.GenderFemale},
		{"Ž", domain.GenderFemale},
		{"ženski", domain.GenderFemale},
		{"Женски", domain.GenderFemale},
		{"W", domain.GenderFemale},
		{"Female", domain.GenderFemale},
		{"X", "X"},
		{" unknown ", "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, normalizer.Gender(tt.in))
		})
	}

	assert.True(t, normalizer.IsGenderToken("Male"))
	assert.True(t, normalizer.IsGenderToken("ž"))
	assert.False(t, normalizer.IsGenderToken("other"))
}

func TestNormalize(t *testing.T) {
	fs := normalizer.Normalize([]normalizer.Pair{
		{Key: "HC", Value: "1234567890"},
		{Key: "NAME", Value: "Marko  Petrović"},
		{Key: "DOB", Value: "15.03.1985"},
		{Key: "GENDER", Value: "M"},
		{Key: "JMBG", Value: "1503-985-17001-6"},
		{Key: "Adresa", Value: "Knez Mihailova 12, Beograd"},
		{Key: "unknown", Value: "dropped"},
	})

	assert.Equal(t, "Marko", fs.Value(domain.FieldFirstName))
	assert.Equal(t, "Petrović", fs.Value(domain.FieldLastName))
	assert.Equal(t, "1985-03-15", fs.Value(domain.FieldDateOfBirth))
	assert.Equal(t, domain.GenderMale, fs.Value(domain.FieldGender))
	assert.Equal(t, "1503985170016", fs.Value(domain.FieldNationalIDNumber))
	assert.Equal(t, "Knez Mihailova 12, Beograd", fs.Value(domain.FieldAddress))
	assert.False(t, fs.Has(domain.FieldRegion))
	assert.False(t, fs.Has(domain.FieldInsuranceProvider))
}

func TestNormalize_FirstPairWins(t *testing.T) {
	fs := normalizer.Normalize([]normalizer.Pair{
		{Key: "Ime", Value: "Marko"},
		{Key: "first name", Value: "Janko"},
	})

	assert.Equal(t, "Marko", fs.Value(domain.FieldFirstName))
}

func TestNormalize_RejectsNonDigitIdentityNumber(t *testing.T) {
	fs := normalizer.Normalize([]normalizer.Pair{
		{Key: "JMBG", Value: "15O3985170016"},
	})

	assert.False(t, fs.Has(domain.FieldNationalIDNumber))
	assert.True(t, fs.IsEmpty())
}

func TestNormalizeMap_IsDeterministic(t *testing.T) {
	m := map[string]string{
		"first_name": "Ana",
		"ime":        "Jelena",
		"prezime":    "Jovanović",
	}

	for i := 0; i < 20; i++ {
		fs := normalizer.NormalizeMap(m)
		// "first_name" sorts before "ime"
		assert.Equal(t, "Ana", fs.Value(domain.FieldFirstName))
		assert.Equal(t, "Jovanović", fs.Value(domain.FieldLastName))
	}
}

func TestSplitFullName(t *testing.T) {
	tests := []struct {
		in           string
		surnameFirst bool
		first, last  string
	}{
		{"Marko Petrović", false, "Marko", "Petrović"},
		{"Ana Marija Kovač", false, "Ana Marija", "Kovač"},
		{"Petrović Marko", true, "Marko", "Petrović"},
		{"Petrović, Marko", false, "Marko", "Petrović"},
		{"Petrović", false, "", "Petrović"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			first, last := normalizer.SplitFullName(tt.in, tt.surnameFirst)
			assert.Equal(t, tt.first, first)
			assert.Equal(t, tt.last, last)
		})
	}
}
