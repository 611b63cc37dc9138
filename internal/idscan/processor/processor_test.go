package processor_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medflow/medflow-idscan/internal/idscan/domain"
	"github.com/medflow/medflow-idscan/internal/idscan/processor"
)

func structured(payload string) domain.RawScanInput {
	return domain.RawScanInput{Payload: payload, Channel: domain.ChannelStructuredCode}
}

func freeText(payload string) domain.RawScanInput {
	return domain.RawScanInput{Payload: payload, Channel: domain.ChannelFreeText}
}

func detect(t *testing.T, input domain.RawScanInput) (domain.DocumentFormat, domain.FieldSet) {
	t.Helper()
	return processor.DefaultRegistry().Detect(input)
}

func TestDetect_KeyValueQRCode(t *testing.T) {
	format, fs := detect(t, structured("HC:1234567890|NAME:Marko Petrović|DOB:1985-03-15|GENDER:M|JMBG:1503985175023"))

	assert.Equal(t, domain.FormatGenericKeyValue, format)
	assert.Equal(t, "Marko", fs.Value(domain.FieldFirstName))
	assert.Equal(t, "Petrović", fs.Value(domain.FieldLastName))
	assert.Equal(t, "1985-03-15", fs.Value(domain.FieldDateOfBirth))
	assert.Equal(t, domain.GenderMale, fs.Value(domain.FieldGender))
	assert.Equal(t, "1503985175023", fs.Value(domain.FieldNationalIDNumber))
	// unknown keys are dropped
	assert.False(t, fs.Has(domain.FieldInsuranceProvider))
}

func TestDetect_KeyValueSemicolon(t *testing.T) {
	format, fs := detect(t, structured("ime:Ana;prezime:Kovač;pol:Ž"))

	assert.Equal(t, domain.FormatGenericKeyValue, format)
	assert.Equal(t, "Ana", fs.Value(domain.FieldFirstName))
	assert.Equal(t, "Kovač", fs.Value(domain.FieldLastName))
	assert.Equal(t, domain.GenderFemale, fs.Value(domain.FieldGender))
}

func TestDetect_RegionalCardSerbia(t *testing.T) {
	ocr := "REPUBLIKA SRBIJA\n" +
		"RFZO\n" +
		"Ime: Marko\n" +
		"Prezime: Petrović\n" +
		"JMBG: 1503985170016\n" +
		"Važi do: 01.01.2030"

	format, fs := detect(t, freeText(ocr))

	require.Equal(t, domain.FormatRegionalCardA, format)
	assert.Equal(t, "Marko", fs.Value(domain.FieldFirstName))
	assert.Equal(t, "Petrović", fs.Value(domain.FieldLastName))
	assert.Equal(t, "1503985170016", fs.Value(domain.FieldNationalIDNumber))
	// derived from the identity number, the expiry line is not a birth date
	assert.Equal(t, "1985-03-15", fs.Value(domain.FieldDateOfBirth))
	assert.Equal(t, domain.GenderMale, fs.Value(domain.FieldGender))
	assert.Equal(t, "Sarajevo", fs.Value(domain.FieldRegion))
	assert.Equal(t, processor.CardSerbia.Authority, fs.Value(domain.FieldInsuranceProvider))
}

func TestDetect_RegionalCardPrintsSurnameFirst(t *testing.T) {
	ocr := "REPUBLIKA SRBIJA\n" +
		"RFZO\n" +
		"PETROVIĆ MARKO\n" +
		"1503985170016"

	format, fs := detect(t, freeText(ocr))

	require.Equal(t, domain.FormatRegionalCardA, format)
	assert.Equal(t, "MARKO", fs.Value(domain.FieldFirstName))
	assert.Equal(t, "PETROVIĆ", fs.Value(domain.FieldLastName))

	// the same line outside a card keeps the given name first
	format, fs = detect(t, freeText("PETROVIĆ MARKO\n1503985170016"))

	require.Equal(t, domain.FormatFreeText, format)
	assert.Equal(t, "PETROVIĆ", fs.Value(domain.FieldFirstName))
	assert.Equal(t, "MARKO", fs.Value(domain.FieldLastName))
}

func TestDetect_RegionalCardBosnia(t *testing.T) {
	format, fs := detect(t, structured("ZZO FBiH|Prezime:Hodžić|Ime:Amra|JMBG:0101990710008"))

	require.Equal(t, domain.FormatRegionalCardB, format)
	// the issuer line must not be taken for a name
	assert.Equal(t, "Amra", fs.Value(domain.FieldFirstName))
	assert.Equal(t, "Hodžić", fs.Value(domain.FieldLastName))
	assert.Equal(t, "1990-01-01", fs.Value(domain.FieldDateOfBirth))
	assert.Equal(t, domain.GenderFemale, fs.Value(domain.FieldGender))
	assert.Equal(t, "Beograd", fs.Value(domain.FieldRegion))
	assert.Equal(t, processor.CardBosnia.Authority, fs.Value(domain.FieldInsuranceProvider))
}

func TestDetect_RegionalCardMontenegro(t *testing.T) {
	ocr := "FZOCG\n" +
		"Ime i prezime: Milica Vuković\n" +
		"JMBG 0101990710008"

	format, fs := detect(t, freeText(ocr))

	require.Equal(t, domain.FormatRegionalCardC, format)
	assert.Equal(t, "Milica", fs.Value(domain.FieldFirstName))
	assert.Equal(t, "Vuković", fs.Value(domain.FieldLastName))
	assert.Equal(t, "0101990710008", fs.Value(domain.FieldNationalIDNumber))
	assert.Equal(t, domain.GenderFemale, fs.Value(domain.FieldGender))
}

func TestDetect_RegionalCardNeedsIdentityNumber(t *testing.T) {
	format, _ := detect(t, freeText("RFZO\nIme: Marko\nPrezime: Petrović"))

	assert.Equal(t, domain.FormatFreeText, format)
}

func TestDetect_EHIC(t *testing.T) {
	ocr := "EUROPEAN HEALTH INSURANCE CARD\n" +
		"3. PETROVIC\n" +
		"4. MARKO\n" +
		"5. 15/03/1985\n" +
		"6. 1503985170016\n" +
		"7. 11111 - HZZO\n" +
		"9. 01/01/2030"

	format, fs := detect(t, freeText(ocr))

	require.Equal(t, domain.FormatEHIC, format)
	assert.Equal(t, "PETROVIC", fs.Value(domain.FieldLastName))
	assert.Equal(t, "MARKO", fs.Value(domain.FieldFirstName))
	assert.Equal(t, "1985-03-15", fs.Value(domain.FieldDateOfBirth))
	assert.Equal(t, "1503985170016", fs.Value(domain.FieldNationalIDNumber))
	assert.Equal(t, "11111 - HZZO", fs.Value(domain.FieldInsuranceProvider))
	assert.Equal(t, domain.GenderMale, fs.Value(domain.FieldGender))
}

func TestDetect_EHICWithoutIdentityNumber(t *testing.T) {
	format, fs := detect(t, freeText("EHIC\n3. MÜLLER\n4. ANNA\n5. 01.02.1970"))

	require.Equal(t, domain.FormatEHIC, format)
	assert.Equal(t, "MÜLLER", fs.Value(domain.FieldLastName))
	assert.Equal(t, "ANNA", fs.Value(domain.FieldFirstName))
	assert.Equal(t, "1970-02-01", fs.Value(domain.FieldDateOfBirth))
	assert.False(t, fs.Has(domain.FieldNationalIDNumber))
}

func TestDetect_JSON(t *testing.T) {
	payload := `{"patient":{"ime":"Jelena","prezime":"Jovanović","datum_rodjenja":"1990-01-01","pol":"Ž"},"jmbg":"0101990710008","visits":3}`

	format, fs := detect(t, structured(payload))

	require.Equal(t, domain.FormatGenericJSON, format)
	assert.Equal(t, "Jelena", fs.Value(domain.FieldFirstName))
	assert.Equal(t, "Jovanović", fs.Value(domain.FieldLastName))
	assert.Equal(t, "1990-01-01", fs.Value(domain.FieldDateOfBirth))
	assert.Equal(t, domain.GenderFemale, fs.Value(domain.FieldGender))
	assert.Equal(t, "0101990710008", fs.Value(domain.FieldNationalIDNumber))
}

func TestDetect_JSONNumbersKeepAllDigits(t *testing.T) {
	payload := `{"ime":"Ana","prezime":"Kovač","personal number":12345678901234567}`

	format, fs := detect(t, structured(payload))

	require.Equal(t, domain.FormatGenericJSON, format)
	assert.Equal(t, "12345678901234567", fs.Value(domain.FieldNationalIDNumber))
	assert.Equal(t, "Ana", fs.Value(domain.FieldFirstName))
}

func TestDetect_JSONRejectedBySchema(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{"array value", `{"names":["Marko","Petrović"]}`},
		{"empty object", `{}`},
		{"malformed", `{"ime":"Marko"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			format, fs := detect(t, structured(tt.payload))
			assert.Equal(t, domain.FormatUnrecognized, format)
			assert.True(t, fs.IsEmpty())
		})
	}
}

func TestDetect_BareIdentityNumber(t *testing.T) {
	format, fs := detect(t, structured("  1503985170016 "))

	require.Equal(t, domain.FormatBareIdentityNumber, format)
	assert.Equal(t, "1503985170016", fs.Value(domain.FieldNationalIDNumber))
	assert.Equal(t, "1985-03-15", fs.Value(domain.FieldDateOfBirth))
	assert.Equal(t, domain.GenderMale, fs.Value(domain.FieldGender))
	assert.Equal(t, "Sarajevo", fs.Value(domain.FieldRegion))
	assert.False(t, fs.Has(domain.FieldFirstName))
	assert.False(t, fs.Has(domain.FieldLastName))
}

func TestDetect_BareNumberWithImpossibleDate(t *testing.T) {
	format, fs := detect(t, structured("3213990710001"))

	require.Equal(t, domain.FormatBareIdentityNumber, format)
	assert.Equal(t, "3213990710001", fs.Value(domain.FieldNationalIDNumber))
	assert.False(t, fs.Has(domain.FieldDateOfBirth))
	// serial 000 is even
	assert.Equal(t, domain.GenderFemale, fs.Value(domain.FieldGender))
	assert.Equal(t, "Beograd", fs.Value(domain.FieldRegion))
}

func TestDetect_DigitRun(t *testing.T) {
	format, fs := detect(t, structured("1234567890"))

	require.Equal(t, domain.FormatBareIdentityNumber, format)
	assert.Equal(t, "1234567890", fs.Value(domain.FieldNationalIDNumber))
	assert.Equal(t, []domain.Field{domain.FieldNationalIDNumber}, fs.Populated())
}

func TestDetect_FreeTextOCR(t *testing.T) {
	ocr := "Marko Petrović\n" +
		"Datum rođenja: 15.03.1985\n" +
		"Pol: M\n" +
		"Adresa: Bulevar oslobođenja 12, Novi Sad"

	format, fs := detect(t, freeText(ocr))

	require.Equal(t, domain.FormatFreeText, format)
	assert.Equal(t, "Marko", fs.Value(domain.FieldFirstName))
	assert.Equal(t, "Petrović", fs.Value(domain.FieldLastName))
	assert.Equal(t, "1985-03-15", fs.Value(domain.FieldDateOfBirth))
	assert.Equal(t, domain.GenderMale, fs.Value(domain.FieldGender))
	assert.Equal(t, "Bulevar oslobođenja 12, Novi Sad", fs.Value(domain.FieldAddress))
}

func TestDetect_FreeTextDateSeparators(t *testing.T) {
	for _, date := range []string{"15.03.1985", "15/03/1985", "15-03-1985", "1985-03-15"} {
		t.Run(date, func(t *testing.T) {
			_, fs := detect(t, freeText("Marko Petrović\nDatum rođenja: "+date))
			assert.Equal(t, "1985-03-15", fs.Value(domain.FieldDateOfBirth))
		})
	}
}

func TestDetect_FreeTextFirstMatchWins(t *testing.T) {
	ocr := "Marko Petrović\n" +
		"Jovan Jovanović\n" +
		"15.03.1985\n" +
		"01.01.2000"

	_, fs := detect(t, freeText(ocr))

	assert.Equal(t, "Marko", fs.Value(domain.FieldFirstName))
	assert.Equal(t, "Petrović", fs.Value(domain.FieldLastName))
	assert.Equal(t, "1985-03-15", fs.Value(domain.FieldDateOfBirth))
}

func TestDetect_FreeTextSkipsIssueDates(t *testing.T) {
	_, fs := detect(t, freeText("Važi do 01.01.2030\nIzdato 02.02.2020\n15.03.1985"))

	assert.Equal(t, "1985-03-15", fs.Value(domain.FieldDateOfBirth))
}

func TestDetect_FreeTextIdentityNumberLabel(t *testing.T) {
	ocr := "Broj kartice: 1234567890123\n" +
		"JMBG: 1503-985-17001-6"

	_, fs := detect(t, freeText(ocr))

	assert.Equal(t, "1503985170016", fs.Value(domain.FieldNationalIDNumber))
}

func TestDetect_FreeTextAddressHeuristic(t *testing.T) {
	tests := []struct {
		line string
		want string
	}{
		{"Adresa: Ulica Kralja Petra", "Ulica Kralja Petra"},
		{"Adresa: Nemanjina 4, Beograd", "Nemanjina 4, Beograd"},
		{"Adresa: Beograd", ""},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			_, fs := detect(t, freeText("Marko Petrović\n"+tt.line))
			assert.Equal(t, tt.want, fs.Value(domain.FieldAddress))
		})
	}
}

func TestDetect_NameHeuristicRejectsKeywords(t *testing.T) {
	format, fs := detect(t, freeText("Zdravstvena Kartica\nOsiguranik Broj"))

	assert.Equal(t, domain.FormatUnrecognized, format)
	assert.True(t, fs.IsEmpty())
}

func TestDetect_Unrecognized(t *testing.T) {
	tests := []struct {
		name  string
		input domain.RawScanInput
	}{
		{"empty structured", structured("")},
		{"empty free text", freeText("   \n ")},
		{"question marks", structured("???")},
		{"short digits", structured("12345")},
		{"lorem ipsum", freeText("lorem ipsum dolor sit amet consectetur")},
		{"free text in structured channel", structured("Marko Petrović")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			format, fs := detect(t, tt.input)
			assert.Equal(t, domain.FormatUnrecognized, format)
			assert.True(t, fs.IsEmpty())
		})
	}
}

func TestDetect_RegionalCardBeforeKeyValue(t *testing.T) {
	format, fs := detect(t, structured("INSURER:RFZO|IME:Marko|JMBG:1503985170016"))

	require.Equal(t, domain.FormatRegionalCardA, format)
	assert.Equal(t, "Marko", fs.Value(domain.FieldFirstName))
	assert.Equal(t, "RFZO", fs.Value(domain.FieldInsuranceProvider))
}

func TestDetect_KeyValueRequiresEveryPair(t *testing.T) {
	format, _ := detect(t, structured("IME:Marko|Petrović"))

	assert.Equal(t, domain.FormatUnrecognized, format)
}

func TestDetect_Deterministic(t *testing.T) {
	input := structured("HC:1234567890|NAME:Marko Petrović|DOB:1985-03-15|GENDER:M|JMBG:1503985175023")

	f1, fs1 := detect(t, input)
	f2, fs2 := detect(t, input)

	assert.Equal(t, f1, f2)
	assert.Equal(t, fs1, fs2)
}

func TestRegistry_FindParser(t *testing.T) {
	r := processor.DefaultRegistry()

	tests := []struct {
		input domain.RawScanInput
		name  string
	}{
		{structured("1503985170016"), "bare_number"},
		{structured("12345678901"), "digit_run"},
		{structured(`{"ime":"Marko"}`), "json"},
		{structured("ime:Marko|prezime:Petrović"), "key_value"},
		{freeText("Marko Petrović"), "free_text"},
		{freeText("EHIC\n3. PETROVIC"), "ehic"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := r.FindParser(tt.input)
			require.NotNil(t, p)
			assert.Equal(t, tt.name, p.Name())
		})
	}

	assert.Nil(t, r.FindParser(structured("???")))
}

func TestNewRegistry_CustomOrder(t *testing.T) {
	r := processor.NewRegistry(processor.NewDigitRunParser())

	format, fs := r.Detect(structured("1234567890"))
	assert.Equal(t, domain.FormatBareIdentityNumber, format)
	assert.Equal(t, "1234567890", fs.Value(domain.FieldNationalIDNumber))

	format, _ = r.Detect(structured("1503985170016"))
	assert.Equal(t, domain.FormatUnrecognized, format)
}
