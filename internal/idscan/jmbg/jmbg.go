// Package jmbg decodes the 13-digit personal identity number used across the
// former Yugoslav states (JMBG, EMŠO, EMBG).
//
// Layout: DD MM YYY RR SSS K
//
//	DD  day of birth
//	MM  month of birth
//	YYY last three digits of the birth year (>= 900 means 1900s, otherwise 2000s)
//	RR  registration region
//	SSS serial, parity encodes sex (odd = male, even = female)
//	K   mod-11 check digit
package jmbg

import (
	"errors"
	"fmt"

	"github.com/medflow/medflow-idscan/internal/idscan/domain"
)

// Length is the number of digits in an identity number
const Length = 13

// centuryBoundary separates 1900s markers from 2000s markers
const centuryBoundary = 900

var weights = [12]int{7, 6, 5, 4, 3, 2, 7, 6, 5, 4, 3, 2}

var (
	// ErrInvalidFormat is returned for anything that is not exactly 13 ASCII digits
	ErrInvalidFormat = errors.New("identity number must be exactly 13 digits")
)

// Decoded holds the fields derived from an identity number
type Decoded struct {
	Number             string `json:"number"`
	Day                int    `json:"day"`
	Month              int    `json:"month"`
	Year               int    `json:"year"`
	Sex                string `json:"sex"`
	RegionCode         string `json:"region_code"`
	RegionName         string `json:"region_name"`
	RegionKnown        bool   `json:"region_known"`
	Serial             int    `json:"serial"`
	CheckDigit         int    `json:"check_digit"`
	ExpectedCheckDigit int    `json:"expected_check_digit"`
	DateValid          bool   `json:"date_valid"`
	ChecksumValid      bool   `json:"checksum_valid"`
}

// BirthDateISO returns the decoded birth date as YYYY-MM-DD
func (d *Decoded) BirthDateISO() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

// Decode splits number into its positional fields and verifies the check digit.
// A checksum mismatch does not stop decoding; it is reported through ChecksumValid.
func Decode(number string) (*Decoded, error) {
	if len(number) != Length || !domain.IsDigits(number) {
		return nil, fmt.Errorf("%w: got %q", ErrInvalidFormat, number)
	}

	expected, _ := CheckDigit(number[:12])
	check := digit(number, 12)

	d := &Decoded{
		Number:             number,
		Day:                atoi(number[0:2]),
		Month:              atoi(number[2:4]),
		Year:               resolveYear(atoi(number[4:7])),
		RegionCode:         number[7:9],
		Serial:             atoi(number[9:12]),
		CheckDigit:         check,
		ExpectedCheckDigit: expected,
	}

	d.DateValid = d.Day >= 1 && d.Day <= 31 && d.Month >= 1 && d.Month <= 12
	d.ChecksumValid = check == expected

	if d.Serial%2 == 1 {
		d.Sex = domain.GenderMale
	} else {
		d.Sex = domain.GenderFemale
	}

	d.RegionName, d.RegionKnown = LookupRegion(d.RegionCode)

	return d, nil
}

// CheckDigit computes the expected 13th digit for the first 12 digits of a number
func CheckDigit(body string) (int, error) {
	if len(body) != Length-1 || !domain.IsDigits(body) {
		return 0, fmt.Errorf("%w: body must be 12 digits, got %q", ErrInvalidFormat, body)
	}

	sum := 0
	for i, w := range weights {
		sum += digit(body, i) * w
	}

	r := sum % 11
	if r == 0 || r == 1 {
		return r, nil
	}
	return 11 - r, nil
}

// IsValid reports whether number has the right shape, a plausible date and a matching check digit
func IsValid(number string) bool {
	d, err := Decode(number)
	if err != nil {
		return false
	}
	return d.ChecksumValid && d.DateValid
}

func resolveYear(marker int) int {
	if marker >= centuryBoundary {
		return 1000 + marker
	}
	return 2000 + marker
}

func digit(s string, i int) int {
	return int(s[i] - '0')
}

func atoi(s string) int {
	n := 0
	for i := 0; i < len(s); i++ {
		n = n*10 + digit(s, i)
	}
	return n
}
