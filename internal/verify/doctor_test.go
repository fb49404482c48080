package verify

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNameSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		min  float64
		max  float64
	}{
		{"identical", "Ramesh Kumar", "Ramesh Kumar", 1, 1},
		{"title stripped", "Dr. Ramesh Kumar", "RAMESH KUMAR", 1, 1},
		{"close variant", "Ramesh Kumar", "Ramesh Kumaar", 0.7, 1},
		{"unrelated", "Ramesh Kumar", "Priya Nair", 0, 0.3},
		{"empty", "", "Ramesh Kumar", 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := nameSimilarity(tt.a, tt.b)
			assert.GreaterOrEqual(t, got, tt.min)
			assert.LessOrEqual(t, got, tt.max)
		})
	}
}

func TestNormalizeName(t *testing.T) {
	assert.Equal(t, "ramesh kumar", normalizeName("Dr. Ramesh Kumar"))
	assert.Equal(t, "ramesh kumar", normalizeName("  MR rAmEsH  Kumar. "))
	assert.Equal(t, "", normalizeName("Dr."))
}

func TestParseDoctorRow(t *testing.T) {
	row := []any{
		float64(1),
		"1995",
		"46528",
		"Karnataka Medical Council",
		"Ramesh Kumar",
		"Krishna Kumar",
		`<a href="javascript:void(0)" onclick="openDoctorDetailsnew('12345','46528')">View</a>`,
	}

	rec, ok := parseDoctorRow(row)
	require.True(t, ok)
	assert.Equal(t, "1", rec.SerialNo)
	assert.Equal(t, "1995", rec.RegistrationYear)
	assert.Equal(t, "46528", rec.RegistrationNumber)
	assert.Equal(t, "Karnataka Medical Council", rec.MedicalCouncil)
	assert.Equal(t, "Ramesh Kumar", rec.DoctorName)
	assert.Equal(t, "12345", rec.DoctorID)
}

func TestParseDoctorRowRejectsShortRows(t *testing.T) {
	_, ok := parseDoctorRow([]any{"1", "1995"})
	assert.False(t, ok)
}

func TestFilterByCouncil(t *testing.T) {
	records := []DoctorRecord{
		{DoctorName: "Ramesh Kumar", MedicalCouncil: "Karnataka Medical Council"},
		{DoctorName: "Priya Nair", MedicalCouncil: "Tamil Nadu Medical Council"},
		{DoctorName: "Unknown Council"},
	}

	filtered := filterByCouncil(records, "karnataka medical council")
	require.Len(t, filtered, 1)
	assert.Equal(t, "Ramesh Kumar", filtered[0].DoctorName)

	assert.Empty(t, filterByCouncil(records, "Maharashtra Medical Council"))
}

func TestVerifyDoctorRequiresRegistrationNumber(t *testing.T) {
	c := NewClient(0)

	result, err := c.VerifyDoctor(context.Background(), "Ramesh Kumar", "   ", "")
	require.NoError(t, err)
	assert.False(t, result.Verified)
	assert.Contains(t, result.Reason, "No registration number")
	assert.Empty(t, result.Matches)
}
