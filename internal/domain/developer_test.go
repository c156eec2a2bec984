package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanCompany(t *testing.T) {
	testCases := []struct {
		in, expected string
	}{
		{"", ""},
		{"  @github ", "GITHUB"},
		{"Zalando SE", "ZALANDO SE"},
		{"@@double", "@DOUBLE"},
	}
	for _, tc := range testCases {
		assert.Equal(t, tc.expected, CleanCompany(tc.in), tc.in)
	}
}

func TestMatchesLocation(t *testing.T) {
	assert.True(t, MatchesLocation("Berlin", "Berlin"))
	assert.True(t, MatchesLocation("berlin, germany", "Berlin"))
	assert.True(t, MatchesLocation("Kreuzberg, BERLIN", " berlin "))
	assert.True(t, MatchesLocation("anywhere", ""))
	assert.False(t, MatchesLocation("Munich", "Berlin"))
	assert.False(t, MatchesLocation("", "Berlin"))
}

func TestSurname(t *testing.T) {
	assert.Equal(t, "Lovelace", Surname("Ada  Lovelace "))
	assert.Equal(t, "Cher", Surname("Cher"))
	assert.Equal(t, "", Surname("   "))
}

func TestRepository_HasLanguage(t *testing.T) {
	assert.True(t, Repository{Language: "Go"}.HasLanguage())
	assert.False(t, Repository{}.HasLanguage())
}
