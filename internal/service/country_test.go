package service

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCountryNormalize(t *testing.T) {
	svc := NewCountryService()

	cases := []struct {
		in   string
		want string
		err  error
	}{
		{"UZ", "UZ", nil},
		{"uz", "UZ", nil},
		{" us ", "US", nil},
		{"🇺🇿", "UZ", nil},
		{"🇫🇷", "FR", nil},
		// ISO3
		{"USA", "US", nil},
		{"uzb", "UZ", nil},
		{"FRA", "FR", nil},
		// 英文国名
		{"France", "FR", nil},
		{"united states", "US", nil},
		{"Uzbekistan", "UZ", nil},
		{"", "", ErrCountryRequired},
		{"  ", "", ErrCountryRequired},
		{"XX", "", ErrInvalidCountry},
		{"Atlantis", "", ErrInvalidCountry},
		{"😊", "", ErrInvalidCountry},
	}
	for _, tc := range cases {
		got, err := svc.Normalize(tc.in)
		if tc.err != nil {
			require.ErrorIs(t, err, tc.err, "input %q", tc.in)
			continue
		}
		require.NoError(t, err, "input %q", tc.in)
		require.Equal(t, tc.want, got)
	}
}

func TestCountryIsValid(t *testing.T) {
	svc := NewCountryService()
	require.True(t, svc.IsValid("UZ"))
	require.True(t, svc.IsValid("🇺🇸"))
	require.False(t, svc.IsValid("ZZ"))
	require.False(t, svc.IsValid(""))
}
