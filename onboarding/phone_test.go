package onboarding_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/chonlathan-cloud/lineoa-public-mirror/onboarding"
)

func TestNormalizeThaiPhone(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
		ok    bool
	}{
		{"local mobile", "0812345678", "0812345678", true},
		{"local landline", "021234567", "021234567", true},
		{"international prefix", "66812345678", "0812345678", true},
		{"plus and dashes stripped", "+66-81-234-5678", "0812345678", true},
		{"spaces stripped", "081 234 5678", "0812345678", true},
		{"too short", "08123", "", false},
		{"too long", "081234567890", "", false},
		{"no digits", "โทรหาฉัน", "", false},
		{"empty", "", "", false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := onboarding.NormalizeThaiPhone(tc.input)
			require.Equal(t, tc.ok, ok)
			require.Equal(t, tc.want, got)
		})
	}
}
