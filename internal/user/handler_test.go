package user

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateLength(t *testing.T) {
	cases := []struct {
		value string
		want  string
	}{
		{"", "must not be blank"},
		{"   ", "must not be blank"},
		{"ab", "must be at least 3 characters"},
		{strings.Repeat("x", 46), "must be at most 45 characters"},
		{"abc", ""},
		{strings.Repeat("x", 45), ""},
		{"  abc  ", ""}, // trimmed before the bounds apply
	}

	for _, tc := range cases {
		errs := map[string]string{}
		validateLength(errs, "login", tc.value)
		if tc.want == "" {
			assert.Empty(t, errs, "value %q", tc.value)
		} else {
			assert.Equal(t, tc.want, errs["login"], "value %q", tc.value)
		}
	}
}

func TestValidateEmail(t *testing.T) {
	for _, ok := range []string{"a@b", "jan.kowalski@example.com"} {
		errs := map[string]string{}
		validateEmail(errs, ok)
		assert.Empty(t, errs, ok)
	}
	for _, bad := range []string{"", "plain", "@host", "user@", "a@" + strings.Repeat("x", 190)} {
		errs := map[string]string{}
		validateEmail(errs, bad)
		assert.Contains(t, errs, "email", bad)
	}
}

func TestValidateRegistration(t *testing.T) {
	errs := validateRegistration(&RegisterRequest{
		Login:    "jan",
		Password: "sekret99",
		Name:     "Jan",
		Surname:  "Kowalski",
		Email:    "jan@example.com",
	})
	assert.Empty(t, errs)

	errs = validateRegistration(&RegisterRequest{Password: "short"})
	assert.Contains(t, errs, "login")
	assert.Contains(t, errs, "name")
	assert.Contains(t, errs, "surname")
	assert.Contains(t, errs, "email")
	assert.Equal(t, "must be at least 6 characters", errs["password"])
}
