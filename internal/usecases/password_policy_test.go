package usecases_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	domainerrors "farmvet-auth.backend/internal/domain/errors"
	"farmvet-auth.backend/internal/usecases"
)

func TestCheckStrength(t *testing.T) {
	cases := []struct {
		name     string
		password string
		attrs    []string
		message  string
	}{
		{"strong", "Str0ng!Pass", []string{"f1", "f1@x.com", "Farmer One"}, ""},
		{"too short", "Ab1!", nil, "This password is too short. It must contain at least 8 characters."},
		{"common", "Password123", nil, "This password is too common."},
		{"numeric", "90817263544", nil, "This password is entirely numeric."},
		{"similar to username", "ramkumar99", []string{"ramkumar"}, "The password is too similar to your personal information."},
		{"similar to email local part", "sitadevi1", []string{"sitadevi@mail.com"}, "The password is too similar to your personal information."},
		{"unrelated attrs", "Meadow#Lark7", []string{"hari", "hari@x.com"}, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := usecases.CheckStrength(tc.password, tc.attrs...)
			if tc.message == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, domainerrors.ErrValidation)
			var verr *domainerrors.ValidationError
			if assert.True(t, errors.As(err, &verr)) {
				assert.Equal(t, tc.message, verr.Fields["password"])
			}
		})
	}
}
