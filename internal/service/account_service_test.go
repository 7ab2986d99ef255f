package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccountService_SignUpAndLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	u, err := f.account.SignUp(ctx, SignUpInput{Username: "leo", Password: "s3cret-pass"})
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret-pass", u.Password)

	got, token, err := f.account.Login(ctx, "leo", "s3cret-pass")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.NotEmpty(t, token)

	who, err := f.account.Identify(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "leo", who.Username)
}

func TestAccountService_SignUpValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.account.SignUp(ctx, SignUpInput{Username: "taken", Password: "long-enough"})
	require.NoError(t, err)

	tests := []struct {
		name  string
		in    SignUpInput
		field string
	}{
		{name: "duplicate", in: SignUpInput{Username: "taken", Password: "long-enough"}, field: "username"},
		{name: "bad characters", in: SignUpInput{Username: "no spaces", Password: "long-enough"}, field: "username"},
		{name: "short password", in: SignUpInput{Username: "fresh", Password: "short"}, field: "password"},
		{name: "missing username", in: SignUpInput{Password: "long-enough"}, field: "username"},
		{name: "unicode symbol", in: SignUpInput{Username: "leo★", Password: "long-enough"}, field: "username"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.account.SignUp(ctx, tt.in)
			var ve *ValidationError
			require.True(t, errors.As(err, &ve), "got %v", err)
			assert.Contains(t, ve.Fields, tt.field)
		})
	}
}

func TestAccountService_SignUpUnicodeUsername(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, name := range []string{"Лев_Толстой", "李雷.99", "mail@x.org+1-a"} {
		u, err := f.account.SignUp(ctx, SignUpInput{Username: name, Password: "long-enough"})
		require.NoError(t, err, name)
		assert.Equal(t, name, u.Username)
	}
}

func TestAccountService_LoginFailures(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.account.SignUp(ctx, SignUpInput{Username: "leo", Password: "s3cret-pass"})
	require.NoError(t, err)

	_, _, err = f.account.Login(ctx, "leo", "wrong-pass")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, _, err = f.account.Login(ctx, "nobody", "s3cret-pass")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = f.account.Identify(ctx, "garbage")
	assert.ErrorIs(t, err, ErrUnauthenticated)
}
