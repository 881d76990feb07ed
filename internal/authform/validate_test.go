package authform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validRegisterForm() FormState {
	return FormState{
		Username:        "alice",
		Email:           "alice@example.com",
		Password:        "abcdef",
		ConfirmPassword: "abcdef",
	}
}

func TestValidateUsername(t *testing.T) {
	cases := []struct {
		name     string
		username string
		want     string
	}{
		{name: "empty", username: "", want: MsgUsernameRequired},
		{name: "whitespace only", username: "   ", want: MsgUsernameRequired},
		{name: "two chars", username: "ab", want: MsgUsernameTooShort},
		{name: "trailing space does not count", username: "ab ", want: MsgUsernameTooShort},
		{name: "three chars", username: "abc", want: ""},
		{name: "multibyte", username: "山田太", want: ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := Validate(FormState{Username: tc.username, Password: "abcdef"}, ModeLogin)
			assert.Equal(t, tc.want, res.Errors.Username)
			assert.Equal(t, tc.want == "", res.Valid)
		})
	}
}

func TestValidatePassword(t *testing.T) {
	res := Validate(FormState{Username: "abc"}, ModeLogin)
	assert.Equal(t, MsgPasswordRequired, res.Errors.Password)

	res = Validate(FormState{Username: "abc", Password: "abcde"}, ModeLogin)
	assert.Equal(t, MsgPasswordTooShort, res.Errors.Password)

	res = Validate(FormState{Username: "abc", Password: "abcdef"}, ModeLogin)
	assert.True(t, res.Valid)
}

func TestValidateEmailInRegisterMode(t *testing.T) {
	cases := map[string]string{
		"":                   MsgEmailRequired,
		"  ":                 MsgEmailRequired,
		"alice":              MsgEmailInvalid,
		"alice@example":      MsgEmailInvalid,
		"al ice@example.com": MsgEmailInvalid,
		"a@b@c.com":          MsgEmailInvalid,
		"alice@example.com":  "",
		"a@b.c":              "",
	}
	for email, want := range cases {
		form := validRegisterForm()
		form.Email = email
		res := Validate(form, ModeRegister)
		assert.Equal(t, want, res.Errors.Email, "email=%q", email)
	}
}

func TestValidateConfirmPasswordMismatch(t *testing.T) {
	form := validRegisterForm()
	form.ConfirmPassword = "abcdeg"

	res := Validate(form, ModeRegister)
	require.False(t, res.Valid)
	assert.Equal(t, MsgPasswordMismatch, res.Errors.ConfirmPassword)
	assert.Empty(t, res.Errors.Password, "パスワード自体の規則は満たしている")

	form.ConfirmPassword = ""
	res = Validate(form, ModeRegister)
	assert.Equal(t, MsgConfirmRequired, res.Errors.ConfirmPassword)
}

func TestValidateLoginIgnoresRegisterFields(t *testing.T) {
	form := FormState{
		Username:        "alice",
		Email:           "not-an-email",
		Password:        "abcdef",
		ConfirmPassword: "something else",
	}
	res := Validate(form, ModeLogin)
	require.True(t, res.Valid)
	assert.Empty(t, res.Errors.Email)
	assert.Empty(t, res.Errors.ConfirmPassword)
}

func TestValidateReportsAllFailures(t *testing.T) {
	res := Validate(FormState{Username: "a", Email: "x", Password: "1", ConfirmPassword: "2"}, ModeRegister)
	require.False(t, res.Valid)
	assert.Equal(t, FieldErrors{
		Username:        MsgUsernameTooShort,
		Email:           MsgEmailInvalid,
		Password:        MsgPasswordTooShort,
		ConfirmPassword: MsgPasswordMismatch,
	}, res.Errors)
}

func TestValidateIsDeterministic(t *testing.T) {
	form := FormState{Username: "ab ", Email: "x@y", Password: "abc"}
	first := Validate(form, ModeRegister)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, Validate(form, ModeRegister))
	}
	assert.Equal(t, FormState{Username: "ab ", Email: "x@y", Password: "abc"}, form)
}

func TestParseMode(t *testing.T) {
	assert.Equal(t, ModeRegister, ParseMode("register"))
	assert.Equal(t, ModeRegister, ParseMode(" Register "))
	assert.Equal(t, ModeLogin, ParseMode("login"))
	assert.Equal(t, ModeLogin, ParseMode("anything"))

	var m Mode
	require.NoError(t, m.UnmarshalText([]byte("register")))
	assert.Equal(t, ModeRegister, m)
	require.Error(t, m.UnmarshalText([]byte("admin")))
}
