package main

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/muurk/formwizard/internal/wizard"
)

func decode(t *testing.T, doc string) map[string]any {
	t.Helper()
	raw, err := decodeValues([]byte(doc))
	require.NoError(t, err)
	return raw
}

func TestFill_Registration(t *testing.T) {
	raw := decode(t, `
personal:
  name: Ada
  email: ada@example.com
address:
  city: London
  postalCode: 01500
account:
  password: 1e3
  confirmPassword: 0x10
`)

	values, problems, err := fill(wizard.Registration(), raw)
	require.NoError(t, err)
	require.Nil(t, problems)

	// Numbers keep their spelling; password and confirmPassword are not compared
	want := map[string]any{
		"personal": map[string]string{"name": "Ada", "email": "ada@example.com"},
		"address":  map[string]string{"city": "London", "postalCode": "01500"},
		"account":  map[string]string{"password": "1e3", "confirmPassword": "0x10"},
	}
	if diff := cmp.Diff(want, values); diff != "" {
		t.Errorf("values mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeValues(t *testing.T) {
	raw, err := decodeValues([]byte(`
defaults: &defaults
  city: London
  postalCode: 00100
address:
  <<: *defaults
  postalCode: 01500
flags: [yes, 1.50, ~, +12]
empty:
`))
	require.NoError(t, err)

	want := map[string]any{
		"defaults": map[string]any{"city": "London", "postalCode": "00100"},
		"address":  map[string]any{"city": "London", "postalCode": "01500"},
		"flags":    []any{"yes", "1.50", nil, "+12"},
		"empty":    nil,
	}
	if diff := cmp.Diff(want, raw); diff != "" {
		t.Errorf("decoded values mismatch (-want +got):\n%s", diff)
	}

	raw, err = decodeValues(nil)
	require.NoError(t, err)
	assert.Empty(t, raw)

	_, err = decodeValues([]byte("- a\n- b\n"))
	assert.ErrorContains(t, err, "must be a mapping")

	_, err = decodeValues([]byte("a: [\n"))
	assert.Error(t, err)
}

func TestFill_StopsAtFirstInvalidGroup(t *testing.T) {
	raw := decode(t, `
personal:
  name: Ada
  email: not-an-email
account:
  password: secret1
  confirmPassword: secret1
`)

	values, problems, err := fill(wizard.Registration(), raw)
	require.NoError(t, err)
	assert.Nil(t, values)
	assert.Equal(t, []string{"Personal details: Enter a valid email address"}, problems)
}

func TestFill_LastGroupInvalid(t *testing.T) {
	raw := decode(t, `
personal: {name: Ada, email: ada@example.com}
address: {city: London, postalCode: "1"}
account: {password: secret1}
`)

	_, problems, err := fill(wizard.Registration(), raw)
	require.NoError(t, err)
	assert.Equal(t, []string{"Account: Confirm password is required"}, problems)
}

func TestFill_UnknownNames(t *testing.T) {
	_, _, err := fill(wizard.Registration(), decode(t, "billing: {card: 1}"))
	assert.ErrorIs(t, err, wizard.ErrUnknownGroup)

	_, _, err = fill(wizard.Registration(), decode(t, "personal: {age: 3}"))
	assert.ErrorIs(t, err, wizard.ErrUnknownField)

	_, _, err = fill(wizard.Registration(), decode(t, "personal: Ada"))
	assert.ErrorContains(t, err, "must be a mapping")

	_, _, err = fill(wizard.ReactiveUser(), decode(t, "age: 3"))
	assert.ErrorIs(t, err, wizard.ErrUnknownField)
}

func TestFill_ReactiveUser(t *testing.T) {
	_, problems, err := fill(wizard.ReactiveUser(), decode(t, "name: Al\nemail: al@example"))
	require.NoError(t, err)
	assert.Equal(t, []string{"Name must be at least 3 characters", "Enter a valid email address"}, problems)

	values, problems, err := fill(wizard.ReactiveUser(), decode(t, "name: Alan\nemail: al@example.com"))
	require.NoError(t, err)
	assert.Nil(t, problems)
	assert.Equal(t, map[string]any{"name": "Alan", "email": "al@example.com"}, values)
}

func TestFill_UserAcceptsEmpty(t *testing.T) {
	values, problems, err := fill(wizard.User(), map[string]any{})
	require.NoError(t, err)
	assert.Nil(t, problems)
	assert.Equal(t, map[string]any{"name": "", "email": ""}, values)
}

func TestFill_Skills(t *testing.T) {
	values, problems, err := fill(wizard.Skills(), decode(t, "name: Ada\nskills: [go, sql]"))
	require.NoError(t, err)
	assert.Nil(t, problems)
	assert.Equal(t, map[string]any{"name": "Ada", "skills": []string{"go", "sql"}}, values)

	_, problems, err = fill(wizard.Skills(), decode(t, "name: Ada\nskills: [go, '']"))
	require.NoError(t, err)
	assert.Equal(t, []string{"Skill 2 is required"}, problems)

	_, _, err = fill(wizard.Skills(), decode(t, "name: Ada\nskills: go"))
	assert.ErrorContains(t, err, "must be a sequence")
}

func TestNewSubmission_MasksPasswords(t *testing.T) {
	values := map[string]any{
		"personal": map[string]string{"name": "<b>Ada</b>", "email": "ada@example.com"},
		"address":  map[string]string{"city": "London", "postalCode": "12345"},
		"account":  map[string]string{"password": "secret", "confirmPassword": "secret"},
	}

	sub, err := newSubmission(wizard.Registration(), values)
	require.NoError(t, err)

	account := sub.Values["account"].(map[string]string)
	assert.Equal(t, "••••••", account["password"])
	assert.Equal(t, "••••••", account["confirmPassword"])
	assert.Equal(t, "<b>Ada</b>", sub.Values["personal"].(map[string]string)["name"])

	require.NotNil(t, sub.Record)
	assert.Equal(t, "Registration", sub.Record.Name)
	assert.Equal(t, "Ada", sub.Record.Data["personal.name"])
	assert.NotContains(t, sub.Record.Data, "account.password")
	assert.NotContains(t, sub.Record.Data, "account.confirmPassword")

	require.Len(t, sub.details, 6)
	assert.Equal(t, "personal.name", sub.details[0].Key)
	assert.Equal(t, "account.password", sub.details[4].Key)
	assert.Equal(t, "••••••", sub.details[4].Value)
}

func TestNewSubmission_MissingGroup(t *testing.T) {
	_, err := newSubmission(wizard.Registration(), map[string]any{})
	assert.ErrorContains(t, err, `missing values for group "personal"`)
}

func TestNewSubmission_List(t *testing.T) {
	sub, err := newSubmission(wizard.Skills(), map[string]any{"name": "Ada", "skills": []string{"go", "sql"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"go", "sql"}, sub.Record.Data["skills"])
	assert.Equal(t, "skills: go, sql", sub.details[1].Key+": "+sub.details[1].Value)
}

func TestRecordFromArgs(t *testing.T) {
	rec, err := recordFromArgs("7", []string{"Ada", "city=London", "note=a=b"})
	require.NoError(t, err)
	assert.Equal(t, "7", rec.ID)
	assert.Equal(t, "Ada", rec.Name)
	assert.Equal(t, map[string]any{"city": "London", "note": "a=b"}, rec.Data)

	_, err = recordFromArgs("", []string{"Ada", "city"})
	assert.ErrorContains(t, err, "expected key=value")

	_, err = recordFromArgs("", []string{"  "})
	assert.Error(t, err)
}

func TestCommandTree(t *testing.T) {
	for _, path := range [][]string{
		{"wizard"}, {"prompt"}, {"forms"}, {"hello"}, {"submit"}, {"scan"}, {"version"},
		{"records", "list"}, {"records", "get"}, {"records", "create"}, {"records", "update"}, {"records", "delete"},
		{"config", "init"}, {"config", "show"},
	} {
		cmd, _, err := rootCmd.Find(path)
		require.NoError(t, err, path)
		assert.Equal(t, path[len(path)-1], cmd.Name())
	}

	for _, flag := range []string{"api-url", "format", "log-level"} {
		assert.NotNil(t, rootCmd.PersistentFlags().Lookup(flag), flag)
	}
}
