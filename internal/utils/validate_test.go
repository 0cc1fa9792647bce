package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidUsername(t *testing.T) {
	assert.True(t, ValidUsername("alice"))
	assert.True(t, ValidUsername("a_b-c123"))
	assert.False(t, ValidUsername("ab"))
	assert.False(t, ValidUsername(strings.Repeat("a", 33)))
	assert.False(t, ValidUsername("with space"))
	assert.False(t, ValidUsername("emoji🙂"))
	assert.False(t, ValidUsername(""))
}

func TestValidEmail(t *testing.T) {
	assert.True(t, ValidEmail("alice@example.com"))
	assert.True(t, ValidEmail("a.b+tag@sub.example.co"))
	assert.False(t, ValidEmail("not-an-email"))
	assert.False(t, ValidEmail("@example.com"))
	assert.False(t, ValidEmail("alice@"))
}

func TestValidPassword(t *testing.T) {
	assert.True(t, ValidPassword("12345678"))
	assert.False(t, ValidPassword("1234567"))
}

func TestValidInviteKey(t *testing.T) {
	assert.True(t, ValidInviteKey("ABCD1234"))
	assert.False(t, ValidInviteKey("ab"))
	assert.False(t, ValidInviteKey("has space"))
	assert.False(t, ValidInviteKey("dash-key"))
}
