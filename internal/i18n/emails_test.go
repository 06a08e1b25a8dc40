package i18n

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVerificationEmailSubstitution(t *testing.T) {
	content := VerificationEmail("en", "ABC123", 15)

	assert.Equal(t, "Verify your email", content.Subject)
	assert.Contains(t, content.Text, "ABC123")
	assert.Contains(t, content.Text, "15 minutes")
	assert.Contains(t, content.HTML, "<strong>ABC123</strong>")
	assert.NotContains(t, content.Text, "{code}")
	assert.NotContains(t, content.HTML, "{minutes}")
}

func TestEmailLocales(t *testing.T) {
	en := PasswordResetEmail("en", "ABC123", 15)
	de := PasswordResetEmail("de", "ABC123", 15)

	assert.Equal(t, "Reset your password", en.Subject)
	assert.Equal(t, "Passwort zurücksetzen", de.Subject)
	assert.Contains(t, de.Text, "ABC123")
}

func TestEmailFallsBackToEnglish(t *testing.T) {
	content := TwoFactorEmail("fr", "ABC123", 15)
	assert.Equal(t, "Your sign-in code", content.Subject)
	assert.Contains(t, content.Text, "ABC123")
}
