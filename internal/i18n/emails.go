package i18n

import (
	"strconv"
	"strings"
)

type EmailContent struct {
	Subject string
	Text    string
	HTML    string
}

type emailStrings struct {
	VerificationSubject string
	VerificationText    string
	VerificationHTML    string

	TwoFactorSubject string
	TwoFactorText    string
	TwoFactorHTML    string

	PasswordResetSubject string
	PasswordResetText    string
	PasswordResetHTML    string
}

var emailTranslations = map[string]emailStrings{
	"en": {
		VerificationSubject: "Verify your email",
		VerificationText:    "Your verification code is {code}. It is valid for {minutes} minutes.",
		VerificationHTML: "<p>Verify your email</p>" +
			"<p>Use the code below to verify your email address.</p>" +
			"<p><strong>{code}</strong></p>" +
			"<p>The code expires in {minutes} minutes.</p>" +
			"<p>If you did not request this, you can ignore this email.</p>",

		TwoFactorSubject: "Your sign-in code",
		TwoFactorText:    "Your sign-in code is {code} (valid for {minutes} minutes).",
		TwoFactorHTML:    "<p>Your sign-in code is <strong>{code}</strong> (valid for {minutes} minutes).</p>",

		PasswordResetSubject: "Reset your password",
		PasswordResetText:    "Your password reset code is {code}. It is valid for {minutes} minutes.\nIf you did not request this, ignore this email.",
		PasswordResetHTML: "<p>Password reset</p>" +
			"<p>Use the code below to reset your password.</p>" +
			"<p><strong>{code}</strong></p>" +
			"<p>The code expires in {minutes} minutes.</p>" +
			"<p>If you did not request this, ignore this email.</p>",
	},
	"de": {
		VerificationSubject: "E-Mail verifizieren",
		VerificationText:    "Ihr Verifizierungscode ist {code}. Er ist {minutes} Minuten gültig.",
		VerificationHTML: "<p>E-Mail verifizieren</p>" +
			"<p>Verwenden Sie den untenstehenden Code, um Ihre E-Mail zu verifizieren.</p>" +
			"<p><strong>{code}</strong></p>" +
			"<p>Der Code ist in {minutes} Minuten abgelaufen.</p>" +
			"<p>Wenn Sie dies nicht angefordert haben, können Sie diese E-Mail ignorieren.</p>",

		TwoFactorSubject: "Ihr Anmeldecode",
		TwoFactorText:    "Ihr Anmeldecode ist {code} (gültig für {minutes} Minuten).",
		TwoFactorHTML:    "<p>Ihr Anmeldecode ist <strong>{code}</strong> (gültig für {minutes} Minuten).</p>",

		PasswordResetSubject: "Passwort zurücksetzen",
		PasswordResetText:    "Ihr Code zum Zurücksetzen des Passworts ist {code}. Er ist {minutes} Minuten gültig.\nWenn Sie dies nicht angefordert haben, ignorieren Sie diese E-Mail.",
		PasswordResetHTML: "<p>Passwort zurücksetzen</p>" +
			"<p>Verwenden Sie den untenstehenden Code, um Ihr Passwort zurückzusetzen.</p>" +
			"<p><strong>{code}</strong></p>" +
			"<p>Der Code ist in {minutes} Minuten abgelaufen.</p>" +
			"<p>Wenn Sie dies nicht angefordert haben, ignorieren Sie diese E-Mail.</p>",
	},
}

func emailStringsForLocale(locale string) emailStrings {
	key := NormalizeLocale(locale)
	if val, ok := emailTranslations[key]; ok {
		return val
	}
	return emailTranslations[DefaultLocale]
}

func renderTemplate(tmpl string, values map[string]string) string {
	if tmpl == "" || len(values) == 0 {
		return tmpl
	}

	replacements := make([]string, 0, len(values)*2)
	for key, value := range values {
		replacements = append(replacements, "{"+key+"}", value)
	}
	return strings.NewReplacer(replacements...).Replace(tmpl)
}

func codeValues(code string, minutes int) map[string]string {
	return map[string]string{
		"code":    code,
		"minutes": strconv.Itoa(minutes),
	}
}

func VerificationEmail(locale, code string, minutes int) EmailContent {
	templates := emailStringsForLocale(locale)
	values := codeValues(code, minutes)
	return EmailContent{
		Subject: templates.VerificationSubject,
		Text:    renderTemplate(templates.VerificationText, values),
		HTML:    renderTemplate(templates.VerificationHTML, values),
	}
}

func TwoFactorEmail(locale, code string, minutes int) EmailContent {
	templates := emailStringsForLocale(locale)
	values := codeValues(code, minutes)
	return EmailContent{
		Subject: templates.TwoFactorSubject,
		Text:    renderTemplate(templates.TwoFactorText, values),
		HTML:    renderTemplate(templates.TwoFactorHTML, values),
	}
}

func PasswordResetEmail(locale, code string, minutes int) EmailContent {
	templates := emailStringsForLocale(locale)
	values := codeValues(code, minutes)
	return EmailContent{
		Subject: templates.PasswordResetSubject,
		Text:    renderTemplate(templates.PasswordResetText, values),
		HTML:    renderTemplate(templates.PasswordResetHTML, values),
	}
}
