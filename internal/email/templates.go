package email

import "fmt"

// Template identifiers used in email delivery task payloads.
const (
	TemplateWelcome       = "welcome"
	TemplatePasswordReset = "password_reset"
	TemplateInquiryNotify = "inquiry_notify"
)

// RenderTemplate produces the subject and plain-text body for a template ID.
// Data keys are template-specific; missing keys render as empty strings.
func RenderTemplate(templateID, appName, frontendURL string, data map[string]string) (subject, body string, err error) {
	get := func(key string) string { return data[key] }

	switch templateID {
	case TemplateWelcome:
		subject = fmt.Sprintf("Welcome to %s", appName)
		body = fmt.Sprintf("Hello %s,\n\nThank you for registering with us! We're excited to have you on board.\n\nBest regards,\n%s Team",
			get("username"), appName)
	case TemplatePasswordReset:
		subject = "Password Reset Request"
		resetLink := fmt.Sprintf("%s/reset-password?token=%s", frontendURL, get("token"))
		body = fmt.Sprintf("To reset your password, click the following link: %s\n\nIf you did not request this, please ignore this email.", resetLink)
	case TemplateInquiryNotify:
		subject = "New Property Inquiry"
		body = fmt.Sprintf("You have received a new inquiry for %q from %s (%s):\n\n%s\n\nInquiry ID: %s",
			get("property_title"), get("inquirer_name"), get("inquirer_email"), get("message"), get("inquiry_id"))
	default:
		return "", "", fmt.Errorf("unknown email template: %s", templateID)
	}
	return subject, body, nil
}
