// internal/contact/message.go
package contact

import (
	"fmt"

	"github.com/dalemusser/cyborg/internal/mailer"
)

// DefaultSiteName is used in the subject and body when none is configured.
const DefaultSiteName = "CYBORG"

const bodyTemplate = `New inquiry from %[1]s Website

Company: %[2]s
Email: %[3]s
Phone: %[4]s
Selected Plan: %[5]s

Message:
%[6]s

---
Sent from %[1]s Website
`

// Subject returns the subject line for a submission.
func Subject(siteName, company string) string {
	return fmt.Sprintf("New %s Inquiry - %s", siteOrDefault(siteName), company)
}

// Body renders the plain-text inquiry body.
func Body(siteName string, sub Submission) string {
	return fmt.Sprintf(bodyTemplate, siteOrDefault(siteName),
		sub.Company, sub.Email, sub.Phone, sub.Plan, sub.Message)
}

// BuildMessage composes the outbound message for sub. The submitter's
// address is re-checked here and replaced by the sender address as
// Reply-To when it does not pass IsValidEmail.
func BuildMessage(cfg Config, sub Submission) mailer.Message {
	replyTo := cfg.Sender
	if IsValidEmail(sub.Email) {
		replyTo = sub.Email
	}
	return mailer.Message{
		From:     cfg.Sender,
		To:       []string{cfg.Recipient},
		ReplyTo:  replyTo,
		Subject:  Subject(cfg.SiteName, sub.Company),
		TextBody: Body(cfg.SiteName, sub),
	}
}

func siteOrDefault(name string) string {
	if name == "" {
		return DefaultSiteName
	}
	return name
}
