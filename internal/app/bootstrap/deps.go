package bootstrap

import (
	"github.com/dalemusser/cyborg/health"
	"github.com/dalemusser/cyborg/internal/contact"
	"github.com/dalemusser/cyborg/internal/mailer"
)

// Deps holds the backend clients the handlers use.
type Deps struct {
	Sender  mailer.Sender
	Contact *contact.Service

	// RelayCheck probes the SMTP relay for /readyz.
	RelayCheck health.Check
}
