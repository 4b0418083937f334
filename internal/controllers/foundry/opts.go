package foundry

import (
	"log/slog"
	"time"

	"github.com/isometry/pro-checkin-webhook/internal/checkin"
	"golang.org/x/oauth2"
)

// WithLogger sets a custom slog.Logger instance for the Controller struct to use for logging operations.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		c.logger = logger
	}
}

// WithHostname sets the Foundry stack hostname. "https://" is assumed when no scheme is given.
func WithHostname(hostname string) Option {
	return func(c *Controller) {
		c.baseURL = normaliseHostname(hostname)
	}
}

// WithToken sets a static bearer token.
func WithToken(token string) Option {
	return func(c *Controller) {
		c.token = token
	}
}

// WithTokenSource sets the bearer token source, taking precedence over WithToken.
func WithTokenSource(ts oauth2.TokenSource) Option {
	return func(c *Controller) {
		c.tokenSource = ts
	}
}

// WithOntology sets the ontology API name or RID.
func WithOntology(ontology string) Option {
	return func(c *Controller) {
		c.ontology = ontology
	}
}

// WithPatientObjectType sets the object type searched by FindPatientByName.
func WithPatientObjectType(objectType string) Option {
	return func(c *Controller) {
		c.patientObjectType = objectType
	}
}

// WithNameProperty sets the property matched against the patient name.
func WithNameProperty(property string) Option {
	return func(c *Controller) {
		c.nameProperty = property
	}
}

// WithIDProperty sets the property returned as the patient identifier.
func WithIDProperty(property string) Option {
	return func(c *Controller) {
		c.idProperty = property
	}
}

// WithAction maps an entity kind to an action API name.
func WithAction(kind checkin.EntityKind, action string) Option {
	return func(c *Controller) {
		if action != "" {
			c.actions[kind] = action
		}
	}
}

// WithTimeout bounds each API request.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Controller) {
		c.timeout = timeout
	}
}
