package application

import (
	"github.com/kemiadeola/openbanking-pisp/internal/domain"
)

// RequireAuthorised gates every consent-consuming operation and funds
// confirmation. It must run before any collaborator is called, so a
// non-authorised consent short-circuits without side effects.
func RequireAuthorised(c *domain.Consent) error {
	if c.IsAuthorised() {
		return nil
	}
	return NewInvalidConsentStatusError(c.Status)
}
