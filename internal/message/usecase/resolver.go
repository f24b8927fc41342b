package usecase

import (
	"errors"

	contactusecase "crmhub-backend/internal/contact/usecase"
	"crmhub-backend/internal/platform"
)

// unifierResolver resolves message counterparties through the contact
// unifier, so a message from an unknown sender creates the unified contact
// on the spot.
type unifierResolver struct {
	contacts contactusecase.ContactUsecase
}

// NewUnifierResolver creates a ContactResolver backed by the contact unifier
func NewUnifierResolver(contacts contactusecase.ContactUsecase) ContactResolver {
	return &unifierResolver{contacts: contacts}
}

func (r *unifierResolver) ResolveMessageContact(userID string, message platform.Message) (string, error) {
	counterparty := platform.Contact{
		Platform: message.Platform,
		NativeID: message.CounterpartyID,
		Name:     message.CounterpartyName,
		Email:    message.CounterpartyEmail,
	}
	if counterparty.NativeID == "" {
		// Platforms without stable participant ids key on the address
		counterparty.NativeID = counterparty.Email
	}
	if counterparty.NativeID == "" {
		return "", errors.New("message has no counterparty identifier")
	}
	if counterparty.Email == "" {
		// A chat participant is reachable by native id even without an
		// address on record
		counterparty.Handle = counterparty.NativeID
	}

	result, err := r.contacts.UnifyContact(userID, counterparty)
	if err != nil {
		return "", err
	}
	if result.Outcome == contactusecase.OutcomeSkipped {
		return "", errors.New("counterparty has no reachable identifier")
	}
	return result.ContactID, nil
}
