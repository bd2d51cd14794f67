package contact

import (
	"time"

	"github.com/rp0948566-hue/beacon-safety-hub-01/internal/alert"
)

type Contact struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	Name         string    `json:"name"`
	Phone        string    `json:"phone,omitempty"`
	Email        string    `json:"email,omitempty"`
	ChatID       string    `json:"chat_id,omitempty"`
	PushEndpoint string    `json:"push_endpoint,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// ToAlertContact converts to the dispatcher's view of the contact.
func (c Contact) ToAlertContact() alert.Contact {
	return alert.Contact{
		ID:           c.ID,
		Name:         c.Name,
		Phone:        c.Phone,
		Email:        c.Email,
		ChatID:       c.ChatID,
		PushEndpoint: c.PushEndpoint,
	}
}

// ToAlertContacts converts a stored contact set for dispatch.
func ToAlertContacts(contacts []Contact) []alert.Contact {
	out := make([]alert.Contact, len(contacts))
	for i, c := range contacts {
		out[i] = c.ToAlertContact()
	}
	return out
}
