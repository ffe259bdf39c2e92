package handlers

import (
	"net/mail"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/oklog/ulid/v2"
)

const (
	maxNameLength    = 120
	maxSubjectLength = 200
	maxMessageLength = 5000
)

// ContactForm is a submitted contact request.
type ContactForm struct {
	Name    string
	Email   string
	Subject string
	Message string
}

// ContactView is the contact page payload.
type ContactView struct {
	Form      ContactForm
	Errors    map[string]string
	Sent      bool
	Reference string
	Email     string
	CSRFToken string
}

// ParseContactForm trims the posted values.
func ParseContactForm(v url.Values) ContactForm {
	return ContactForm{
		Name:    strings.TrimSpace(v.Get("name")),
		Email:   strings.TrimSpace(v.Get("email")),
		Subject: strings.TrimSpace(v.Get("subject")),
		Message: strings.TrimSpace(v.Get("message")),
	}
}

// Validate returns i18n error keys per field; empty means valid.
func (f ContactForm) Validate() map[string]string {
	errs := map[string]string{}
	switch {
	case f.Name == "":
		errs["name"] = "contact.errors.required"
	case utf8.RuneCountInString(f.Name) > maxNameLength:
		errs["name"] = "contact.errors.too_long"
	}
	if f.Email == "" {
		errs["email"] = "contact.errors.required"
	} else if addr, err := mail.ParseAddress(f.Email); err != nil || addr.Address != f.Email {
		errs["email"] = "contact.errors.email"
	}
	if utf8.RuneCountInString(f.Subject) > maxSubjectLength {
		errs["subject"] = "contact.errors.too_long"
	}
	switch {
	case f.Message == "":
		errs["message"] = "contact.errors.required"
	case utf8.RuneCountInString(f.Message) > maxMessageLength:
		errs["message"] = "contact.errors.too_long"
	}
	return errs
}

// NewReference returns the id quoted back to the sender.
func NewReference() string {
	return "CT-" + ulid.Make().String()
}
