package main

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"conatel.gouv.ht/web/internal/handlers"
	"conatel.gouv.ht/web/internal/observability"
)

func (a *app) contactPage(r *http.Request, lang string, view handlers.ContactView) handlers.PageData {
	vm := a.page(r, lang, "contact.title", "contact.description")
	view.Email = a.cfg.Site.ContactEmail
	view.CSRFToken = vm.CSRFToken
	vm.Content = view
	return vm
}

func (a *app) contactHandler(w http.ResponseWriter, r *http.Request) {
	lang := a.lang(r)
	a.renderPage(w, r, "contact", a.contactPage(r, lang, handlers.ContactView{}))
}

// contactSubmitHandler validates the form and records the request under a
// reference the sender can quote.
func (a *app) contactSubmitHandler(w http.ResponseWriter, r *http.Request) {
	lang := a.lang(r)
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	form := handlers.ParseContactForm(r.PostForm)
	if errs := form.Validate(); len(errs) > 0 {
		vm := a.contactPage(r, lang, handlers.ContactView{Form: form, Errors: errs})
		a.renderStatus(w, r, http.StatusUnprocessableEntity, "contact", "base", vm)
		return
	}

	ref := handlers.NewReference()
	observability.FromContext(r.Context()).Info("contact submission",
		zap.String("reference", ref),
		zap.String("subject", form.Subject),
		zap.String("email_domain", emailDomain(form.Email)),
		zap.Int("message_length", len(form.Message)),
	)
	vm := a.contactPage(r, lang, handlers.ContactView{Sent: true, Reference: ref})
	a.renderPage(w, r, "contact", vm)
}

func emailDomain(addr string) string {
	if i := strings.LastIndexByte(addr, '@'); i >= 0 {
		return addr[i+1:]
	}
	return ""
}
