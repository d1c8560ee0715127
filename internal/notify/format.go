package notify

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// NormalizeContact reduces a raw phone-like string to digits and appends
// the network address suffix: "(11) 98888-7777" -> "11988887777@<suffix>".
func NormalizeContact(raw, suffix string) (string, error) {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if digits == "" {
		return "", errors.New("contact has no digits")
	}
	return digits + "@" + suffix, nil
}

// RenderReminder builds the reminder body. The date-time is always shown
// in the configured timezone, whatever zone the store handed us.
func RenderReminder(clientName string, at time.Time, loc *time.Location) string {
	when := at.In(loc).Format("02/01/2006 15:04")
	return fmt.Sprintf("Olá, %s! 😊\n\n"+
		"Passando para lembrar do seu agendamento.\n\n"+
		"🗓️ *Data e Hora:* %s\n\n"+
		"Por favor, confirme sua presença. Se precisar cancelar ou remarcar, nos avise com antecedência.\n\n"+
		"Atenciosamente,\nSua Equipe", clientName, when)
}
