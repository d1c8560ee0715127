package notify

import (
	"strings"
	"testing"
	"time"
)

func TestNormalizeContact(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"(11) 98888-7777", "11988887777@s.whatsapp.net"},
		{"+55 11 98888 7777", "5511988887777@s.whatsapp.net"},
		{"11988887777", "11988887777@s.whatsapp.net"},
	}
	for _, c := range cases {
		got, err := NormalizeContact(c.in, "s.whatsapp.net")
		if err != nil {
			t.Fatalf("NormalizeContact(%q): %v", c.in, err)
		}
		if got != c.want {
			t.Fatalf("NormalizeContact(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestNormalizeContactRejectsEmpty(t *testing.T) {
	for _, in := range []string{"", "---", "abc"} {
		if _, err := NormalizeContact(in, "s.whatsapp.net"); err == nil {
			t.Fatalf("NormalizeContact(%q): expected error", in)
		}
	}
}

func TestRenderReminderUsesConfiguredZone(t *testing.T) {
	loc, err := time.LoadLocation("America/Sao_Paulo")
	if err != nil {
		t.Fatal(err)
	}
	// 18:30 UTC is 15:30 in São Paulo (UTC-3, no DST since 2019).
	at := time.Date(2026, 3, 10, 18, 30, 0, 0, time.UTC)

	body := RenderReminder("Maria", at, loc)
	if !strings.Contains(body, "Olá, Maria!") {
		t.Fatalf("missing greeting: %q", body)
	}
	if !strings.Contains(body, "10/03/2026 15:30") {
		t.Fatalf("expected zone-shifted timestamp in body: %q", body)
	}
}
