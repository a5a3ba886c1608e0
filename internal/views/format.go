package views

import (
	"slices"
	"strings"
	"time"
	_ "time/tzdata"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/medilabo/webapp/internal/model"
)

var paris = loadParis()

func loadParis() *time.Location {
	loc, err := time.LoadLocation("Europe/Paris")
	if err != nil {
		return time.UTC
	}
	return loc
}

// FormatDateTime renders a wall-clock time as "le 02/01/2006 à 15:04".
func FormatDateTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("le 02/01/2006 à 15:04")
}

// FormatTimestamp renders an ISO-8601 instant in Paris time. Unparseable
// input is returned unchanged.
func FormatTimestamp(ts string) string {
	t, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		return ts
	}
	return FormatDateTime(t.In(paris))
}

// FormatBirthDate turns an ISO date into dd/mm/yyyy.
func FormatBirthDate(d string) string {
	t, err := time.Parse(time.DateOnly, d)
	if err != nil {
		return d
	}
	return t.Format("02/01/2006")
}

func RoleLabel(r model.Role) string {
	switch r {
	case model.RoleAdmin:
		return "Administrateur"
	case model.RoleUser:
		return "Praticien"
	default:
		return string(r)
	}
}

// SortPatients orders by last then first name using French collation.
// The input is not modified.
func SortPatients(in []model.Patient) []model.Patient {
	out := slices.Clone(in)
	c := collate.New(language.French, collate.Loose)
	slices.SortStableFunc(out, func(a, b model.Patient) int {
		if n := c.CompareString(a.LastName, b.LastName); n != 0 {
			return n
		}
		return c.CompareString(a.FirstName, b.FirstName)
	})
	return out
}

// SortUsers orders like SortPatients.
func SortUsers(in []model.User) []model.User {
	out := slices.Clone(in)
	c := collate.New(language.French, collate.Loose)
	slices.SortStableFunc(out, func(a, b model.User) int {
		if n := c.CompareString(a.LastName, b.LastName); n != 0 {
			return n
		}
		return c.CompareString(a.FirstName, b.FirstName)
	})
	return out
}

// SortNotes puts the most recent note first.
func SortNotes(in []model.Note) []model.Note {
	out := slices.Clone(in)
	slices.SortStableFunc(out, func(a, b model.Note) int {
		return b.Time().Compare(a.Time())
	})
	return out
}

// excerpt shortens a note body for list rows.
func excerpt(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return strings.TrimSpace(string(r[:n])) + "…"
}
