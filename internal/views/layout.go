package views

import (
	"slices"
	"strings"

	"github.com/medilabo/webapp/internal/model"
	"github.com/medilabo/webapp/internal/urls"
	"github.com/medilabo/webapp/pkg/cookie"
)

// Layout is the chrome shared by every page.
type Layout struct {
	Title         string
	Path          string
	Role          model.Role
	Authenticated bool
	Flash         *cookie.Flash
}

// NavItem is a link of the top navigation.
type NavItem struct {
	Label  string
	Href   string
	Active bool
}

var navigation = []struct {
	label string
	href  string
	roles []model.Role
}{
	{"Profil", urls.Profile, []model.Role{model.RoleUser, model.RoleAdmin}},
	{"Mes patients", urls.Patients, []model.Role{model.RoleUser}},
	{"Utilisateurs", urls.Users, []model.Role{model.RoleAdmin}},
}

// Nav returns the links visible to the layout's role.
func (l Layout) Nav() []NavItem {
	if !l.Authenticated {
		return nil
	}
	var items []NavItem
	for _, n := range navigation {
		if !slices.Contains(n.roles, l.Role) {
			continue
		}
		items = append(items, NavItem{
			Label:  n.label,
			Href:   n.href,
			Active: l.Path == n.href || strings.HasPrefix(l.Path, n.href+"/"),
		})
	}
	return items
}
