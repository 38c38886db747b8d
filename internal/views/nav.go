package views

import "github.com/subtech/mina-dashboard/internal/session"

type NavLink struct {
	Label string `json:"label"`
	Href  string `json:"href"`
}

// NavLinks lists the sections role may open.
func NavLinks(role string) []NavLink {
	links := []NavLink{
		{Label: "Dashboard", Href: "/dashboard"},
		{Label: "Plano", Href: "/plano"},
	}
	if role == session.RoleAdmin {
		links = append(links, NavLink{Label: "Usuarios", Href: "/usuarios"})
	}
	return links
}
