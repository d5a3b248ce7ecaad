package models

import (
	"github.com/a-h/templ"

	"github.com/FACorreiaa/go-templui-session/internal/app/domain/auth"
)

type NavItem struct {
	Name string
	URL  string
}

type Navigation struct {
	Items []NavItem
}

type LayoutTempl struct {
	Title     string
	Session   auth.State
	Nav       Navigation
	ActiveNav string
	Content   templ.Component
}

var MainNav = Navigation{
	Items: []NavItem{
		{Name: "Home", URL: "/"},
		{Name: "Session", URL: "/auth/session"},
	},
}

var OfflineNav = Navigation{
	Items: []NavItem{
		{Name: "Home", URL: "/"},
	},
}

// NavFor picks the navigation for the visitor's session.
func NavFor(st auth.State) Navigation {
	if st.IsAuthenticated {
		return MainNav
	}
	return OfflineNav
}
