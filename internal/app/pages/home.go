package pages

import (
	"context"
	"fmt"
	"io"
	"maps"
	"slices"

	"github.com/a-h/templ"

	"github.com/FACorreiaa/go-templui-session/internal/app/components/button"
	"github.com/FACorreiaa/go-templui-session/internal/app/components/logo"
	"github.com/FACorreiaa/go-templui-session/internal/app/domain/auth"
)

// HomePage shows the session card: a login form for guests, the account
// details and a logout button once signed in.
func HomePage(st auth.State) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		pw := &writer{w: w, ctx: ctx}
		pw.printf(`<section class="flex flex-col items-center gap-8">`)
		pw.render(logo.Logo(logo.Props{Size: logo.SizeLg, ID: "hero-logo"}))
		pw.printf(`<div id="session-card" class="w-full max-w-md rounded-xl border bg-card p-6 shadow-sm">`)
		switch {
		case st.IsLoading:
			pw.printf(`<p class="text-muted-foreground" aria-busy="true">Checking your session…</p>`)
		case st.IsAuthenticated:
			pw.render(SessionDetails(st))
		default:
			pw.render(LoginForm())
		}
		pw.printf(`</div></section>`)
		return pw.err
	})
}

// SessionDetails renders the signed-in user and the logout control.
func SessionDetails(st auth.State) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		pw := &writer{w: w, ctx: ctx}
		u := st.User
		if u == nil {
			return nil
		}
		pw.printf(`<div class="flex items-center justify-between gap-4"><div>`)
		pw.printf(`<h1 class="text-lg font-semibold">Signed in as <span id="display-name">`)
		pw.text(u.DisplayName())
		pw.printf(`</span></h1>`)
		if u.Email != "" {
			pw.printf(`<p class="text-sm text-muted-foreground">`)
			pw.text(u.Email)
			pw.printf(`</p>`)
		}
		pw.printf(`</div>`)
		if label := u.Role.Label(); label != "" {
			badge := "bg-secondary text-secondary-foreground"
			if st.IsAdmin {
				badge = "bg-primary text-primary-foreground"
			}
			pw.printf(`<span id="role-badge" class="rounded-full px-2.5 py-0.5 text-xs font-medium %s">`, badge)
			pw.text(label)
			pw.printf(`</span>`)
		}
		pw.printf(`</div>`)

		if len(st.Member) > 0 {
			pw.printf(`<dl id="membership" class="mt-4 grid grid-cols-2 gap-2 text-sm">`)
			for _, k := range slices.Sorted(maps.Keys(st.Member)) {
				pw.printf(`<dt class="text-muted-foreground">`)
				pw.text(k)
				pw.printf(`</dt><dd>`)
				pw.text(fmt.Sprint(st.Member[k]))
				pw.printf(`</dd>`)
			}
			pw.printf(`</dl>`)
		}
		if st.IsAdmin {
			pw.printf(`<p id="admin-note" class="mt-4 text-sm">You have administrator access.</p>`)
		}

		pw.printf(`<div id="session-error" class="mt-4"></div>`)
		pw.render(button.Button(button.Props{
			ID:        "logout",
			Variant:   button.VariantOutline,
			Class:     "mt-4",
			FullWidth: true,
			Disabled:  st.IsLoggingOut,
			HxPost:    "/auth/logout",
			HxTarget:  "#session-error",
			HxSwap:    "innerHTML",
			Label:     "Sign out",
		}))
		return pw.err
	})
}

// LoginForm posts credentials to /auth/login. Failures land in #login-error.
func LoginForm() templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		pw := &writer{w: w, ctx: ctx}
		pw.printf(`<form id="login-form" hx-post="/auth/login" hx-target="#login-error" hx-swap="innerHTML" class="flex flex-col gap-4">`)
		pw.printf(`<h1 class="text-lg font-semibold">Sign in</h1>`)
		pw.printf(`<div id="login-error"></div>`)
		for _, f := range []struct{ name, label, typ, autocomplete string }{
			{"username", "Username", "text", "username"},
			{"password", "Password", "password", "current-password"},
		} {
			pw.printf(`<label class="flex flex-col gap-1 text-sm" for="%[1]s">%[2]s`+
				`<input id="%[1]s" name="%[1]s" type="%[3]s" autocomplete="%[4]s" required `+
				`class="h-9 rounded-md border bg-transparent px-3"></label>`, f.name, f.label, f.typ, f.autocomplete)
		}
		pw.render(button.Button(button.Props{
			ID:        "login",
			Type:      button.TypeSubmit,
			FullWidth: true,
			Label:     "Sign in",
		}))
		pw.printf(`</form>`)
		return pw.err
	})
}
