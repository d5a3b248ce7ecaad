// Package pages holds the full-page and fragment components of the web shell.
package pages

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"

	"github.com/FACorreiaa/go-templui-session/internal/app/components/logo"
	"github.com/FACorreiaa/go-templui-session/internal/app/models"
)

// htmxConfig lets error responses swap in their banners.
const htmxConfig = `{"responseHandling":[{"code":"204","swap":false},{"code":"[23]..","swap":true},{"code":"[45]..","swap":true,"error":true}]}`

// writer keeps the first write error so page bodies read top to bottom.
type writer struct {
	w   io.Writer
	ctx context.Context
	err error
}

func (pw *writer) printf(format string, args ...any) {
	if pw.err != nil {
		return
	}
	_, pw.err = fmt.Fprintf(pw.w, format, args...)
}

func (pw *writer) text(s string) {
	pw.printf("%s", templ.EscapeString(s))
}

func (pw *writer) render(c templ.Component) {
	if pw.err != nil || c == nil {
		return
	}
	pw.err = c.Render(pw.ctx, pw.w)
}

func LayoutPage(data models.LayoutTempl) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		pw := &writer{w: w, ctx: ctx}
		pw.printf(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8">`)
		pw.printf(`<meta name="viewport" content="width=device-width, initial-scale=1">`)
		pw.printf(`<meta name="htmx-config" content="%s">`, templ.EscapeString(htmxConfig))
		pw.printf(`<title>`)
		pw.text(data.Title)
		pw.printf(`</title>`)
		pw.printf(`<script src="https://unpkg.com/htmx.org@2.0.4"></script>`)
		pw.printf(`<script src="https://cdn.jsdelivr.net/npm/@tailwindcss/browser@4"></script>`)
		pw.printf(`</head><body class="min-h-screen bg-background text-foreground" hx-boost="true">`)

		pw.printf(`<header class="border-b"><div class="mx-auto flex max-w-3xl items-center justify-between px-4 py-3">`)
		pw.render(logo.Logo(logo.Props{ID: "brand"}))
		pw.printf(`<nav class="flex gap-4 text-sm">`)
		for _, item := range data.Nav.Items {
			class := "text-muted-foreground hover:text-foreground"
			if item.Name == data.ActiveNav {
				class = "font-medium text-foreground"
			}
			pw.printf(`<a href="%s" class="%s">`, templ.EscapeString(item.URL), class)
			pw.text(item.Name)
			pw.printf(`</a>`)
		}
		pw.printf(`</nav></div></header>`)

		pw.printf(`<main class="mx-auto max-w-3xl px-4 py-10">`)
		pw.render(data.Content)
		pw.printf(`</main></body></html>`)
		return pw.err
	})
}
