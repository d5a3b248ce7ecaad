package logo

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"

	"github.com/FACorreiaa/go-templui-session/internal/app/components/utils"
)

type Size string

const (
	SizeSm Size = "sm"
	SizeMd Size = "md"
	SizeLg Size = "lg"
)

type Props struct {
	ID    string
	Class string
	// Href defaults to "/".
	Href string
	Size Size
	// Wordmark defaults to "Loci".
	Wordmark string
	IconOnly bool
}

const glyph = `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 24 24" fill="none" stroke="currentColor" ` +
	`stroke-width="2" stroke-linecap="round" stroke-linejoin="round" aria-hidden="true" class="%s">` +
	`<path d="M20 10c0 6-8 12-8 12s-8-6-8-12a8 8 0 0 1 16 0Z"></path><circle cx="12" cy="10" r="3"></circle></svg>`

func (p Props) iconClasses() string {
	switch p.Size {
	case SizeSm:
		return "size-5 text-primary"
	case SizeLg:
		return "size-10 text-primary"
	default:
		return "size-7 text-primary"
	}
}

func (p Props) textClasses() string {
	switch p.Size {
	case SizeSm:
		return "text-base font-semibold tracking-tight"
	case SizeLg:
		return "text-3xl font-bold tracking-tight"
	default:
		return "text-xl font-bold tracking-tight"
	}
}

// Logo renders the brand mark as a link home.
func Logo(props ...Props) templ.Component {
	var p Props
	if len(props) > 0 {
		p = props[0]
	}
	if p.Href == "" {
		p.Href = "/"
	}
	if p.Wordmark == "" {
		p.Wordmark = "Loci"
	}

	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		attrs := templ.Attributes{
			"href":       p.Href,
			"class":      utils.TwMerge("inline-flex items-center gap-2 text-foreground no-underline", p.Class),
			"aria-label": p.Wordmark + " home",
		}
		utils.Set(attrs, map[string]string{"id": p.ID})

		if _, err := io.WriteString(w, "<a"); err != nil {
			return err
		}
		if err := utils.WriteAttrs(w, attrs); err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, ">"+glyph, p.iconClasses()); err != nil {
			return err
		}
		if !p.IconOnly {
			if _, err := fmt.Fprintf(w, `<span class="%s">%s</span>`, p.textClasses(), templ.EscapeString(p.Wordmark)); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, "</a>")
		return err
	})
}
