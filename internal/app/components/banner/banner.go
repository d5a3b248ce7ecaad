package banner

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/a-h/templ"

	"github.com/FACorreiaa/go-templui-session/internal/app/components/button"
	"github.com/FACorreiaa/go-templui-session/internal/app/components/utils"
)

type BannerType string

const (
	BannerError   BannerType = "error"
	BannerSuccess BannerType = "success"
	BannerInfo    BannerType = "info"
)

type BannerProps struct {
	ID          string
	Type        BannerType
	Message     string
	Description string
	Dismissable bool
	// AutoDismiss is a delay in seconds; zero keeps the banner.
	AutoDismiss int
}

func (p BannerProps) classes() string {
	base := "rounded-md border px-4 py-3 text-sm flex items-start justify-between gap-4"
	switch p.Type {
	case BannerError:
		return utils.TwMerge(base, "border-destructive/50 bg-destructive/10 text-destructive")
	case BannerSuccess:
		return utils.TwMerge(base, "border-green-500/50 bg-green-50 text-green-700")
	default:
		return utils.TwMerge(base, "border-border bg-muted text-foreground")
	}
}

// Banner renders an inline alert, used for HTMX error fragments.
func Banner(p BannerProps) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		attrs := templ.Attributes{
			"role":  "alert",
			"class": p.classes(),
		}
		utils.Set(attrs, map[string]string{"id": p.ID, "data-banner-type": string(p.Type)})
		if p.AutoDismiss > 0 {
			attrs["data-auto-dismiss"] = strconv.Itoa(p.AutoDismiss)
		}

		if _, err := io.WriteString(w, "<div"); err != nil {
			return err
		}
		if err := utils.WriteAttrs(w, attrs); err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, `><div><p class="font-medium">%s</p>`, templ.EscapeString(p.Message)); err != nil {
			return err
		}
		if p.Description != "" {
			if _, err := fmt.Fprintf(w, `<p class="mt-1 opacity-80">%s</p>`, templ.EscapeString(p.Description)); err != nil {
				return err
			}
		}
		if _, err := io.WriteString(w, "</div>"); err != nil {
			return err
		}
		if p.Dismissable {
			dismiss := button.Button(button.Props{
				Variant: button.VariantGhost,
				Size:    button.SizeIcon,
				Class:   "size-6",
				Label:   "×",
				Attributes: templ.Attributes{
					"aria-label": "Dismiss",
					"onclick":    "this.closest('[role=alert]').remove()",
				},
			})
			if err := dismiss.Render(ctx, w); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, "</div>")
		return err
	})
}
