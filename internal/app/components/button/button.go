package button

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"

	"github.com/FACorreiaa/go-templui-session/internal/app/components/utils"
)

type Variant string
type Size string
type Type string

const (
	VariantDefault     Variant = "default"
	VariantDestructive Variant = "destructive"
	VariantOutline     Variant = "outline"
	VariantSecondary   Variant = "secondary"
	VariantGhost       Variant = "ghost"
	VariantLink        Variant = "link"
)

const (
	TypeButton Type = "button"
	TypeReset  Type = "reset"
	TypeSubmit Type = "submit"
)

const (
	SizeDefault Size = "default"
	SizeSm      Size = "sm"
	SizeLg      Size = "lg"
	SizeIcon    Size = "icon"
)

type Props struct {
	ID         string
	Class      string
	Attributes templ.Attributes
	Variant    Variant
	Size       Size
	FullWidth  bool
	Href       string
	Target     string
	Disabled   bool
	Type       Type
	// Label is written before any children.
	Label string

	HxPost      string
	HxGet       string
	HxTarget    string
	HxSwap      string
	HxIndicator string
	HxConfirm   string
}

const baseClasses = "inline-flex items-center justify-center gap-2 whitespace-nowrap rounded-md text-sm font-medium transition-all " +
	"outline-none focus-visible:border-ring focus-visible:ring-ring/50 focus-visible:ring-[3px] cursor-pointer"

func (b Props) variantClasses() string {
	switch b.Variant {
	case VariantDestructive:
		return "bg-destructive text-white shadow-xs hover:bg-destructive/90"
	case VariantOutline:
		return "border bg-background shadow-xs hover:bg-accent hover:text-accent-foreground"
	case VariantSecondary:
		return "bg-secondary text-secondary-foreground shadow-xs hover:bg-secondary/80"
	case VariantGhost:
		return "hover:bg-accent hover:text-accent-foreground"
	case VariantLink:
		return "text-primary underline-offset-4 hover:underline"
	default:
		return "bg-primary text-primary-foreground shadow-xs hover:bg-primary/90"
	}
}

func (b Props) sizeClasses() string {
	switch b.Size {
	case SizeSm:
		return "h-8 rounded-md gap-1.5 px-3"
	case SizeLg:
		return "h-10 rounded-md px-6"
	case SizeIcon:
		return "size-9"
	default:
		return "h-9 px-4 py-2"
	}
}

func (b Props) classes() string {
	return utils.TwMerge(
		baseClasses,
		b.variantClasses(),
		b.sizeClasses(),
		utils.If(b.FullWidth, "w-full"),
		utils.If(b.Disabled, "pointer-events-none opacity-50"),
		b.Class,
	)
}

func (b Props) attrs() templ.Attributes {
	attrs := templ.Attributes{}
	for k, v := range b.Attributes {
		attrs[k] = v
	}
	attrs["class"] = b.classes()
	utils.Set(attrs, map[string]string{
		"id":           b.ID,
		"hx-post":      b.HxPost,
		"hx-get":       b.HxGet,
		"hx-target":    b.HxTarget,
		"hx-swap":      b.HxSwap,
		"hx-indicator": b.HxIndicator,
		"hx-confirm":   b.HxConfirm,
	})

	if b.Href != "" && !b.Disabled {
		attrs["href"] = b.Href
		utils.Set(attrs, map[string]string{"target": b.Target})
		return attrs
	}
	if b.Href != "" {
		attrs["aria-disabled"] = "true"
		return attrs
	}

	typ := b.Type
	if typ == "" {
		typ = TypeButton
	}
	attrs["type"] = string(typ)
	if b.Disabled {
		attrs["disabled"] = true
	}
	return attrs
}

// Button renders a <button>, or an <a> when Href is set.
func Button(props ...Props) templ.Component {
	var p Props
	if len(props) > 0 {
		p = props[0]
	}
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		children := templ.GetChildren(ctx)
		ctx = templ.ClearChildren(ctx)

		tag := "button"
		if p.Href != "" {
			tag = "a"
		}
		if _, err := fmt.Fprintf(w, "<%s", tag); err != nil {
			return err
		}
		if err := utils.WriteAttrs(w, p.attrs()); err != nil {
			return err
		}
		if _, err := io.WriteString(w, ">"); err != nil {
			return err
		}
		if _, err := io.WriteString(w, templ.EscapeString(p.Label)); err != nil {
			return err
		}
		if err := children.Render(ctx, w); err != nil {
			return err
		}
		_, err := fmt.Fprintf(w, "</%s>", tag)
		return err
	})
}
