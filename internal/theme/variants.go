package theme

import (
	"embed"
	"fmt"
	"html/template"
	"io"

	"github.com/suteetoe/vitrin/internal/capability"
)

//go:embed templates/*.html
var templateFS embed.FS

// htmlVariant renders a page with its own template family.
type htmlVariant struct {
	desc Descriptor
	file string
	tmpl *template.Template
}

func newHTMLVariant(desc Descriptor) *htmlVariant {
	file := desc.Key + ".html"
	tmpl := template.Must(template.New(file).ParseFS(templateFS, "templates/"+file))
	return &htmlVariant{desc: desc, file: file, tmpl: tmpl}
}

func (v *htmlVariant) Key() string { return v.desc.Key }

func (v *htmlVariant) Descriptor() Descriptor {
	d := v.desc
	d.Required = append([]string(nil), v.desc.Required...)
	d.Categories = append([]string(nil), v.desc.Categories...)
	return d
}

func (v *htmlVariant) Render(w io.Writer, page *Page) error {
	if page == nil {
		return fmt.Errorf("render %s: nil page", v.desc.Key)
	}
	if err := v.tmpl.ExecuteTemplate(w, v.file, page); err != nil {
		return fmt.Errorf("render %s: %w", v.desc.Key, err)
	}
	return nil
}

func builtins() []Variant {
	return []Variant{
		newHTMLVariant(Descriptor{
			Key:         MinimalCafe,
			Name:        "Minimal Cafe",
			Description: "Clean card grid with category tabs and search",
			Required:    []string{capability.Menu, capability.Order},
			Categories:  []string{"cafe", "restaurant"},
		}),
		newHTMLVariant(Descriptor{
			Key:         ModernRestaurant,
			Name:        "Modern Restaurant",
			Description: "Full-width hero with menu sections and an order summary",
			Required:    []string{capability.Menu},
			Categories:  []string{"restaurant"},
		}),
		newHTMLVariant(Descriptor{
			Key:         TraditionalPersian,
			Name:        "Traditional Persian",
			Description: "Right-to-left ornamented menu book",
			Required:    []string{capability.Menu},
			Categories:  []string{"restaurant", "cafe", "traditional"},
		}),
	}
}
