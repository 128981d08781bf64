package view

import (
	"fmt"
	"html/template"
	"io"
	"io/fs"
)

const baseFilename = "base.html"

// View is a collection of templates used to render a page. Every
// view has an unique name.
//
// A view combines the following templates:
// - base.html (required)
// - {name}.html (optional)
// - partials/*.html (optional)
type View struct {
	name     string
	template *template.Template
}

// Parse parses the file system and returns a view for the given name.
func Parse(viewFS fs.FS, name string) (*View, error) {
	// View names are generally hardcoded, but if user input ever ends
	// up here we don't want it to walk the filesystem.
	if err := validateName(name); err != nil {
		return nil, err
	}

	files := []string{
		baseFilename,
	}

	if name != baseFilename && name != "base" && name != "" {
		files = append(files, fmt.Sprintf("%s.html", name))
	}

	partials, err := fs.Glob(viewFS, "partials/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to glob for partials: %w", err)
	}

	files = append(files, partials...)

	templ, err := template.New(baseFilename).ParseFS(viewFS, files...)
	if err != nil {
		return nil, fmt.Errorf("failed to parse view: %w", err)
	}

	return &View{
		name:     name,
		template: templ,
	}, nil
}

// Render renders data using the view and writes the result to w.
func (v *View) Render(w io.Writer, data any) error {
	return v.template.Execute(w, data)
}

// validateName checks if all characters are alphanumeric, dashes or underscores.
func validateName(name string) error {
	for _, c := range name {
		if !validViewRune(c) {
			return fmt.Errorf("invalid character %v in view name: %s", c, name)
		}
	}
	return nil
}

func validViewRune(r rune) bool {
	return r == '-' || r == '_' ||
		(r >= 'a' && r <= 'z') ||
		(r >= 'A' && r <= 'Z') ||
		(r >= '0' && r <= '9')
}
