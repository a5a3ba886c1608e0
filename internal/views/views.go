// Package views renders the pages. Templates are embedded html/template
// files sharing one layout; each page is handed to handlers as a
// templ.Component.
package views

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"path"
	"strings"

	"github.com/a-h/templ"

	"github.com/medilabo/webapp/internal/model"
	"github.com/medilabo/webapp/internal/urls"
	"github.com/medilabo/webapp/pkg/sanitizer"
)

var (
	//go:embed templates
	templatesFS embed.FS

	// Assets holds the stylesheet served under urls.Static.
	//
	//go:embed static
	Assets embed.FS
)

var ErrUnknownPage = errors.New("views: unknown page")

const layoutFile = "templates/layout.html"

// Pages holds the parsed templates. It is safe for concurrent use.
type Pages struct {
	templates map[string]*template.Template
}

// New parses every page against the layout.
func New() (*Pages, error) {
	md := sanitizer.NewMarkdown()
	funcs := template.FuncMap{
		"markdown":  func(s string) template.HTML { return template.HTML(md.Render(s)) }, //nolint:gosec // sanitized
		"datetime":  FormatDateTime,
		"timestamp": FormatTimestamp,
		"birthdate": FormatBirthDate,
		"genders":   func() []model.Gender { return []model.Gender{model.GenderMale, model.GenderFemale} },
		"roles":     func() []model.Role { return []model.Role{model.RoleUser, model.RoleAdmin} },
		"roleLabel": RoleLabel,
		"excerpt":   excerpt,

		"patientURL":       urls.Patient,
		"patientUpdateURL": urls.PatientUpdate,
		"patientDeleteURL": urls.PatientDelete,
		"notesURL":         urls.Notes,
		"noteURL":          urls.Note,
		"noteCreateURL":    urls.NoteCreate,
		"noteUpdateURL":    urls.NoteUpdate,
		"noteDeleteURL":    urls.NoteDelete,
		"userURL":          urls.User,
		"userUpdateURL":    urls.UserUpdate,
		"userDeleteURL":    urls.UserDelete,
		"userResetURL":     urls.UserResetPwd,
	}

	files, err := fs.Glob(templatesFS, "templates/*.html")
	if err != nil {
		return nil, err
	}

	p := &Pages{templates: make(map[string]*template.Template, len(files))}
	for _, f := range files {
		if f == layoutFile {
			continue
		}
		name := strings.TrimSuffix(path.Base(f), ".html")
		t, err := template.New(name).Funcs(funcs).ParseFS(templatesFS, layoutFile, f)
		if err != nil {
			return nil, fmt.Errorf("views: parse %s: %w", name, err)
		}
		p.templates[name] = t
	}
	return p, nil
}

type view struct {
	Layout
	Data any
}

func (p *Pages) render(name string, l Layout, data any) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		t, ok := p.templates[name]
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownPage, name)
		}
		return t.ExecuteTemplate(w, "layout", view{Layout: l, Data: data})
	})
}
