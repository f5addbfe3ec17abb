package convert

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
	"text/template"

	sprig "github.com/go-task/slim-sprig/v3"

	"idg/config"
	"idg/content"
	"idg/doc"
)

type AuthorDefinition struct {
	Name         string
	Organization string
}

// Values is a struct that holds variables we make available for template expansion
type Values struct {
	Context    string
	Title      string
	Authors    []AuthorDefinition
	Keywords   []string
	Format     string
	SourceFile string
	RenderID   string
}

func buildAuthors(authors []doc.Author) []AuthorDefinition {
	result := make([]AuthorDefinition, 0, len(authors))
	for _, a := range authors {
		if a.Name == "" {
			continue
		}
		result = append(result, AuthorDefinition{
			Name:         a.Name,
			Organization: a.Organization,
		})
	}
	return result
}

func expandTemplate(c *content.Content, name config.TemplateFieldName, field string, format config.OutputFmt) (string, error) {
	funcMap := sprig.FuncMap()

	tmpl, err := template.New(string(name)).Funcs(funcMap).Parse(field)
	if err != nil {
		return "", fmt.Errorf("unable to parse template field %s: %w", name, err)
	}

	values := Values{
		Context:    string(name),
		Title:      c.Document.Title,
		Authors:    buildAuthors(c.Document.Authors),
		Keywords:   c.Document.Keywords,
		Format:     format.String(),
		SourceFile: strings.TrimSuffix(filepath.Base(c.SrcName), filepath.Ext(c.SrcName)),
		RenderID:   c.RenderID,
	}

	buf := new(bytes.Buffer)
	if err := tmpl.Execute(buf, values); err != nil {
		return "", err
	}
	return buf.String(), nil
}
