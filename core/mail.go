package core

import (
	"bytes"
	"embed"
	"fmt"
	htmltmpl "html/template"
	"io/fs"
	"net/mail"
	"path"
	"strings"
	"sync"
	texttmpl "text/template"
)

//go:embed templates/email/*
var templateFS embed.FS

var (
	templates tmplCache
	tmplErr   error
	tmplInit  sync.Once
)

type (
	tmplCacheEntry map[string]interface{}    // {ext: *Template}
	tmplCache      map[string]tmplCacheEntry // {name: {tmplCacheEntry}}

	EmailMessage struct {
		To      []mail.Address
		Cc      []mail.Address
		Bcc     []mail.Address
		Subject string
		BodyStr string // simple text/plain, non-templated content

		// templated contents
		TemplateName string // without ext
		TemplateData interface{}
		TextContent  string
		HTMLContent  string
	}

	ContextData struct {
		FrontendBaseURL string
		Data            interface{}
	}

	// EmailService is any service that can send emails
	EmailService interface {
		// SendMessages sends messages concurrently
		SendMessages(messages ...*EmailMessage)
	}
)

func (m *EmailMessage) getTemplate(ext string) (interface{}, bool) {
	cache, ok := templates[m.TemplateName]
	if !ok {
		return nil, ok
	}
	tmplEntry, ok := cache[ext]
	return tmplEntry, ok
}

func (m *EmailMessage) renderText(data ContextData) error {
	if m.BodyStr != "" {
		m.TextContent = m.BodyStr
		return nil
	} else if m.TemplateName == "" {
		return nil
	}

	tmplEntry, ok := m.getTemplate(".txt")
	if !ok {
		return nil
	}
	tmpl, ok := tmplEntry.(*texttmpl.Template)
	if !ok {
		return nil
	}

	var buff bytes.Buffer
	if err := tmpl.Execute(&buff, data); err != nil {
		return err
	}
	m.TextContent = buff.String()
	return nil
}

func (m *EmailMessage) renderHTML(data ContextData) error {
	if m.TemplateName == "" {
		return nil
	}

	tmplEntry, ok := m.getTemplate(".gohtml")
	if !ok {
		return nil
	}
	tmpl, ok := tmplEntry.(*htmltmpl.Template)
	if !ok {
		return nil
	}

	var buff bytes.Buffer
	if err := tmpl.Execute(&buff, data); err != nil {
		return err
	}
	m.HTMLContent = buff.String()
	return nil
}

// Render fills TextContent and HTMLContent from BodyStr or the named template.
func (m *EmailMessage) Render(frontendBaseURL string) error {
	if m.TemplateName != "" {
		if err := ParseEmailTemplates(nil); err != nil {
			return err
		}
	}
	data := ContextData{FrontendBaseURL: frontendBaseURL, Data: m.TemplateData}
	if err := m.renderText(data); err != nil {
		return err
	}
	return m.renderHTML(data)
}

func (m *EmailMessage) HasRecipients() bool { return len(m.To) > 0 }
func (m *EmailMessage) HasContent() bool    { return (m.TextContent != "") || (m.HTMLContent != "") }

// ParseEmailTemplates parses the embedded email templates into the template cache.
// Only the first call parses; later calls return the first result.
func ParseEmailTemplates(logger Logger) error {
	tmplInit.Do(func() { tmplErr = parseTemplates() })
	if tmplErr != nil && logger != nil {
		logger.Error(fmt.Sprintf("core.ParseEmailTemplates: %v", tmplErr), tmplErr)
	}
	return tmplErr
}

func parseTemplates() error {
	templates = make(tmplCache)

	dir := "templates/email"
	entries, err := fs.ReadDir(templateFS, dir)
	if err != nil {
		return err
	}

	for _, e := range entries {
		fname := e.Name()
		ext := path.Ext(fname)
		if strings.HasPrefix(fname, "_") || !(ext == ".txt" || ext == ".gohtml") {
			continue
		}
		name := strings.TrimSuffix(fname, ext)
		entry, ok := templates[name]
		if !ok {
			templates[name] = make(tmplCacheEntry)
			entry = templates[name]
		}
		fp := path.Join(dir, fname)
		if ext == ".txt" {
			tmpl, err := texttmpl.ParseFS(templateFS, path.Join(dir, "_base.txt"), fp)
			if err != nil {
				return fmt.Errorf("%s: %w", fname, err)
			}
			entry[ext] = tmpl.Option("missingkey=error")
		} else {
			tmpl, err := htmltmpl.ParseFS(templateFS, path.Join(dir, "_base.gohtml"), fp)
			if err != nil {
				return fmt.Errorf("%s: %w", fname, err)
			}
			entry[ext] = tmpl.Option("missingkey=error")
		}
	}
	return nil
}
