package pager

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
)

// Element selectors the rendered fragment carries.
const (
	TableElementID     = "request-responses-table"
	LoadMoreClass      = "load-more-responses"
	loadMoreButtonText = "Load more"
)

var tableTemplate = template.Must(template.New("table").Parse(
	`<table class="table"> <tbody>{{range .Items}}<tr> <td>{{.}}<button style="float: right;" type="button" class="btn btn-secondary btn-sm">Edit</button> </td> </tr>{{end}}</tbody> </table>`,
))

var fragmentTemplate = template.Must(template.New("fragment").Parse(
	`<div id="` + TableElementID + `">{{.Table}}</div>` + "\n" +
		`<div class="` + LoadMoreClass + `"{{if not .LoadMoreVisible}} style="display: none;"{{end}}>` +
		`<button type="button" class="btn btn-primary">` + loadMoreButtonText + `</button></div>`,
))

// RenderHTML writes the table markup for w. Each row carries an inert Edit button.
func RenderHTML(out io.Writer, w Window) error {
	if err := tableTemplate.Execute(out, w); err != nil {
		return fmt.Errorf("render table: %w", err)
	}
	return nil
}

// Markup returns the table markup for w.
func Markup(w Window) (template.HTML, error) {
	var buf bytes.Buffer
	if err := RenderHTML(&buf, w); err != nil {
		return "", err
	}
	// Items were escaped by the template.
	return template.HTML(buf.String()), nil
}

type fragmentData struct {
	Table           template.HTML
	LoadMoreVisible bool
}

func renderFragment(out io.Writer, table template.HTML, loadMoreVisible bool) error {
	if err := fragmentTemplate.Execute(out, fragmentData{Table: table, LoadMoreVisible: loadMoreVisible}); err != nil {
		return fmt.Errorf("render fragment: %w", err)
	}
	return nil
}
