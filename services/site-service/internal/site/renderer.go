// Package site renders the public microsite of an approved business, served
// either on its own subdomain or under /{slug}.
package site

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/md-rashed-zaman/bizsites/services/site-service/internal/model"
)

//go:embed templates/*.html
var templateFS embed.FS

var weekOrder = []string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"}

type HoursRow struct {
	Day   string
	Open  bool
	Start string
	End   string
}

type Page struct {
	Business model.Business
	Hours    []HoursRow
	SlotsURL string
	BookURL  string
	Year     int
}

type Renderer struct {
	tmpl *template.Template
	now  func() time.Time
}

func NewRenderer() (*Renderer, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/site.html")
	if err != nil {
		return nil, fmt.Errorf("parse site template: %w", err)
	}
	return &Renderer{tmpl: tmpl, now: time.Now}, nil
}

// PageFor assembles the view model for b. Booking URLs are root-relative so
// they work on both the subdomain and the subdirectory form.
func (r *Renderer) PageFor(b model.Business) Page {
	id := strconv.FormatInt(b.ID, 10)
	rows := make([]HoursRow, 0, len(weekOrder))
	for _, day := range weekOrder {
		dh := b.BusinessHours[day]
		rows = append(rows, HoursRow{
			Day:   strings.ToUpper(day[:1]) + day[1:],
			Open:  dh.Open,
			Start: dh.Start,
			End:   dh.End,
		})
	}
	return Page{
		Business: b,
		Hours:    rows,
		SlotsURL: "/appointments/business/" + id + "/available-slots",
		BookURL:  "/appointments/business/" + id,
		Year:     r.now().Year(),
	}
}

// Render writes the page to w. The template is executed into a buffer first
// so a failure never leaves a half-written response.
func (r *Renderer) Render(w io.Writer, b model.Business) error {
	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, "site.html", r.PageFor(b)); err != nil {
		return fmt.Errorf("render site %q: %w", b.Slug, err)
	}
	_, err := buf.WriteTo(w)
	return err
}
