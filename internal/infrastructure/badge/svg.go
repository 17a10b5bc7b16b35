// Package badge draws shields-style SVG coverage badges.
package badge

import (
	"fmt"
	"html/template"
	"io"
	"strconv"

	"github.com/felixgeelhaar/covreport/internal/application"
	"github.com/felixgeelhaar/covreport/internal/domain"
)

type Style string

const (
	StyleFlat       Style = "flat"
	StyleFlatSquare Style = "flat-square"
)

const svgTemplate = `<svg xmlns="http://www.w3.org/2000/svg" xmlns:xlink="http://www.w3.org/1999/xlink" width="{{.Width}}" height="20" role="img" aria-label="{{.Label}}: {{.PercentText}}">
  <title>{{.Label}}: {{.PercentText}}</title>
  <linearGradient id="s" x2="0" y2="100%">
    <stop offset="0" stop-color="#bbb" stop-opacity=".1"/>
    <stop offset="1" stop-opacity=".1"/>
  </linearGradient>
  <clipPath id="r">
    <rect width="{{.Width}}" height="20" rx="{{.Rx}}" fill="#fff"/>
  </clipPath>
  <g clip-path="url(#r)">
    <rect width="{{.LabelWidth}}" height="20" fill="#555"/>
    <rect x="{{.LabelWidth}}" width="{{.ValueWidth}}" height="20" fill="{{.Color}}"/>
    <rect width="{{.Width}}" height="20" fill="url(#s)"/>
  </g>
  <g fill="#fff" text-anchor="middle" font-family="Verdana,Geneva,DejaVu Sans,sans-serif" text-rendering="geometricPrecision" font-size="110">
    <text aria-hidden="true" x="{{.LabelX}}" y="150" fill="#010101" fill-opacity=".3" transform="scale(.1)" textLength="{{.LabelTextWidth}}">{{.Label}}</text>
    <text x="{{.LabelX}}" y="140" transform="scale(.1)" fill="#fff" textLength="{{.LabelTextWidth}}">{{.Label}}</text>
    <text aria-hidden="true" x="{{.ValueX}}" y="150" fill="#010101" fill-opacity=".3" transform="scale(.1)" textLength="{{.ValueTextWidth}}">{{.PercentText}}</text>
    <text x="{{.ValueX}}" y="140" transform="scale(.1)" fill="#fff" textLength="{{.ValueTextWidth}}">{{.PercentText}}</text>
  </g>
</svg>`

var badgeTmpl = template.Must(template.New("badge").Parse(svgTemplate))

type templateData struct {
	Label          string
	PercentText    string
	Color          string
	Width          int
	LabelWidth     int
	ValueWidth     int
	LabelX         int
	ValueX         int
	LabelTextWidth int
	ValueTextWidth int
	Rx             int
}

// Writer implements application.BadgeWriter.
type Writer struct{}

func (Writer) WriteBadge(w io.Writer, badge application.BadgeResult, style string) error {
	s := Style(style)
	switch s {
	case "":
		s = StyleFlat
	case StyleFlat, StyleFlatSquare:
	default:
		return fmt.Errorf("unsupported badge style: %s", style)
	}

	label := badge.Label
	if label == "" {
		label = "coverage"
	}
	percentText := formatPercent(badge.Percent)

	// ~7px per character plus padding
	labelWidth := len(label)*7 + 10
	valueWidth := len(percentText)*7 + 10

	rx := 3
	if s == StyleFlatSquare {
		rx = 0
	}

	data := templateData{
		Label:          label,
		PercentText:    percentText,
		Color:          colorForStatus(badge.Status),
		Width:          labelWidth + valueWidth,
		LabelWidth:     labelWidth,
		ValueWidth:     valueWidth,
		LabelX:         labelWidth * 5, // text is drawn at scale(.1)
		ValueX:         (labelWidth*2 + valueWidth) * 5,
		LabelTextWidth: len(label) * 70,
		ValueTextWidth: len(percentText) * 70,
		Rx:             rx,
	}
	return badgeTmpl.Execute(w, data)
}

func formatPercent(p float64) string {
	return strconv.FormatFloat(p, 'f', -1, 64) + "%"
}

func colorForStatus(s domain.Status) string {
	switch s {
	case domain.StatusPass:
		return "#4c1"
	case domain.StatusWarn:
		return "#dfb317"
	default:
		return "#e05d44"
	}
}
