package web

import (
	"fmt"
	"html"
	"html/template"
	"net/http"
	"strings"

	appLog "jaincal/internal/log"
	"jaincal/internal/model"
	"jaincal/internal/panchang"
)

// Dial geometry in SVG user units.
const (
	dialWidth  = 400
	dialHeight = 230
	dialRadius = 170
)

var dialCenter = panchang.Point{X: dialWidth / 2, Y: 200}

// renderDial draws the sunrise-to-sunset semicircle with the Pachhakkhan
// boundaries, the active window highlighted and a needle at now. Without a
// dial (sunrise or sunset unknown) only the empty arc and placeholders are
// drawn.
func renderDial(s panchang.Snapshot) string {
	var b strings.Builder
	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %d %d" width="%d" height="%d" font-family="sans-serif">`,
		dialWidth, dialHeight, dialWidth, dialHeight)
	b.WriteString(`<rect width="100%" height="100%" fill="#fff"/>`)
	fmt.Fprintf(&b, `<path d="%s" fill="none" stroke="#ccc" stroke-width="14"/>`, arcPath(180, 0, dialRadius))

	sunrise := panchang.FormatOptional(s.Sunrise)
	sunset := panchang.FormatOptional(s.Sunset)

	if d := s.Dial; d != nil {
		if iv, ok := s.ActivePachhakkhanInterval(); ok {
			from := panchang.AngleForMinute(iv.StartMinute, d.SpanStart, d.SpanEnd)
			to := panchang.AngleForMinute(iv.EndMinute, d.SpanStart, d.SpanEnd)
			if from > to {
				fmt.Fprintf(&b, `<path class="active" d="%s" fill="none" stroke="#e8a33d" stroke-width="14"/>`, arcPath(from, to, dialRadius))
			}
		}
		for _, p := range d.Boundaries {
			in := panchang.AngleToPoint(p.AngleDegrees, dialRadius-12, dialCenter)
			out := panchang.AngleToPoint(p.AngleDegrees, dialRadius+10, dialCenter)
			fmt.Fprintf(&b, `<line class="boundary" x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" stroke="#555" stroke-width="2"/>`, in.X, in.Y, out.X, out.Y)
		}
		if s.Phase == panchang.PhaseDay {
			tip := panchang.AngleToPoint(d.Now.AngleDegrees, dialRadius-24, dialCenter)
			fmt.Fprintf(&b, `<line class="needle" x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" stroke="#b3261e" stroke-width="3"/>`,
				dialCenter.X, dialCenter.Y, tip.X, tip.Y)
		}
	}

	fmt.Fprintf(&b, `<text x="%d" y="%d" font-size="14">%s</text>`, 8, dialHeight-8, html.EscapeString(sunrise))
	fmt.Fprintf(&b, `<text x="%d" y="%d" font-size="14" text-anchor="end">%s</text>`, dialWidth-8, dialHeight-8, html.EscapeString(sunset))

	label := "--"
	if iv, ok := s.ActivePachhakkhanInterval(); ok {
		label = iv.Label
	}
	fmt.Fprintf(&b, `<text x="%.0f" y="%.0f" font-size="18" text-anchor="middle">%s</text>`, dialCenter.X, dialCenter.Y-40, html.EscapeString(label))
	fmt.Fprintf(&b, `<text x="%.0f" y="%.0f" font-size="14" text-anchor="middle">%s</text>`, dialCenter.X, dialCenter.Y-16, html.EscapeString(s.Now.Format12()))
	b.WriteString(`</svg>`)
	return b.String()
}

// arcPath is an SVG path along the dial from angle from to angle to, in
// degrees, clockwise on screen.
func arcPath(from, to, radius float64) string {
	a := panchang.AngleToPoint(from, radius, dialCenter)
	z := panchang.AngleToPoint(to, radius, dialCenter)
	return fmt.Sprintf("M %.1f %.1f A %.0f %.0f 0 0 1 %.1f %.1f", a.X, a.Y, radius, radius, z.X, z.Y)
}

func (s *Server) handleDial(w http.ResponseWriter, r *http.Request) {
	date, now, ok := s.dayFromRequest(w, r)
	if !ok {
		return
	}
	snap, err := s.evaluate(r.Context(), date, s.language(r), now)
	if err != nil {
		appLog.Error("dial.svg: dashboard load failed", err, "date", date.Format(model.DateLayout))
		writeError(w, http.StatusBadGateway, "content source unavailable")
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Cache-Control", "no-cache")
	_, _ = w.Write([]byte(renderDial(snap)))
}

var widgetTmpl = template.Must(template.New("widget").Parse(`<!doctype html>
<html><head><meta charset="utf-8"><title>{{.Location}}</title>
<style>body{margin:0;font-family:sans-serif}.row{display:flex;justify-content:space-between;padding:2px 8px;font-size:14px}.auspicious{color:#1b6e20}.inauspicious{color:#b3261e}</style>
</head><body>
<div data-ready="true" style="width:{{.Width}}px;height:{{.Height}}px;overflow:hidden">
{{.Dial}}
<div class="row"><span>{{.Location}} {{.Date}}</span><span class="{{.SlotCategory}}">{{.Slot}}</span></div>
</div>
</body></html>
`))

type widgetView struct {
	Location     string
	Date         string
	Width        int
	Height       int
	Dial         template.HTML
	Slot         string
	SlotCategory string
}

// handleWidget serves the page captured into widget.png: the dial and the
// active Choghadiya slot.
func (s *Server) handleWidget(w http.ResponseWriter, r *http.Request) {
	date, now, ok := s.dayFromRequest(w, r)
	if !ok {
		return
	}
	snap, err := s.evaluate(r.Context(), date, s.language(r), now)
	if err != nil {
		appLog.Error("widget: dashboard load failed", err, "date", date.Format(model.DateLayout))
		writeError(w, http.StatusBadGateway, "content source unavailable")
		return
	}

	view := widgetView{
		Location: s.cfg.Location.Name,
		Date:     date.Format(model.DateLayout),
		Width:    s.cfg.Widget.Width,
		Height:   s.cfg.Widget.Height,
		// renderDial escapes every label it draws.
		Dial: template.HTML(renderDial(snap)),
		Slot: panchang.Placeholder,
	}
	if slot, ok := snap.ActiveChoghadiyaSlot(); ok {
		view.Slot = slot.Label + " " + slot.TimeRange
		view.SlotCategory = string(slot.Category)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := widgetTmpl.Execute(w, view); err != nil {
		appLog.Error("widget: template failed", err)
	}
}
