package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Shivanand-hulikatti/eventhub/internal/format"
	"github.com/Shivanand-hulikatti/eventhub/internal/model"
	"github.com/Shivanand-hulikatti/eventhub/internal/query"
)

func (m Model) View() string {
	if m.showDetail {
		return m.viewDetail()
	}

	var b strings.Builder
	b.WriteString(m.styles.title.Render("EventHub"))
	b.WriteString(m.styles.faint.Render(fmt.Sprintf("  %d of %d events", len(m.results), len(m.catalog.Events()))))
	b.WriteString("\n")
	b.WriteString(m.search.View())
	b.WriteString("\n")
	b.WriteString(m.viewFilters())
	b.WriteString("\n")
	if status := m.viewStatus(); status != "" {
		b.WriteString(status)
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(m.viewList())
	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m Model) viewFilters() string {
	chip := func(label, value string) string {
		return m.styles.faint.Render(label+": ") + m.styles.chip.Render(value)
	}
	category, location := m.state.Category, m.state.Location
	if category == query.All {
		category = "All Categories"
	}
	if location == query.All {
		location = "All Locations"
	}
	return strings.Join([]string{
		chip("Category", category),
		chip("Location", location),
		chip("Price", m.state.Price.Label()),
		chip("Sort", m.state.Sort.Label()),
	}, "  ")
}

func (m Model) viewStatus() string {
	switch {
	case m.err != nil:
		return m.styles.errText.Render("Could not load events: " + m.err.Error())
	case m.loading:
		return m.styles.faint.Render("Loading events...")
	}
	return ""
}

func (m Model) viewList() string {
	if len(m.results) == 0 {
		switch {
		case !m.catalog.Loaded():
			return ""
		case m.state.IsDefault():
			return m.styles.faint.Render("No events yet.")
		default:
			return m.styles.faint.Render("No events match your filters. Press x to clear them.")
		}
	}

	visible := max(m.height-8, 3)
	start := 0
	if m.cursor >= visible {
		start = m.cursor - visible + 1
	}
	end := min(start+visible, len(m.results))

	titleWidth := max(m.width-66, 16)
	lines := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		e := &m.results[i]
		row := fmt.Sprintf("%-10s  %-*s  %-14s  %-16s  %10s  ",
			e.Date, titleWidth, format.Truncate(e.Title, titleWidth), format.Truncate(e.Category, 14),
			format.Truncate(e.Location, 16), format.Price(e.Price))
		spots := format.Spots(e)
		if i == m.cursor {
			lines = append(lines, m.styles.selected.Render(row+spots))
			continue
		}
		if e.IsSoldOut() {
			spots = m.styles.soldOut.Render(spots)
		}
		lines = append(lines, m.styles.row.Render(row)+spots)
	}
	return strings.Join(lines, "\n")
}

func (m Model) viewDetail() string {
	event, _ := m.Selected()
	header := m.styles.title.Render(event.Title)
	footer := m.styles.faint.Render("esc back · ↑/↓ scroll")
	return lipgloss.JoinVertical(lipgloss.Left, header, m.detail.View(), footer)
}

func (m Model) renderDetail(e *model.Event) string {
	field := func(label, value string) string {
		return lipgloss.JoinHorizontal(lipgloss.Top, m.styles.label.Render(label), value)
	}

	lines := []string{}
	if e.ShortDescription != "" {
		lines = append(lines, e.ShortDescription, "")
	}
	price := format.Price(e.Price)
	if e.IsFree() {
		price = m.styles.free.Render(price)
	}
	spots := format.Spots(e)
	if e.IsSoldOut() {
		spots = m.styles.soldOut.Render(spots)
	}
	lines = append(lines,
		field("When", format.When(e.Date, e.Time)),
		field("Where", format.Place(e.Venue, e.Location)),
		field("Category", e.Category),
		field("Price", price),
		field("Attendance", fmt.Sprintf("%d / %d (%s)", e.CurrentAttendees, e.MaxAttendees, spots)),
	)
	if e.Organizer.Name != "" {
		lines = append(lines, field("Organizer", e.Organizer.Name))
	}
	if len(e.Tags) > 0 {
		lines = append(lines, field("Tags", strings.Join(e.Tags, ", ")))
	}
	if e.Image != "" {
		lines = append(lines, field("Image", m.imageURL(e.Image)))
	}
	if e.Description != "" {
		width := max(m.width-4, 20)
		lines = append(lines, "", lipgloss.NewStyle().Width(width).Render(e.Description))
	}
	lines = append(lines, "", m.styles.faint.Render(fmt.Sprintf("Attend with: eventhub events attend %s", e.ID)))
	return m.styles.box.Render(strings.Join(lines, "\n"))
}
