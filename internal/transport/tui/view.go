package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/sandevgo/storedash/internal/core"
)

const offlineBanner = "using offline estimates"

var (
	titleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Bold(true)
	itemStyle    = lipgloss.NewStyle().PaddingLeft(2)
	selStyle     = lipgloss.NewStyle().PaddingLeft(2).Foreground(lipgloss.Color("5"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	badgeStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("0")).Background(lipgloss.Color("6")).Padding(0, 1)
	bannerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("0")).Background(lipgloss.Color("3")).Padding(0, 1)
	panelStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("8")).Padding(0, 1)
	focusedPanel = panelStyle.BorderForeground(lipgloss.Color("5"))
)

func (m model) View() string {
	var b strings.Builder

	b.WriteString(m.headerView())
	b.WriteString("\n")
	b.WriteString(m.search.View())
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(m.filterLine()))
	b.WriteString("\n")

	right := lipgloss.JoinVertical(lipgloss.Left, m.cartView(), m.predictionsView())
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, m.catalogView(), right))
	b.WriteString("\n")

	if m.status != "" {
		b.WriteString(dimStyle.Render(m.status))
		b.WriteString("\n")
	}
	b.WriteString(dimStyle.Render("tab panel · / search · d dept · l aisle · c clear · a add · +/- qty · x remove · p predict · q quit"))
	return b.String()
}

func (m model) headerView() string {
	parts := []string{
		titleStyle.Render(core.AppName),
		badgeStyle.Render(fmt.Sprintf("cart %d", m.snap.ItemCount)),
	}
	if m.offline() {
		parts = append(parts, bannerStyle.Render(offlineBanner))
	}
	return strings.Join(parts, " ")
}

// offline reports whether the last predictions or catalog page came from the
// local fallback.
func (m model) offline() bool {
	return m.snap.Offline || m.state.Offline
}

func (m model) filterLine() string {
	dept, aisle := "all", "all"
	if m.filter.Department != "" {
		dept = m.filter.Department
	}
	if m.filter.Aisle != "" {
		aisle = m.filter.Aisle
	}
	return fmt.Sprintf("department: %s · aisle: %s", dept, aisle)
}

func (m model) catalogView() string {
	var b strings.Builder
	st := m.state

	b.WriteString(titleStyle.Render("Catalog"))
	b.WriteString("\n")

	h := m.listHeight()
	end := min(m.offset+h, len(st.Products))
	for i := m.offset; i < end; i++ {
		p := st.Products[i]
		line := fmt.Sprintf("%-32s %s", truncate(p.Name, 32), dimStyle.Render(p.Aisle))
		if i == m.cursor && m.focus == focusCatalog {
			b.WriteString(selStyle.Render("> " + line))
		} else {
			b.WriteString(itemStyle.Render(line))
		}
		b.WriteString("\n")
	}

	switch {
	case st.Loading():
		b.WriteString(m.spinner.View() + " loading")
	case len(st.Products) == 0 && st.Exhausted():
		b.WriteString(dimStyle.Render("no products match"))
	case st.Exhausted():
		b.WriteString(dimStyle.Render(fmt.Sprintf("Showing %d of %d products · no more products", len(st.Products), st.Total)))
	default:
		b.WriteString(dimStyle.Render(fmt.Sprintf("Showing %d of %d products", len(st.Products), st.Total)))
	}
	if st.LastError != "" {
		b.WriteString("\n")
		b.WriteString(errorStyle.Render(truncate(st.LastError, 60)))
	}

	return m.panel(focusCatalog, 56).Render(b.String())
}

func (m model) cartView() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("Cart (%d items)", m.snap.ItemCount)))
	b.WriteString("\n")

	if len(m.snap.Cart) == 0 {
		b.WriteString(dimStyle.Render("empty"))
	}
	for i, line := range m.snap.Cart {
		name := line.Name
		if name == "" {
			name = "Product #" + line.ProductID
		}
		row := fmt.Sprintf("%-24s x%d", truncate(name, 24), line.Quantity)
		if i == m.cartCursor && m.focus == focusCart {
			b.WriteString(selStyle.Render("> " + row))
		} else {
			b.WriteString(itemStyle.Render(row))
		}
		if i < len(m.snap.Cart)-1 {
			b.WriteString("\n")
		}
	}

	return m.panel(focusCart, 40).Render(b.String())
}

func (m model) predictionsView() string {
	var b strings.Builder
	title := "You may also need"
	if m.snap.PredictionsLoading {
		title += " " + m.spinner.View()
	}
	b.WriteString(titleStyle.Render(title))
	b.WriteString("\n")

	if len(m.snap.Predictions) == 0 {
		b.WriteString(dimStyle.Render("add items to see suggestions"))
	}
	for i, c := range m.snap.Predictions {
		row := fmt.Sprintf("%-24s %5.1f%%", truncate(c.DisplayName(), 24), c.Probability*100)
		if i == m.predCursor && m.focus == focusPredictions {
			b.WriteString(selStyle.Render("> " + row))
		} else {
			b.WriteString(itemStyle.Render(row))
		}
		if i < len(m.snap.Predictions)-1 {
			b.WriteString("\n")
		}
	}
	if m.snap.LastError != "" {
		b.WriteString("\n")
		b.WriteString(errorStyle.Render(truncate(m.snap.LastError, 36)))
	}

	return m.panel(focusPredictions, 40).Render(b.String())
}

func (m model) panel(f focus, width int) lipgloss.Style {
	if m.focus == f {
		return focusedPanel.Width(width)
	}
	return panelStyle.Width(width)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
