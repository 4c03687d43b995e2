// Package tui implements the interactive record browser: a table over the
// ingested invoices with filter-as-you-type, column sorting, visible-row
// totals and a diagnostics view.
package tui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fiscaltools/painel-nfse/internal/export"
	"github.com/fiscaltools/painel-nfse/internal/filter"
	"github.com/fiscaltools/painel-nfse/internal/model"
)

// Mode is the current input mode of the browser.
type Mode int

// Browser modes.
const (
	ModeNormal Mode = iota
	ModeFilter
	ModeDiagnostics
)

// Sortable columns, cycled with "s".
var sortFields = []string{"date", "gross", "issuer", "payer"}

// BrowseModel is the bubbletea model for the record browser.
type BrowseModel struct {
	recordSet   *model.RecordSet
	filtered    []model.Invoice
	table       table.Model
	filterInput textinput.Model
	mode        Mode
	filterErr   string
	sortField   string
	sortAsc     bool
	sorted      bool
	width       int
	height      int
}

// NewBrowse creates a browser over a completed record set. The set must not
// be mutated while the browser is running.
func NewBrowse(rs *model.RecordSet) BrowseModel {
	columns := []table.Column{
		{Title: "Emissão", Width: 10},
		{Title: "Prestador", Width: 24},
		{Title: "Tomador", Width: 24},
		{Title: "Doc. Tomador", Width: 18},
		{Title: "Serviço", Width: 8},
		{Title: "Bruto", Width: 12},
		{Title: "Líquido", Width: 12},
		{Title: "ISS", Width: 10},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(20),
	)
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(borderColor).
		BorderBottom(true).
		Bold(false)
	s.Selected = selectedStyle
	t.SetStyles(s)

	input := textinput.New()
	input.Placeholder = "filtro: joao doc=123.456 date=2023-01-01..2023-01-31 gross=100..500"
	input.CharLimit = 120

	m := BrowseModel{
		recordSet:   rs,
		filtered:    filter.Evaluate(rs, nil),
		table:       t,
		filterInput: input,
		sortField:   "date",
		sortAsc:     true,
		width:       120,
		height:      30,
	}
	m.refreshRows()
	return m
}

// Run opens the browser in the alternate screen until the user quits.
func Run(rs *model.RecordSet) error {
	_, err := tea.NewProgram(NewBrowse(rs), tea.WithAltScreen()).Run()
	return err
}

// Init implements tea.Model.
func (m BrowseModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m BrowseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.table.SetHeight(maxInt(5, m.height-8))
		return m, nil

	case tea.KeyMsg:
		switch m.mode {
		case ModeFilter:
			return m.updateFilterMode(msg)
		case ModeDiagnostics:
			return m.updateDiagnosticsMode(msg)
		default:
			return m.updateNormalMode(msg)
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m BrowseModel) updateNormalMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit

	case "/":
		m.mode = ModeFilter
		m.filterInput.Focus()
		return m, textinput.Blink

	case "d":
		m.mode = ModeDiagnostics
		return m, nil

	case "s":
		m.sortField = nextSortField(m.sortField)
		m.sorted = true
		m.applyFilter()
		return m, nil

	case "S":
		m.sortAsc = !m.sortAsc
		m.sorted = true
		m.applyFilter()
		return m, nil

	case "esc":
		if m.filterInput.Value() != "" || m.sorted {
			m.filterInput.SetValue("")
			m.filterErr = ""
			m.sorted = false
			m.applyFilter()
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m BrowseModel) updateFilterMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.mode = ModeNormal
		m.filterInput.Blur()
		return m, nil
	case "esc":
		m.mode = ModeNormal
		m.filterInput.Blur()
		m.filterInput.SetValue("")
		m.filterErr = ""
		m.applyFilter()
		return m, nil
	}

	var cmd tea.Cmd
	m.filterInput, cmd = m.filterInput.Update(msg)
	// Re-evaluate on every keystroke: a single linear scan keeps this
	// responsive at the record counts a session holds.
	m.applyFilter()
	return m, cmd
}

func (m BrowseModel) updateDiagnosticsMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "esc", "d":
		m.mode = ModeNormal
	case "ctrl+c":
		return m, tea.Quit
	}
	return m, nil
}

// applyFilter rebuilds the visible rows from the unchanged record set. A
// malformed filter keeps the previous result and surfaces the error instead
// of silently matching nothing.
func (m *BrowseModel) applyFilter() {
	pred, err := filter.Parse(m.filterInput.Value())
	if err != nil {
		m.filterErr = err.Error()
		return
	}
	m.filterErr = ""
	m.filtered = filter.Evaluate(m.recordSet, pred)
	if m.sorted {
		m.sortFiltered()
	}
	m.refreshRows()
}

func (m *BrowseModel) sortFiltered() {
	less := invoiceLess(m.sortField)
	sort.SliceStable(m.filtered, func(i, j int) bool {
		if m.sortAsc {
			return less(&m.filtered[i], &m.filtered[j])
		}
		return less(&m.filtered[j], &m.filtered[i])
	})
}

func (m *BrowseModel) refreshRows() {
	rows := make([]table.Row, len(m.filtered))
	for i := range m.filtered {
		inv := &m.filtered[i]
		rows[i] = table.Row{
			export.FormatDate(inv.IssueDate),
			inv.IssuerName,
			inv.PayerName,
			inv.PayerDocument,
			inv.ServiceCode,
			export.FormatAmount(inv.GrossAmount),
			export.FormatAmount(inv.NetAmount),
			export.FormatAmount(inv.TaxAmount),
		}
	}
	m.table.SetRows(rows)
	if m.table.Cursor() >= len(rows) {
		m.table.SetCursor(maxInt(0, len(rows)-1))
	}
}

// View implements tea.Model.
func (m BrowseModel) View() string {
	if m.mode == ModeDiagnostics {
		return m.diagnosticsView()
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Painel NFS-e"))
	b.WriteString("\n")
	b.WriteString(m.table.View())
	b.WriteString("\n")
	b.WriteString(m.totalsLine())
	b.WriteString("\n")
	b.WriteString(m.statusLine())
	if m.mode == ModeFilter || m.filterInput.Value() != "" {
		b.WriteString("\n")
		b.WriteString(m.filterInput.View())
		if m.filterErr != "" {
			b.WriteString("  ")
			b.WriteString(errorStyle.Render(m.filterErr))
		}
	}
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("/: filtrar  s/S: ordenar  d: diagnósticos  esc: limpar  q: sair"))
	return b.String()
}

// totalsLine sums the visible rows only, mirroring what the user sees.
func (m BrowseModel) totalsLine() string {
	var gross, net, tax float64
	for i := range m.filtered {
		inv := &m.filtered[i]
		if inv.GrossAmount != nil {
			gross += *inv.GrossAmount
		}
		if inv.NetAmount != nil {
			net += *inv.NetAmount
		}
		if inv.TaxAmount != nil {
			tax += *inv.TaxAmount
		}
	}
	return totalsStyle.Render(fmt.Sprintf("Totais (visíveis)  Bruto: %s  Líquido: %s  ISS: %s",
		export.BRL(gross), export.BRL(net), export.BRL(tax)))
}

func (m BrowseModel) statusLine() string {
	status := fmt.Sprintf("%d/%d registro(s)", len(m.filtered), len(m.recordSet.Invoices))
	if n := m.recordSet.ErrorCount(); n > 0 {
		status += "  " + errorStyle.Render(fmt.Sprintf("%d erro(s)", n))
	}
	if n := m.recordSet.WarningCount(); n > 0 {
		status += "  " + warningStyle.Render(fmt.Sprintf("%d aviso(s)", n))
	}
	if m.sorted {
		dir := "asc"
		if !m.sortAsc {
			dir = "desc"
		}
		status += fmt.Sprintf("  ordenado por %s (%s)", m.sortField, dir)
	}
	return statusStyle.Render(status)
}

func (m BrowseModel) diagnosticsView() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Diagnósticos"))
	b.WriteString("\n")
	if len(m.recordSet.Diagnostics) == 0 {
		b.WriteString(statusStyle.Render("nenhum diagnóstico nesta sessão"))
	}
	limit := maxInt(5, m.height-4)
	for i, d := range m.recordSet.Diagnostics {
		if i >= limit {
			b.WriteString(statusStyle.Render(fmt.Sprintf("… e mais %d", len(m.recordSet.Diagnostics)-limit)))
			b.WriteString("\n")
			break
		}
		line := d.String()
		if d.Severity == model.SeverityError {
			line = errorStyle.Render(line)
		} else {
			line = warningStyle.Render(line)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	b.WriteString(helpStyle.Render("esc: voltar"))
	return b.String()
}

func invoiceLess(field string) func(a, b *model.Invoice) bool {
	switch field {
	case "gross":
		return func(a, b *model.Invoice) bool {
			return derefAmount(a.GrossAmount) < derefAmount(b.GrossAmount)
		}
	case "issuer":
		return func(a, b *model.Invoice) bool {
			return filter.Fold(a.IssuerName) < filter.Fold(b.IssuerName)
		}
	case "payer":
		return func(a, b *model.Invoice) bool {
			return filter.Fold(a.PayerName) < filter.Fold(b.PayerName)
		}
	default: // date; null dates sort first
		return func(a, b *model.Invoice) bool {
			switch {
			case a.IssueDate == nil:
				return b.IssueDate != nil
			case b.IssueDate == nil:
				return false
			default:
				return a.IssueDate.Before(*b.IssueDate)
			}
		}
	}
}

func derefAmount(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

func nextSortField(current string) string {
	for i, f := range sortFields {
		if f == current {
			return sortFields[(i+1)%len(sortFields)]
		}
	}
	return sortFields[0]
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
