package ui

import (
	"fmt"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"pfpp/internal/domain"
	"pfpp/internal/storage"
)

// RetranslateFunc translates one source again and returns the outcome.
type RetranslateFunc func(source string) domain.TranslationResult

// Inspector browses the manifest of the last batch run in an interactive TUI.
// Failed sources are listed first.
type Inspector struct {
	storage     storage.Storage
	retranslate RetranslateFunc
}

// NewInspector creates a new Inspector. retranslate may be nil, which disables
// the retranslate key.
func NewInspector(st storage.Storage, retranslate RetranslateFunc) *Inspector {
	return &Inspector{
		storage:     st,
		retranslate: retranslate,
	}
}

// inspectorItem is one row of the source list
type inspectorItem struct {
	source  string
	entry   *domain.ManifestEntry
	failure *domain.TranslationFailure
}

func buildItems(manifest *domain.Manifest) []inspectorItem {
	items := make([]inspectorItem, 0, len(manifest.Files)+len(manifest.Failures))
	for i := range manifest.Failures {
		items = append(items, inspectorItem{source: manifest.Failures[i].Source, failure: &manifest.Failures[i]})
	}
	for i := range manifest.Files {
		items = append(items, inspectorItem{source: manifest.Files[i].Source, entry: &manifest.Files[i]})
	}
	sort.SliceStable(items, func(i, j int) bool {
		if (items[i].failure != nil) != (items[j].failure != nil) {
			return items[i].failure != nil
		}
		return items[i].source < items[j].source
	})
	return items
}

// View displays the manifest in an interactive TUI
func (in *Inspector) View(manifest *domain.Manifest) error {
	items := buildItems(manifest)
	if len(items) == 0 {
		color.Yellow("No translated sources recorded.")
		return nil
	}

	app := tview.NewApplication()

	list := tview.NewList().
		ShowSecondaryText(false).
		SetHighlightFullLine(true)

	list.SetMainTextColor(tview.Styles.PrimaryTextColor).
		SetSelectedTextColor(tcell.ColorWhite).
		SetSelectedBackgroundColor(tcell.ColorDarkCyan).
		SetSecondaryTextColor(tview.Styles.SecondaryTextColor)

	statsView := tview.NewTextView().
		SetDynamicColors(true).
		SetWrap(false).
		SetWordWrap(false)

	detailsView := tview.NewTextView().
		SetDynamicColors(true).
		SetWrap(true).
		SetWordWrap(true)

	detailsContainer := tview.NewFlex().
		SetDirection(tview.FlexColumn).
		AddItem(detailsView, 0, 1, false).
		AddItem(tview.NewBox(), 2, 0, false)

	rightSide := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(statsView, 3, 0, false).
		AddItem(detailsContainer, 0, 1, false)

	flex := tview.NewFlex().
		SetDirection(tview.FlexColumn).
		AddItem(list, 0, 1, true).
		AddItem(rightSide, 0, 2, false)

	headerView := tview.NewTextView().
		SetTextAlign(tview.AlignCenter).
		SetDynamicColors(true)

	updateHeader := func() {
		headerView.SetText(formatHeader(manifest, in.retranslate != nil))
	}

	fillList := func() {
		list.Clear()
		for i, item := range items {
			list.AddItem(formatListItem(item, i+1), "", 0, nil)
		}
	}

	updateDetails := func() {
		index := list.GetCurrentItem()
		if index >= 0 && index < len(items) {
			statsView.SetText(formatItemStats(items[index], &manifest.Meta))
			detailsView.SetText(formatItemDetails(items[index]))
		}
	}

	retranslateCurrent := func() {
		index := list.GetCurrentItem()
		if index < 0 || index >= len(items) {
			return
		}
		source := items[index].source
		result := in.retranslate(source)
		if err := in.storage.Record(result); err != nil {
			detailsView.SetText(fmt.Sprintf("[red]failed to record result: %v[white]", err))
			return
		}
		reloaded, err := in.storage.Load()
		if err != nil {
			detailsView.SetText(fmt.Sprintf("[red]failed to reload manifest: %v[white]", err))
			return
		}
		manifest = reloaded
		items = buildItems(manifest)
		fillList()
		for i, item := range items {
			if item.source == source {
				list.SetCurrentItem(i)
				break
			}
		}
		updateHeader()
		updateDetails()
	}

	list.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyUp, tcell.KeyDown:
			return event
		case tcell.KeyEnter, tcell.KeyRight:
			app.SetFocus(detailsView)
			return nil
		case tcell.KeyCtrlC, tcell.KeyEsc:
			app.Stop()
			return nil
		case tcell.KeyRune:
			switch event.Rune() {
			case 'q', 'Q':
				app.Stop()
				return nil
			case 't', 'T':
				if in.retranslate != nil {
					retranslateCurrent()
				}
				return nil
			}
		}
		return event
	})

	detailsView.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyLeft, tcell.KeyEsc:
			app.SetFocus(list)
			return nil
		case tcell.KeyCtrlC:
			app.Stop()
			return nil
		}
		return event
	})

	list.SetChangedFunc(func(index int, mainText string, secondaryText string, shortcut rune) {
		updateDetails()
	})

	fillList()
	updateHeader()
	updateDetails()

	mainLayout := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(headerView, 1, 0, false).
		AddItem(tview.NewBox(), 1, 0, false).
		AddItem(flex, 0, 1, true)

	if err := app.SetRoot(mainLayout, true).SetFocus(list).Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

func formatHeader(manifest *domain.Manifest, canRetranslate bool) string {
	keys := "Use ↑↓ to navigate, → to view details, ← to go back"
	if canRetranslate {
		keys += ", [yellow]T[white] to retranslate"
	}
	return fmt.Sprintf(" Sources (%d translated, %d failed) | %s, Q to exit ",
		len(manifest.Files), len(manifest.Failures), keys)
}

func formatListItem(item inspectorItem, number int) string {
	if item.failure != nil {
		return fmt.Sprintf("[red]✗ [yellow]%d.[white] %s", number, item.source)
	}
	return fmt.Sprintf("[green]✓ [yellow]%d.[white] %s", number, item.source)
}

func formatItemStats(item inspectorItem, meta *domain.ManifestMeta) string {
	status := "[green]translated[white]"
	if item.failure != nil {
		status = "[red]" + item.failure.Kind + "[white]"
	}
	return fmt.Sprintf("[cyan]source:[white] [yellow]%s[white] (%s)\n[cyan]run:[white] %s  %s\n",
		item.source, status, meta.RunID, meta.Timestamp)
}

// formatItemDetails formats a manifest item for display using tview color tags
func formatItemDetails(item inspectorItem) string {
	var builder strings.Builder
	w := tabwriter.NewWriter(&builder, 0, 0, 2, ' ', 0)

	if f := item.failure; f != nil {
		fmt.Fprintf(w, "[red]✗ %s[white]\n\n", f.Kind)
		if f.Line > 0 {
			fmt.Fprintf(w, "[yellow]Location:[white]\t%s:%d\n", f.Source, f.Line)
		}
		if f.Directive != "" {
			fmt.Fprintf(w, "[yellow]Directive:[white]\t%s\n", f.Directive)
		}
		fmt.Fprintf(w, "\n[yellow]Message:[white]\n%s\n", f.Message)
		w.Flush()
		return builder.String()
	}

	e := item.entry
	fmt.Fprintf(w, "[green]✓ %s[white]\n\n", e.SuiteName)
	fmt.Fprintf(w, "[cyan]Target:[white]\t%s\n", e.Target)
	fmt.Fprintf(w, "[cyan]Wrapper module:[white]\t%s\n", e.WrapModule)
	fmt.Fprintf(w, "[cyan]Registrations:[white]\t%d\n\n", e.Registrations)
	fmt.Fprintf(w, "[yellow]Tests:[white]\n")
	if len(e.Tests) == 0 {
		fmt.Fprintf(w, "  [gray](none)[white]\n")
	}
	for _, test := range e.Tests {
		fmt.Fprintf(w, "  %s\n", test)
	}
	w.Flush()
	return builder.String()
}
