package app

import (
	"github.com/charmbracelet/bubbles/key"

	"github.com/vidyasagar/yamireader/internal/ui"
)

// KeyMap defines all keybindings for the reader.
type KeyMap struct {
	// Reading
	NextUnit key.Binding
	PrevUnit key.Binding
	LineDown key.Binding
	LineUp   key.Binding
	GotoTop  key.Binding
	GotoEnd  key.Binding

	// Network pages
	NextPage key.Binding
	PrevPage key.Binding
	Retry    key.Binding

	// Layout
	FontUp       key.Binding
	FontDown     key.Binding
	LineHeightUp key.Binding
	LineHeightDn key.Binding
	ToggleMode   key.Binding

	// Display
	ToggleImages key.Binding
	ToggleNight  key.Binding
	ZoomIn       key.Binding
	ZoomOut      key.Binding
	CycleTheme   key.Binding

	// Panels
	Chapters    key.Binding
	CommandMode key.Binding
	Help        key.Binding
	Quit        key.Binding

	// Drawer
	Select key.Binding
	Close  key.Binding
}

// DefaultKeyMap returns the default vim-style keybindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		NextUnit: key.NewBinding(
			key.WithKeys("l", "right", " "),
			key.WithHelp("l/space", "next page"),
		),
		PrevUnit: key.NewBinding(
			key.WithKeys("h", "left"),
			key.WithHelp("h", "previous page"),
		),
		LineDown: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j", "line down"),
		),
		LineUp: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k", "line up"),
		),
		GotoTop: key.NewBinding(
			key.WithKeys("g", "home"),
			key.WithHelp("g", "first page"),
		),
		GotoEnd: key.NewBinding(
			key.WithKeys("G", "end"),
			key.WithHelp("G", "last page"),
		),
		NextPage: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "next thread page"),
		),
		PrevPage: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "prev thread page"),
		),
		Retry: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "retry"),
		),
		FontUp: key.NewBinding(
			key.WithKeys("+", "="),
			key.WithHelp("+", "larger font"),
		),
		FontDown: key.NewBinding(
			key.WithKeys("-"),
			key.WithHelp("-", "smaller font"),
		),
		LineHeightUp: key.NewBinding(
			key.WithKeys("]"),
			key.WithHelp("]", "taller lines"),
		),
		LineHeightDn: key.NewBinding(
			key.WithKeys("["),
			key.WithHelp("[", "shorter lines"),
		),
		ToggleMode: key.NewBinding(
			key.WithKeys("v"),
			key.WithHelp("v", "page/scroll"),
		),
		ToggleImages: key.NewBinding(
			key.WithKeys("i"),
			key.WithHelp("i", "images"),
		),
		ToggleNight: key.NewBinding(
			key.WithKeys("N"),
			key.WithHelp("N", "night mode"),
		),
		ZoomIn: key.NewBinding(
			key.WithKeys("z"),
			key.WithHelp("z", "zoom in"),
		),
		ZoomOut: key.NewBinding(
			key.WithKeys("Z"),
			key.WithHelp("Z", "zoom out"),
		),
		CycleTheme: key.NewBinding(
			key.WithKeys("T"),
			key.WithHelp("T", "theme"),
		),
		Chapters: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "chapters"),
		),
		CommandMode: key.NewBinding(
			key.WithKeys(":"),
			key.WithHelp(":", "command"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		Select: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "jump"),
		),
		Close: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "close"),
		),
	}
}

// HelpGroups arranges the bindings for the help panel.
func (k KeyMap) HelpGroups() []ui.HelpGroup {
	return []ui.HelpGroup{
		{Name: "Reading", Bindings: []key.Binding{k.NextUnit, k.PrevUnit, k.LineDown, k.LineUp, k.GotoTop, k.GotoEnd}},
		{Name: "Thread", Bindings: []key.Binding{k.NextPage, k.PrevPage, k.Retry, k.Chapters, k.CommandMode}},
		{Name: "Layout", Bindings: []key.Binding{k.FontUp, k.FontDown, k.LineHeightUp, k.LineHeightDn, k.ToggleMode}},
		{Name: "Display", Bindings: []key.Binding{k.ToggleImages, k.ToggleNight, k.ZoomIn, k.ZoomOut, k.CycleTheme, k.Quit}},
	}
}
