package tui

type Layout struct {
	WindowWidth  int
	WindowHeight int
	Breakpoints  LayoutBreakpoints
}

type LayoutBreakpoints struct {
	MinWidth  int
	MinHeight int
}

type AdaptiveLayout struct {
	ListWidth     int
	EditorWidth   int
	ContentHeight int
	// ShowDetails is false on narrow terminals, where the file properties
	// under the list are dropped.
	ShowDetails bool
}

func NewLayout() *Layout {
	return &Layout{
		WindowWidth:  100,
		WindowHeight: 30,
		Breakpoints: LayoutBreakpoints{
			MinWidth:  60,
			MinHeight: 20,
		},
	}
}

func (l *Layout) Update(width, height int) {
	l.WindowWidth = width
	l.WindowHeight = height
}

func (l *Layout) IsMinimumSize() bool {
	return l.WindowWidth >= l.Breakpoints.MinWidth && l.WindowHeight >= l.Breakpoints.MinHeight
}

func (l *Layout) Calculate() AdaptiveLayout {
	listWidth := min(max(l.WindowWidth*2/5, 28), 60)
	editorWidth := l.WindowWidth - listWidth - 4
	if editorWidth < 30 {
		editorWidth = 30
		listWidth = max(l.WindowWidth-editorWidth-4, 20)
	}

	contentHeight := l.WindowHeight - 3

	return AdaptiveLayout{
		ListWidth:     listWidth,
		EditorWidth:   editorWidth,
		ContentHeight: contentHeight,
		ShowDetails:   contentHeight >= 24,
	}
}
