package viewer

// Shortcut is one row of the keyboard help overlay.
type Shortcut struct {
	Keys        []string `json:"keys"`
	Description string   `json:"description"`
}

// Shortcuts lists the bindings HandleKey understands, in display order.
var Shortcuts = []Shortcut{
	{Keys: []string{"←", "→"}, Description: "Navigate between slides"},
	{Keys: []string{"F"}, Description: "Toggle fullscreen"},
	{Keys: []string{"G"}, Description: "Show/hide slide grid"},
	{Keys: []string{"P"}, Description: "Toggle presenter view"},
	{Keys: []string{"Esc"}, Description: "Exit current view"},
	{Keys: []string{"?"}, Description: "Show keyboard shortcuts"},
	{Keys: []string{"Space"}, Description: "Next slide"},
	{Keys: []string{"Enter"}, Description: "Next slide"},
	{Keys: []string{"Home"}, Description: "First slide"},
	{Keys: []string{"End"}, Description: "Last slide"},
}
