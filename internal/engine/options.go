package engine

// Option configures a Document at creation.
type Option func(*Document)

// WithMaxUndoEntries sets the undo depth limit.
func WithMaxUndoEntries(max int) Option {
	return func(d *Document) {
		if max > 0 {
			d.maxUndoEntries = max
		}
	}
}

// WithCursor sets the initial cursor position.
func WithCursor(cur CursorState) Option {
	return func(d *Document) {
		d.cursor = cur
	}
}
