package engine

// EventKind categorises change notifications.
type EventKind uint8

const (
	// EventDataChanged reports modified bytes. Offset and Length cover
	// the affected region; inserts and erases report from the edit point
	// to the end of the data.
	EventDataChanged EventKind = iota

	// EventCommentsChanged reports any change to the comment set.
	EventCommentsChanged

	// EventHighlightsChanged reports any change to the highlight runs.
	EventHighlightsChanged

	// EventTypesChanged reports any change to the type coverage.
	EventTypesChanged

	// EventMappingsChanged reports any change to the virtual mappings.
	EventMappingsChanged
)

// String returns a short name for the kind.
func (k EventKind) String() string {
	switch k {
	case EventDataChanged:
		return "data"
	case EventCommentsChanged:
		return "comments"
	case EventHighlightsChanged:
		return "highlights"
	case EventTypesChanged:
		return "types"
	case EventMappingsChanged:
		return "mappings"
	default:
		return "unknown"
	}
}

// Event is one queued change notification. Metadata events carry a zero
// range; consumers re-read the relevant set wholesale.
type Event struct {
	Kind   EventKind
	Offset int64
	Length int64
}
