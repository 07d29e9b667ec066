package section

import (
	"github.com/arloliu/plyio/encoding"
	"github.com/arloliu/plyio/format"
)

// EventKind discriminates the variants of Event.
type EventKind uint8

const (
	EventInvalid EventKind = iota

	// Header events, emitted by the Lexer.
	EventFormat     // Format and Version are set.
	EventComment    // Text holds the comment without the keyword.
	EventObjInfo    // Text holds the obj_info line without the keyword.
	EventElementDef // Element and Count are set.
	EventScalarDef  // Element, Name and Type are set.
	EventListDef    // Element, Name, SizeType and Type (the item type) are set.
	EventEndHeader

	// Body events, emitted while walking the body.
	EventElementBegin // Element and Count are set.
	EventRowBegin     // Index is the row number within the element.
	EventScalar       // Index is the property index, Value the value.
	EventListBegin    // Index is the property index, Count the declared size.
	EventListItem     // Value is the item.
	EventListEnd
	EventRowEnd
	EventElementEnd
	EventDone
)

var eventKindNames = [...]string{
	EventInvalid:      "invalid",
	EventFormat:       "format",
	EventComment:      "comment",
	EventObjInfo:      "obj_info",
	EventElementDef:   "element_def",
	EventScalarDef:    "scalar_def",
	EventListDef:      "list_def",
	EventEndHeader:    "end_header",
	EventElementBegin: "element_begin",
	EventRowBegin:     "row_begin",
	EventScalar:       "scalar",
	EventListBegin:    "list_begin",
	EventListItem:     "list_item",
	EventListEnd:      "list_end",
	EventRowEnd:       "row_end",
	EventElementEnd:   "element_end",
	EventDone:         "done",
}

func (k EventKind) String() string {
	if int(k) < len(eventKindNames) {
		return eventKindNames[k]
	}

	return "invalid"
}

// Event is one step of the parse stream. Only the fields documented for its
// Kind are meaningful.
type Event struct {
	Kind     EventKind
	Element  string
	Name     string
	Text     string
	Version  string
	Format   format.Format
	Type     format.DataType
	SizeType format.DataType
	Count    int
	Index    int
	Value    encoding.Value
}
