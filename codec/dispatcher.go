package codec

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/arloliu/plyio/cloud"
	"github.com/arloliu/plyio/encoding"
	"github.com/arloliu/plyio/endian"
	"github.com/arloliu/plyio/errs"
	"github.com/arloliu/plyio/format"
	"github.com/arloliu/plyio/internal/collision"
	"github.com/arloliu/plyio/section"
)

// State is the position of the Dispatcher in the parse.
type State uint8

const (
	StateIdle            State = iota // reading header declarations
	StateHeaderParsed                 // end_header seen, no element entered yet
	StateInElement                    // element begun, no row yet
	StateInProperty                   // inside a row
	StateRowComplete                  // a row ended
	StateElementComplete              // an element ended
	StateDone                         // every element satisfied
)

var stateNames = [...]string{
	StateIdle:            "idle",
	StateHeaderParsed:    "header_parsed",
	StateInElement:       "in_element",
	StateInProperty:      "in_property",
	StateRowComplete:     "row_complete",
	StateElementComplete: "element_complete",
	StateDone:            "done",
}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}

	return "invalid"
}

// ElementKind classifies an element by the way its values are stored.
type ElementKind uint8

const (
	ElementUnknown ElementKind = iota
	ElementVertex
	ElementCamera
	ElementRangeGrid
	ElementFace
)

// Element names with a dedicated meaning.
const (
	VertexElement    = "vertex"
	CameraElement    = "camera"
	RangeGridElement = "range_grid"
	FaceElement      = "face"
)

func elementKindOf(name string) ElementKind {
	switch name {
	case VertexElement:
		return ElementVertex
	case CameraElement:
		return ElementCamera
	case RangeGridElement:
		return ElementRangeGrid
	case FaceElement:
		return ElementFace
	default:
		return ElementUnknown
	}
}

func (k ElementKind) String() string {
	switch k {
	case ElementVertex:
		return "vertex"
	case ElementCamera:
		return "camera"
	case ElementRangeGrid:
		return "range_grid"
	case ElementFace:
		return "face"
	default:
		return "unknown"
	}
}

// Camera slots. The origin occupies 0..2 and the axes 3..11 in row order.
const (
	slotOriginX = 0
	slotAxes    = 3
	slotCount   = 12
)

var cameraSlots = map[string]int{
	"view_px": slotOriginX, "view_py": slotOriginX + 1, "view_pz": slotOriginX + 2,
	"x_axisx": slotAxes, "x_axisy": slotAxes + 1, "x_axisz": slotAxes + 2,
	"y_axisx": slotAxes + 3, "y_axisy": slotAxes + 4, "y_axisz": slotAxes + 5,
	"z_axisx": slotAxes + 6, "z_axisy": slotAxes + 7, "z_axisz": slotAxes + 8,
}

// cameraIgnored lists camera properties that are read and dropped.
var cameraIgnored = map[string]struct{}{
	"focal": {}, "scalex": {}, "scaley": {}, "centerx": {}, "centery": {}, "k1": {}, "k2": {},
}

type bindKind uint8

const (
	bindDiscard bindKind = iota
	bindRow
	bindPose
	bindViewport
	bindList
)

// binding is the destination of one property, resolved when it is declared.
type binding struct {
	kind bindKind
	prop section.Property
	row  cloud.Binding    // bindRow
	slot int              // bindPose and bindViewport
	list *cloud.IndexList // bindList
}

type elementState struct {
	name  string
	kind  ElementKind
	count int
	props []binding
}

// Dispatcher consumes the event stream of one PLY file and assembles a cloud.
//
// Each event is checked against the current State. Property destinations are
// resolved once at declaration time, so body events only index the bindings of
// the current element.
type Dispatcher struct {
	file   string
	logger *slog.Logger
	state  State

	format   format.Format
	version  string
	comments []string
	objInfo  []string

	elements []*elementState
	vertex   *elementState
	builder  *cloud.SchemaBuilder
	names    *collision.Tracker // property names of the current non-vertex element
	schema   *cloud.Schema
	rows     *cloud.RowBuffer
	discard  bool // header-only read: vertex and list values are dropped

	pose       [slotCount]float64
	viewport   [2]int
	cameraRows int

	rangeGrid *cloud.IndexList
	polygons  *cloud.IndexList
	lists     []*cloud.IndexList

	// body cursor
	next      int // index of the next element to enter
	cur       *elementState
	row       int
	prop      int
	inList    bool
	listItems int
}

// NewDispatcher creates a dispatcher in StateIdle. file names the input in
// log records; logger may be nil.
func NewDispatcher(file string, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}

	return &Dispatcher{file: file, logger: logger, builder: cloud.NewSchemaBuilder(), names: collision.NewTracker()}
}

// DiscardRows makes the dispatcher keep only the header and camera values.
// Vertex rows and index lists are read and dropped, and Cloud fails. It must be
// called before end_header.
func (d *Dispatcher) DiscardRows() {
	d.discard = true
}

// State returns the current state.
func (d *Dispatcher) State() State {
	return d.state
}

// Schema returns the vertex layout once the header is parsed, nil before.
func (d *Dispatcher) Schema() *cloud.Schema {
	return d.schema
}

// VertexCount returns the declared number of vertex rows.
func (d *Dispatcher) VertexCount() int {
	if d.vertex == nil {
		return 0
	}

	return d.vertex.count
}

// Handle advances the state machine by one event.
func (d *Dispatcher) Handle(ev section.Event) error {
	switch d.state {
	case StateIdle:
		return d.handleHeader(ev)
	case StateHeaderParsed, StateElementComplete:
		switch ev.Kind {
		case section.EventElementBegin:
			return d.beginElement(ev)
		case section.EventDone:
			return d.done()
		}
	case StateInElement, StateRowComplete:
		switch ev.Kind {
		case section.EventRowBegin:
			return d.beginRow(ev)
		case section.EventElementEnd:
			return d.endElement()
		}
	case StateInProperty:
		switch ev.Kind {
		case section.EventScalar:
			return d.scalar(ev)
		case section.EventListBegin:
			return d.listBegin(ev)
		case section.EventListItem:
			return d.listItem(ev)
		case section.EventListEnd:
			return d.listEnd()
		case section.EventRowEnd:
			return d.endRow()
		}
	case StateDone:
	}

	return d.unexpected(ev)
}

func (d *Dispatcher) unexpected(ev section.Event) error {
	return fmt.Errorf("%w: %s in state %s", errs.ErrUnexpectedEvent, ev.Kind, d.state)
}

func (d *Dispatcher) handleHeader(ev section.Event) error {
	switch ev.Kind {
	case section.EventFormat:
		d.format, d.version = ev.Format, ev.Version
	case section.EventComment:
		d.comments = append(d.comments, ev.Text)
	case section.EventObjInfo:
		d.objInfo = append(d.objInfo, ev.Text)
	case section.EventElementDef:
		return d.defineElement(ev)
	case section.EventScalarDef:
		return d.defineScalar(ev)
	case section.EventListDef:
		return d.defineList(ev)
	case section.EventEndHeader:
		return d.endHeader()
	default:
		return d.unexpected(ev)
	}

	return nil
}

func (d *Dispatcher) defineElement(ev section.Event) error {
	el := &elementState{name: ev.Element, kind: elementKindOf(ev.Element), count: ev.Count}

	switch el.kind {
	case ElementVertex:
		d.vertex = el
	case ElementCamera:
		if el.count > 1 {
			d.logger.Warn("camera element has more than one row, using the first",
				"file", d.file, "count", el.count)
		}
	case ElementUnknown:
		d.logger.Debug("unknown element is read and discarded", "file", d.file, "element", el.name)
	case ElementRangeGrid, ElementFace:
	}
	d.elements = append(d.elements, el)
	d.names.Reset()

	return nil
}

func (d *Dispatcher) current(name string) (*elementState, error) {
	if len(d.elements) == 0 || d.elements[len(d.elements)-1].name != name {
		return nil, fmt.Errorf("%w: property of %q outside its element", errs.ErrUnexpectedEvent, name)
	}

	return d.elements[len(d.elements)-1], nil
}

// trackName rejects a property name repeated within a known non-vertex
// element. Vertex names go through the schema builder, which also resolves
// aliases; unknown elements are not checked.
func (d *Dispatcher) trackName(el *elementState, name string) error {
	if el.kind == ElementVertex || el.kind == ElementUnknown {
		return nil
	}
	if err := d.names.Track(name); err != nil {
		return fmt.Errorf("element %q: %w", el.name, err)
	}

	return nil
}

func (d *Dispatcher) defineScalar(ev section.Event) error {
	el, err := d.current(ev.Element)
	if err != nil {
		return err
	}

	if err := d.trackName(el, ev.Name); err != nil {
		return err
	}

	b := binding{kind: bindDiscard, prop: section.Property{Name: ev.Name, Type: ev.Type}}

	switch el.kind {
	case ElementVertex:
		rb, err := d.builder.AddScalar(ev.Name, ev.Type)
		if err != nil {
			return err
		}
		b.kind, b.row = bindRow, rb
	case ElementCamera:
		if slot, ok := cameraSlots[ev.Name]; ok {
			b.kind, b.slot = bindPose, slot
		} else if ev.Name == "viewportx" || ev.Name == "viewporty" {
			b.kind, b.slot = bindViewport, int(ev.Name[len(ev.Name)-1]-'x')
		} else if _, ok := cameraIgnored[ev.Name]; !ok {
			d.logger.Debug("unknown camera property discarded", "file", d.file, "property", ev.Name)
		}
	case ElementRangeGrid, ElementFace, ElementUnknown:
	}

	el.props = append(el.props, b)

	return nil
}

func (d *Dispatcher) defineList(ev section.Event) error {
	el, err := d.current(ev.Element)
	if err != nil {
		return err
	}

	if err := d.trackName(el, ev.Name); err != nil {
		return err
	}

	prop := section.Property{Name: ev.Name, Type: ev.Type, SizeType: ev.SizeType}
	b := binding{kind: bindDiscard, prop: prop}

	if el.kind == ElementVertex {
		if _, err := d.builder.AddList(ev.Name); err != nil {
			return err
		}
	}

	if el.kind != ElementUnknown && el.kind != ElementCamera {
		if !ev.Type.IsInteger() {
			d.logger.Warn("list with non-integer items is discarded",
				"file", d.file, "element", el.name, "property", ev.Name, "type", ev.Type)
			el.props = append(el.props, b)

			return nil
		}

		list := cloud.NewIndexList(el.name, ev.Name, el.count)
		switch {
		case el.kind == ElementVertex:
			d.lists = append(d.lists, list)
			b.kind, b.list = bindList, list
		case el.kind == ElementRangeGrid && d.rangeGrid == nil && isIndexList(ev.Name):
			d.rangeGrid = list
			b.kind, b.list = bindList, list
		case el.kind == ElementFace && d.polygons == nil && isIndexList(ev.Name):
			d.polygons = list
			b.kind, b.list = bindList, list
		}
	}

	el.props = append(el.props, b)

	return nil
}

func isIndexList(name string) bool {
	return name == "vertex_indices" || name == "vertex_index"
}

func (d *Dispatcher) endHeader() error {
	d.schema = d.builder.Build()

	rows := 0
	if d.vertex != nil && !d.discard {
		rows = d.vertex.count
	}

	if d.discard {
		for _, el := range d.elements {
			for i := range el.props {
				if k := el.props[i].kind; k == bindRow || k == bindList {
					el.props[i].kind = bindDiscard
				}
			}
		}
	}

	buf, err := cloud.AllocateRows(rows, d.schema.PointStep)
	if err != nil {
		return err
	}
	d.rows = buf
	d.state = StateHeaderParsed

	return nil
}

func (d *Dispatcher) beginElement(ev section.Event) error {
	if d.next >= len(d.elements) || d.elements[d.next].name != ev.Element {
		return fmt.Errorf("%w: element %q begins out of declaration order", errs.ErrUnexpectedEvent, ev.Element)
	}

	d.cur = d.elements[d.next]
	d.next++
	d.row = 0
	d.state = StateInElement

	return nil
}

func (d *Dispatcher) beginRow(ev section.Event) error {
	if ev.Index != d.row || d.row >= d.cur.count {
		return fmt.Errorf("%w: row %d of %q (expected %d of %d)",
			errs.ErrUnexpectedEvent, ev.Index, d.cur.name, d.row, d.cur.count)
	}

	if d.cur.kind == ElementVertex && !d.discard {
		if err := d.rows.BeginRow(d.row); err != nil {
			return err
		}
		d.schema.FillDefaults(d.rows.Row())
	}
	d.prop = 0
	d.state = StateInProperty

	return nil
}

func (d *Dispatcher) property(ev section.Event, list bool) (*binding, error) {
	if d.inList || ev.Index != d.prop || d.prop >= len(d.cur.props) {
		return nil, fmt.Errorf("%w: property %d of %q (expected %d)", errs.ErrUnexpectedEvent, ev.Index, d.cur.name, d.prop)
	}

	b := &d.cur.props[d.prop]
	if b.prop.IsList() != list {
		return nil, fmt.Errorf("%w: %s for property %q", errs.ErrUnexpectedEvent, ev.Kind, b.prop.Name)
	}

	return b, nil
}

func (d *Dispatcher) scalar(ev section.Event) error {
	b, err := d.property(ev, false)
	if err != nil {
		return err
	}
	d.prop++

	switch b.kind {
	case bindRow:
		return d.storeRow(b.row, ev.Value)
	case bindPose:
		if d.row == 0 {
			d.pose[b.slot] = ev.Value.Float64()
		}
	case bindViewport:
		if d.row == 0 {
			d.viewport[b.slot] = int(ev.Value.Int64())
		}
	case bindDiscard, bindList:
	}

	return nil
}

func (d *Dispatcher) storeRow(rb cloud.Binding, v encoding.Value) error {
	row := d.rows.Row()

	switch rb.Kind {
	case cloud.BindField:
		if v.Type != rb.Type {
			return fmt.Errorf("%w: value of type %s for field of type %s", errs.ErrSchema, v.Type, rb.Type)
		}
		if rb.Offset+rb.Type.Size() > len(row) {
			return fmt.Errorf("%w: field at %d overruns stride %d", errs.ErrSchema, rb.Offset, len(row))
		}
		v.Put(row[rb.Offset:], endian.NativeEngine())
	case cloud.BindChannel:
		row[rb.Offset] = byte(v.Uint64())
	case cloud.BindSkip:
	}

	return d.rows.Advance(rb.Width)
}

func (d *Dispatcher) listBegin(ev section.Event) error {
	b, err := d.property(ev, true)
	if err != nil {
		return err
	}
	if ev.Count < 0 {
		return fmt.Errorf("%w: negative list size %d for %q", errs.ErrSchema, ev.Count, b.prop.Name)
	}

	if b.kind == bindList {
		if err := b.list.Begin(ev.Count); err != nil {
			return err
		}
	}
	d.inList = true
	d.listItems = ev.Count

	return nil
}

func (d *Dispatcher) listItem(ev section.Event) error {
	if !d.inList || d.listItems == 0 {
		return fmt.Errorf("%w: list item outside a list", errs.ErrUnexpectedEvent)
	}
	d.listItems--

	if b := &d.cur.props[d.prop]; b.kind == bindList {
		return b.list.Append(ev.Value.Int64())
	}

	return nil
}

func (d *Dispatcher) listEnd() error {
	if !d.inList {
		return fmt.Errorf("%w: list end outside a list", errs.ErrUnexpectedEvent)
	}
	if d.listItems != 0 {
		return fmt.Errorf("%w: list ended with %d items missing", errs.ErrTruncatedBody, d.listItems)
	}
	d.inList = false

	b := &d.cur.props[d.prop]
	d.prop++
	if b.kind == bindList {
		return b.list.End()
	}

	return nil
}

func (d *Dispatcher) endRow() error {
	if d.inList || d.prop != len(d.cur.props) {
		return fmt.Errorf("%w: row %d of %q ended after %d of %d properties",
			errs.ErrUnexpectedEvent, d.row, d.cur.name, d.prop, len(d.cur.props))
	}

	switch d.cur.kind {
	case ElementVertex:
		if d.discard {
			break
		}
		if err := d.rows.EndRow(); err != nil {
			return err
		}
	case ElementCamera:
		d.cameraRows++
	case ElementRangeGrid, ElementFace, ElementUnknown:
	}
	d.row++
	d.state = StateRowComplete

	return nil
}

func (d *Dispatcher) endElement() error {
	if d.row != d.cur.count {
		return fmt.Errorf("%w: element %q ended after %d of %d rows", errs.ErrTruncatedBody, d.cur.name, d.row, d.cur.count)
	}
	d.cur = nil
	d.state = StateElementComplete

	return nil
}

func (d *Dispatcher) done() error {
	if d.next != len(d.elements) {
		return fmt.Errorf("%w: input ended before element %q", errs.ErrTruncatedBody, d.elements[d.next].name)
	}
	d.state = StateDone

	return nil
}

// Pose returns the pose read from the camera element, or the identity.
func (d *Dispatcher) Pose() cloud.Pose {
	if d.cameraRows == 0 {
		return cloud.IdentityPose()
	}

	var origin [3]float64
	copy(origin[:], d.pose[slotOriginX:slotOriginX+3])

	var axes [3][3]float64
	for i := range 3 {
		copy(axes[i][:], d.pose[slotAxes+3*i:slotAxes+3*i+3])
	}

	return cloud.PoseFromAxes(origin, axes)
}

// Cloud returns the assembled cloud. It fails unless the dispatcher reached StateDone.
//
// With organize set, a range grid reorders the vertices into one row per grid
// cell, and a camera viewport whose area equals the row count sets Width and
// Height.
func (d *Dispatcher) Cloud(organize bool) (*cloud.Cloud, error) {
	if d.state != StateDone {
		return nil, fmt.Errorf("%w: cloud requested in state %s", errs.ErrTruncatedBody, d.state)
	}
	if d.discard {
		return nil, fmt.Errorf("%w: cloud requested from a header-only read", errs.ErrUnexpectedEvent)
	}

	c := &cloud.Cloud{
		Data:      d.rows.Bytes(),
		Fields:    d.schema.Fields,
		PointStep: d.schema.PointStep,
		Pose:      d.Pose(),
		RangeGrid: d.rangeGrid,
		Polygons:  d.polygons,
		Lists:     d.lists,
		Comments:  d.comments,
		ObjInfo:   d.objInfo,
		Format:    d.format,
	}

	if organize && d.rangeGrid != nil && d.vertex != nil {
		if err := d.reorganize(c); err != nil {
			return nil, err
		}
	}

	c.Width, c.Height = c.Len(), 1
	if w, h := d.viewport[0], d.viewport[1]; organize && w > 0 && h > 0 && w*h == c.Len() {
		c.Width, c.Height = w, h
	}

	return c, nil
}

// reorganize rebuilds the rows in range grid order. An empty cell becomes a row
// whose float fields are NaN; any other cell copies the vertex of its first index.
func (d *Dispatcher) reorganize(c *cloud.Cloud) error {
	src := c.Data
	vertices := c.Len()
	cells := d.rangeGrid.Len()

	buf, err := cloud.AllocateRows(cells, c.PointStep)
	if err != nil {
		return err
	}
	dst := buf.Bytes()

	var empty []byte
	if c.PointStep > 0 {
		empty = make([]byte, c.PointStep)
		d.schema.FillDefaults(empty)
		for _, f := range c.Fields {
			if f.Type.IsFloat() {
				encoding.Float64Value(f.Type, math.NaN()).Put(empty[f.Offset:], endian.NativeEngine())
			}
		}
	}

	for i, entry := range d.rangeGrid.Entries {
		out := dst[i*c.PointStep : (i+1)*c.PointStep]
		if len(entry.Values) == 0 {
			copy(out, empty)
			continue
		}

		idx := entry.Values[0]
		if idx < 0 || idx >= int64(vertices) {
			return fmt.Errorf("%w: range_grid cell %d references vertex %d of %d", errs.ErrSchema, i, idx, vertices)
		}
		copy(out, src[int(idx)*c.PointStep:(int(idx)+1)*c.PointStep])
	}
	c.Data = dst

	return nil
}
