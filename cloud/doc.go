// Package cloud holds the in-memory side of the codec: the packed row buffer,
// its field layout and the metadata a PLY file carries alongside the points.
//
// SchemaBuilder turns vertex property declarations into a Schema. Declared
// names pass through an alias table (nx becomes normal_x, diffuse_red becomes
// red, and so on), uint8 color channels are packed into one rgb or rgba
// field, and list properties are kept out of the row layout. RowBuffer is
// the arena the decoder fills, with a per-row cursor that catches layouts
// whose widths do not add up to the stride.
//
// Cloud is what a read returns and what a write consumes. Pose carries the
// sensor origin and orientation, IndexList the range_grid, face and other
// list values, and Mask selects which field groups a writer emits.
package cloud
