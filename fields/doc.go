// Package fields implements infinitree's typed index field framework:
// Serialized, Map, List, VersionedMap and LinkedList values, each
// bridging its in-memory representation to the object layer through a
// Strategy and a Depth. A fields.Index is an ordered, named collection
// of such fields, in the declaration order they were added -- the order
// a commit's field Store phase runs in.
package fields
