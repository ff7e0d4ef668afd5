package codec

// tag is a one-byte type marker prefixing every encoded value, so a
// Decoder never needs an out-of-band schema to know what follows.
type tag byte

const (
	tagNil tag = iota
	tagBool
	tagUint
	tagInt
	tagFloat64
	tagString
	tagBytes
	tagTime
	tagSlice
	tagMap
	tagStruct
)
