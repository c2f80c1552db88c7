// Package meshtlv decodes Thread operational-dataset TLV buffers.
//
// The active dataset obtained from the mesh stack is a flat sequence of
// type-length-value records: one tag byte, one length byte, then the raw
// value. Only the tags needed for border-router discovery are named here;
// unknown tags are preserved in the decoded map but not interpreted.
package meshtlv

import "encoding/hex"

// Well-known active-dataset tags.
const (
	// TagExtendedPanID is the 8-byte extended PAN identifier.
	TagExtendedPanID uint8 = 2

	// TagNetworkName is the UTF-8 network name.
	TagNetworkName uint8 = 3
)

// Decode parses a TLV buffer into a tag-to-value map.
//
// Decoding is sequential and stops at the first truncated record: a
// missing length byte or a declared length overrunning the remaining
// buffer ends the walk, and everything decoded up to that point is
// returned. Truncation is partial data, not an error.
func Decode(data []byte) map[uint8][]byte {
	tlvs := make(map[uint8][]byte)

	i := 0
	for i < len(data) {
		if i+2 > len(data) {
			break
		}
		tag := data[i]
		length := int(data[i+1])
		i += 2
		if i+length > len(data) {
			break
		}
		tlvs[tag] = data[i : i+length]
		i += length
	}
	return tlvs
}

// DecodeHex decodes a hex-encoded TLV buffer.
// Undecodable hex yields an empty map, matching the tolerance Decode
// has for truncated buffers.
func DecodeHex(s string) map[uint8][]byte {
	data, err := hex.DecodeString(s)
	if err != nil {
		return map[uint8][]byte{}
	}
	return Decode(data)
}
