package meshtlv

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeDatasetTags(t *testing.T) {
	// Extended PAN ID (tag 2) followed by network name (tag 3).
	tlvs := DecodeHex("0208aabbccddeeff001103064d794d657368")

	require.Contains(t, tlvs, TagExtendedPanID)
	require.Contains(t, tlvs, TagNetworkName)
	assert.Equal(t, []byte{0xaa, 0xbb, 0xcc, 0xdd, 0xee, 0xff, 0x00, 0x11}, tlvs[TagExtendedPanID])
	assert.Equal(t, "MyMesh", string(tlvs[TagNetworkName]))
}

func TestDecodeTruncated(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want map[uint8][]byte
	}{
		{
			name: "Empty",
			data: nil,
			want: map[uint8][]byte{},
		},
		{
			name: "TagWithoutLength",
			data: []byte{0x03},
			want: map[uint8][]byte{},
		},
		{
			name: "LengthOverrunsBuffer",
			data: []byte{0x03, 0x06, 'M', 'y'},
			want: map[uint8][]byte{},
		},
		{
			name: "FirstRecordSurvivesTruncatedSecond",
			data: []byte{0x03, 0x02, 'h', 'i', 0x02, 0x08, 0xaa},
			want: map[uint8][]byte{0x03: {'h', 'i'}},
		},
		{
			name: "ZeroLengthValue",
			data: []byte{0x07, 0x00},
			want: map[uint8][]byte{0x07: {}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Decode(tt.data)
			require.Len(t, got, len(tt.want))
			for tag, val := range tt.want {
				assert.Equal(t, val, got[tag], "tag %d", tag)
			}
		})
	}
}

func TestDecodeUnknownTagsPreserved(t *testing.T) {
	tlvs := Decode([]byte{0xff, 0x01, 0x42})
	require.Contains(t, tlvs, uint8(0xff))
	assert.Equal(t, []byte{0x42}, tlvs[0xff])
}

func TestDecodeHexInvalid(t *testing.T) {
	assert.Empty(t, DecodeHex("not hex"))
	assert.Empty(t, DecodeHex("0z"))
}
