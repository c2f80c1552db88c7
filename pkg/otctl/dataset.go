package otctl

import (
	"context"
	"encoding/hex"
	"fmt"
	"unicode/utf8"

	"github.com/otbr-tools/otbr-manager/pkg/meshtlv"
)

// Fixed dataset fields advertised alongside the sampled state.
const (
	// ThreadVersion is the Thread specification version string
	// published in the tv TXT property.
	ThreadVersion = "1.4.0"
)

// StateBitmap is the fixed border-agent state bitmap published in the
// sb TXT property: connection mode DTLS, Thread interface active.
var StateBitmap = []byte{0x00, 0x00, 0x00, 0x30}

// DatasetProperties is one snapshot of the operational dataset state
// needed to advertise the border router. All byte fields must be
// present; a partial snapshot is never produced.
type DatasetProperties struct {
	NetworkName     string
	ExtendedPanID   []byte // 8 bytes
	ExtendedAddress []byte // 8 bytes
	BorderAgentID   []byte // 16 bytes
	ThreadVersion   string
	StateBitmap     []byte // 4 bytes

	// Optional vendor/model text, from configuration.
	VendorName string
	ModelName  string
}

// SampleDataset queries the active dataset, the local extended address
// and the border-agent identifier, and assembles a DatasetProperties
// snapshot. This is the only path that decides whether the router
// currently has a valid operational dataset: any missing query, absent
// TLV tag or undecodable field yields ErrNoData, which downstream
// components treat as "unregister and wait".
func (c *Client) SampleDataset(ctx context.Context) (*DatasetProperties, error) {
	datasetHex, err := c.queryFirstLine(ctx, "dataset", "active", "-x")
	if err != nil {
		return nil, err
	}
	extaddrHex, err := c.queryFirstLine(ctx, "extaddr")
	if err != nil {
		return nil, err
	}
	baidHex, err := c.queryFirstLine(ctx, "ba", "id")
	if err != nil {
		return nil, err
	}

	tlvs := meshtlv.DecodeHex(datasetHex)
	networkName, ok := tlvs[meshtlv.TagNetworkName]
	if !ok || !utf8.Valid(networkName) {
		return nil, fmt.Errorf("%w: network name", ErrNoData)
	}
	extPanID, ok := tlvs[meshtlv.TagExtendedPanID]
	if !ok || len(extPanID) != 8 {
		return nil, fmt.Errorf("%w: extended pan id", ErrNoData)
	}

	extAddr, err := hex.DecodeString(extaddrHex)
	if err != nil || len(extAddr) != 8 {
		return nil, fmt.Errorf("%w: extended address", ErrNoData)
	}
	borderAgentID, err := hex.DecodeString(baidHex)
	if err != nil || len(borderAgentID) != 16 {
		return nil, fmt.Errorf("%w: border agent id", ErrNoData)
	}

	return &DatasetProperties{
		NetworkName:     string(networkName),
		ExtendedPanID:   extPanID,
		ExtendedAddress: extAddr,
		BorderAgentID:   borderAgentID,
		ThreadVersion:   ThreadVersion,
		StateBitmap:     StateBitmap,
		VendorName:      c.vendor,
		ModelName:       c.model,
	}, nil
}
