package mdns

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestServiceRecordFullName(t *testing.T) {
	rec := &ServiceRecord{Instance: "MyMesh", Service: "_meshcop._udp"}
	assert.Equal(t, "MyMesh._meshcop._udp.local.", rec.FullName())
}

func TestHostForRegistration(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"otbr-server.local.", "otbr-server"},
		{"otbr-server.local", "otbr-server"},
		{"2E278F1D98E1714D.local.", "2E278F1D98E1714D"},
		{"otbr-server", "otbr-server"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, hostForRegistration(tt.in), "input %q", tt.in)
	}
}
