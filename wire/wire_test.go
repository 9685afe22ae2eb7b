package wire

import (
	"testing"
	"time"

	"github.com/qosrouted/routingd/lsdb"
	"github.com/qosrouted/routingd/qos"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHello_RoundTrip(t *testing.T) {
	h := Hello{RouterID: "R1", Timestamp: 12345.5}

	data, err := EncodeHello(h)
	require.NoError(t, err)

	typ, err := PacketType(data)
	require.NoError(t, err)
	assert.Equal(t, TypeHello, typ)

	decoded, err := DecodeHello(data)
	require.NoError(t, err)
	assert.Equal(t, h, decoded)
}

func TestLSA_RoundTrip(t *testing.T) {
	bw := 100.0
	entry := lsdb.Entry{
		Origin: "R1",
		Seq:    7,
		Links: map[string]lsdb.LinkSnapshot{
			"R2": {
				Cost: 12.5,
				Sample: qos.Sample{
					LatencyMS:      10,
					JitterMS:       2,
					LossPercent:    0,
					BandwidthMbps:  bw,
					BandwidthKnown: true,
				},
			},
		},
		Prefixes:   []string{"10.0.1.0/24"},
		ReceivedAt: time.Now(),
	}

	data, err := EncodeLSA(entry, 8)
	require.NoError(t, err)

	typ, err := PacketType(data)
	require.NoError(t, err)
	assert.Equal(t, TypeLSA, typ)

	decoded, err := DecodeLSA(data)
	require.NoError(t, err)
	assert.Equal(t, "R1", decoded.Origin)
	assert.Equal(t, uint64(7), decoded.Seq)
	assert.Equal(t, 8, decoded.TTL)
	assert.Equal(t, []string{"10.0.1.0/24"}, decoded.Prefixes)

	link := decoded.Links["R2"]
	assert.Equal(t, 12.5, link.Cost)
	assert.True(t, link.Sample.BandwidthKnown)
	assert.Equal(t, 100.0, link.Sample.BandwidthMbps)
}

func TestLSA_NilBandwidthRoundTrips(t *testing.T) {
	entry := lsdb.Entry{
		Origin: "R1",
		Seq:    1,
		Links: map[string]lsdb.LinkSnapshot{
			"R2": {Cost: 5, Sample: qos.Sample{}},
		},
	}

	data, err := EncodeLSA(entry, 8)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"bandwidth_mbps":null`)

	decoded, err := DecodeLSA(data)
	require.NoError(t, err)
	assert.False(t, decoded.Links["R2"].Sample.BandwidthKnown)
}

func TestDecodeLSA_RejectsSeqZero(t *testing.T) {
	_, err := DecodeLSA([]byte(`{"type":"lsa","origin":"R1","seq":0,"ttl":8,"links":{}}`))
	assert.Error(t, err)
}

func TestDecodeLSA_RejectsNegativeTTL(t *testing.T) {
	_, err := DecodeLSA([]byte(`{"type":"lsa","origin":"R1","seq":1,"ttl":-1,"links":{}}`))
	assert.Error(t, err)
}

func TestDecodeLSA_RejectsMissingOrigin(t *testing.T) {
	_, err := DecodeLSA([]byte(`{"type":"lsa","seq":1,"ttl":8,"links":{}}`))
	assert.Error(t, err)
}

func TestDecodeHello_RejectsMissingRouterID(t *testing.T) {
	_, err := DecodeHello([]byte(`{"type":"hello","timestamp":1.0}`))
	assert.Error(t, err)
}

func TestLSA_WithDecrementedTTL(t *testing.T) {
	l := LSA{TTL: 5}
	assert.Equal(t, 4, l.WithDecrementedTTL().TTL)
	assert.Equal(t, 5, l.TTL, "original must be unmodified")
}

func TestPacketType_RejectsMalformed(t *testing.T) {
	_, err := PacketType([]byte(`not json`))
	assert.Error(t, err)
}
