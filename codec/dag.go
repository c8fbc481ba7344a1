package codec

import (
	"fmt"
	"reflect"

	"github.com/fxamacker/cbor/v2"
	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multicodec"
	mh "github.com/multiformats/go-multihash"
)

// EncodedPayload is a content-addressed payload: the block holding the
// encoded bytes and the link identifying it. Both come out of a single
// EncodePayload call.
type EncodedPayload struct {
	Link        cid.Cid
	LinkedBlock []byte
}

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic(err)
	}
	decMode, err = cbor.DecOptions{
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
	}.DecMode()
	if err != nil {
		panic(err)
	}
}

// EncodePayload encodes payload deterministically as dag-cbor and returns the
// CIDv1 link plus the block bytes the link addresses.
func EncodePayload(payload any) (EncodedPayload, error) {
	block, err := encMode.Marshal(payload)
	if err != nil {
		return EncodedPayload{}, fmt.Errorf("encode payload: %w", err)
	}
	digest, err := mh.Sum(block, mh.SHA2_256, -1)
	if err != nil {
		return EncodedPayload{}, fmt.Errorf("hash payload: %w", err)
	}
	return EncodedPayload{
		Link:        cid.NewCidV1(uint64(multicodec.DagCbor), digest),
		LinkedBlock: block,
	}, nil
}

// PrepareCleartext encodes structured cleartext to deterministic CBOR bytes
// ahead of encryption.
func PrepareCleartext(obj any) ([]byte, error) {
	b, err := encMode.Marshal(obj)
	if err != nil {
		return nil, fmt.Errorf("prepare cleartext: %w", err)
	}
	return b, nil
}

// DecodeCleartext reverses PrepareCleartext, decoding CBOR bytes back into a
// string-keyed structure.
func DecodeCleartext(b []byte) (map[string]any, error) {
	var out map[string]any
	if err := decMode.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("decode cleartext: %w", err)
	}
	return out, nil
}
