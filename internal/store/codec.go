// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// Tree values are CBOR arrays of text strings. Core deterministic encoding
// keeps identical lists byte-identical on disk.
var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("store: building CBOR encoder: %v", err))
	}
	decMode, err = cbor.DecOptions{
		UTF8:             cbor.UTF8RejectInvalid,
		DupMapKey:        cbor.DupMapKeyEnforcedAPF,
		MaxArrayElements: 1 << 27,
	}.DecMode()
	if err != nil {
		panic(fmt.Sprintf("store: building CBOR decoder: %v", err))
	}
}

func encodeList(list []string) ([]byte, error) {
	data, err := encMode.Marshal(list)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncode, err)
	}
	return data, nil
}

func decodeList(t tree, key, data []byte) ([]string, error) {
	var list []string
	if err := decMode.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("%w: %s entry %q: %v", ErrCorrupt, t, key, err)
	}
	return list, nil
}
