package dataset

import (
	"encoding/hex"

	"github.com/minio/highwayhash"
)

var digestKey = []byte("esmtune-dataset-digest-key-0001!")

// Digest hashes data with highwayhash-64.
func Digest(data []byte) (uint64, error) {
	h, err := highwayhash.New64(digestKey)
	if err != nil {
		return 0, err
	}
	if _, err = h.Write(data); err != nil {
		return 0, err
	}
	return h.Sum64(), nil
}

// DigestHex hashes data and renders the full highwayhash digest as hex.
func DigestHex(data []byte) (string, error) {
	h, err := highwayhash.New(digestKey)
	if err != nil {
		return "", err
	}
	if _, err = h.Write(data); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
