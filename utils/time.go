package utils

import (
	"encoding/binary"
	"time"
)

func TimeToBytes(t time.Time) []byte {
	var ret [8]byte
	binary.BigEndian.PutUint64(ret[:], uint64(t.UTC().UnixNano()))
	return ret[:]
}

func BytesToTime(data []byte) time.Time {
	if len(data) != 8 {
		return time.Time{}
	}
	return time.Unix(0, int64(binary.BigEndian.Uint64(data)))
}
