// Package oid generates the opaque identifiers quote records are keyed by.
//
// An ID is 12 bytes rendered as 24 lowercase hex characters: a 4-byte
// big-endian unix timestamp, a 5-byte per-process random salt, and a 3-byte
// counter seeded randomly at startup. Lexicographic order over the hex form
// therefore matches creation order across a single process and is stable
// enough across processes for feed scanning
package oid

import (
	"crypto/rand"
	"encoding/binary"
	"encoding/hex"
	"sync/atomic"
	"time"

	perr "quotary/internal/platform/errors"
)

// Len is the length of the hex form
const Len = 24

var (
	procSalt [5]byte
	counter  atomic.Uint32
)

func init() {
	if _, err := rand.Read(procSalt[:]); err != nil {
		panic("oid: cannot seed process salt: " + err.Error())
	}
	var seed [4]byte
	if _, err := rand.Read(seed[:]); err != nil {
		panic("oid: cannot seed counter: " + err.Error())
	}
	// only the low 3 bytes are encoded; seed into the lower half of that
	// window so the counter cannot wrap within a process lifetime
	counter.Store(binary.BigEndian.Uint32(seed[:]) & 0x7FFFFF)
}

// New returns a fresh identifier for the current time
func New() string { return NewAt(time.Now()) }

// NewAt returns a fresh identifier stamped with ts
func NewAt(ts time.Time) string {
	var b [12]byte
	binary.BigEndian.PutUint32(b[0:4], uint32(ts.Unix()))
	copy(b[4:9], procSalt[:])
	c := counter.Add(1)
	b[9] = byte(c >> 16)
	b[10] = byte(c >> 8)
	b[11] = byte(c)
	return hex.EncodeToString(b[:])
}

// Validate checks that s is a well-formed identifier. Hex must be
// lowercase: ids are compared as text, and uppercase sorts before
// lowercase, so a mixed-case cursor would rewind an ordered scan
func Validate(s string) error {
	if len(s) != Len {
		return perr.InvalidArgf("id must be %d hex chars, got %d", Len, len(s))
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return perr.InvalidArgf("id must be lowercase hex, got %q", s[i])
		}
	}
	return nil
}

// Next re-encodes the numeric value of id plus one. This advances a cursor
// by the smallest unit of the id space; there is no guarantee a record
// exists at the returned id, so callers must treat it as an approximate
// skip, not "skip one record"
func Next(id string) (string, error) {
	if err := Validate(id); err != nil {
		return "", err
	}
	b, _ := hex.DecodeString(id)
	for i := len(b) - 1; i >= 0; i-- {
		b[i]++
		if b[i] != 0 {
			break
		}
	}
	return hex.EncodeToString(b), nil
}

// Timestamp extracts the creation time embedded in id
func Timestamp(id string) (time.Time, error) {
	if err := Validate(id); err != nil {
		return time.Time{}, err
	}
	b, _ := hex.DecodeString(id)
	return time.Unix(int64(binary.BigEndian.Uint32(b[0:4])), 0).UTC(), nil
}
