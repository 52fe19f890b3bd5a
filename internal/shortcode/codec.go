// Package shortcode maps monotonic counter values to fixed-length, URL-safe
// shortcodes. The mapping is an affine permutation of [0, 62^length): the
// multiplicative term scrambles every digit so consecutive counters don't
// produce near-identical codes, and coprimality of the multiplier with the
// modulus keeps the mapping bijective, so no collision handling is needed
// downstream.
package shortcode

import (
	"errors"
	"fmt"
	"math/bits"

	"github.com/cespare/xxhash/v2"
)

// alphabet order is fixed for interoperability; reordering it would change
// every code ever issued.
const alphabet = "0123456789abcdefghijklmnopqrstuvwxyz" +
	"ABCDEFGHIJKLMNOPQRSTUVWXYZ"

const base = uint64(len(alphabet))

// MaxLength bounds the code length so that 62^length fits in a uint64.
const MaxLength = 10

// ErrKeyspaceExhausted is returned when the counter has reached the codec
// modulus. Wrapping around would reintroduce collisions across reused
// counters, so encoding hard-fails instead.
var ErrKeyspaceExhausted = errors.New("shortcode keyspace exhausted")

// Codec deterministically encodes counter values into shortcodes of a fixed
// length. A Codec is immutable and safe for concurrent use.
type Codec struct {
	multiplier uint64
	saltOffset uint64
	length     int
	modulus    uint64
}

// New validates the codec parameters and returns a ready Codec. Invalid
// parameters are a configuration error surfaced at startup, never at encode
// time.
func New(salt string, multiplier uint64, length int) (*Codec, error) {
	const op = "shortcode.New"

	if salt == "" {
		return nil, fmt.Errorf("%s: salt must be non-empty", op)
	}
	if length < 1 || length > MaxLength {
		return nil, fmt.Errorf("%s: length must be in [1, %d], got %d", op, MaxLength, length)
	}
	if multiplier == 0 {
		return nil, fmt.Errorf("%s: multiplier must be positive", op)
	}

	modulus := uint64(1)
	for i := 0; i < length; i++ {
		modulus *= base
	}

	if gcd(multiplier, modulus) != 1 {
		return nil, fmt.Errorf("%s: multiplier %d is not coprime with 62^%d", op, multiplier, length)
	}

	return &Codec{
		// Reducing the multiplier mod the modulus preserves both the
		// permutation and coprimality, and keeps the modular
		// multiplication below overflow-free bounds.
		multiplier: multiplier % modulus,
		saltOffset: xxhash.Sum64String(salt) % modulus,
		length:     length,
		modulus:    modulus,
	}, nil
}

// Length returns the fixed length of codes produced by the codec.
func (c *Codec) Length() int {
	return c.length
}

// Modulus returns the size of the codec keyspace, 62^length.
func (c *Codec) Modulus() uint64 {
	return c.modulus
}

// Encode maps a counter value to its shortcode. Counters at or beyond the
// modulus mean the keyspace is spent and return ErrKeyspaceExhausted.
func (c *Codec) Encode(counter uint64) (string, error) {
	const op = "shortcode.Codec.Encode"

	if counter >= c.modulus {
		return "", fmt.Errorf("%s: counter %d exceeds modulus %d: %w",
			op, counter, c.modulus, ErrKeyspaceExhausted)
	}

	// (counter * multiplier + saltOffset) mod modulus, computed via a 128-bit
	// intermediate so the product never truncates.
	hi, lo := bits.Mul64(counter, c.multiplier)
	_, permuted := bits.Div64(hi, lo, c.modulus)
	permuted = (permuted + c.saltOffset) % c.modulus

	buf := make([]byte, c.length)
	for i := c.length - 1; i >= 0; i-- {
		buf[i] = alphabet[permuted%base]
		permuted /= base
	}

	return string(buf), nil
}

func gcd(a, b uint64) uint64 {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}
