// Package password hashes and verifies account passwords with argon2id.
//
// Hashes are encoded in the PHC string format so that the parameters used at
// creation time travel with the hash:
//
//	$argon2id$v=19$m=65536,t=3,p=1$<salt>$<key>
//
// Salt and key are unpadded standard base64. Verify re-derives the key with
// the embedded parameters and compares in constant time.
package password

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"golang.org/x/crypto/argon2"
	"golang.org/x/sync/semaphore"
)

// Params are the argon2id cost parameters.
type Params struct {
	Iterations uint32
	Memory     uint32 // KiB
	Threads    uint8
	SaltLength uint32
	KeyLength  uint32
}

// DefaultParams returns the parameters used for new hashes.
func DefaultParams() Params {
	return Params{
		Iterations: 3,
		Memory:     64 * 1024,
		Threads:    1,
		SaltLength: 16,
		KeyLength:  32,
	}
}

func (p Params) validate() error {
	var errs []error
	if p.Iterations == 0 {
		errs = append(errs, errors.New("missing iterations"))
	}
	if p.Memory == 0 {
		errs = append(errs, errors.New("missing memory"))
	}
	if p.Threads == 0 {
		errs = append(errs, errors.New("missing threads"))
	}
	if p.SaltLength < 8 {
		errs = append(errs, errors.New("salt length must be at least 8"))
	}
	if p.KeyLength < 16 {
		errs = append(errs, errors.New("key length must be at least 16"))
	}
	return errors.Join(errs...)
}

var (
	// ErrEntropy is returned when the random source fails to produce a salt.
	ErrEntropy = errors.New("password: reading salt")

	errMalformed = errors.New("password: malformed hash")
)

// maxMemory bounds the memory parameter accepted from stored hashes (4 GiB).
const maxMemory = 4 * 1024 * 1024

// Hasher hashes and verifies passwords. It is safe for concurrent use; at
// most Permits derivations run at once.
type Hasher struct {
	params   Params
	permits  *semaphore.Weighted
	rand     io.Reader
	observer func(op string, d time.Duration)
}

// Option configures a Hasher.
type Option func(*Hasher)

// WithParams overrides the cost parameters for new hashes.
func WithParams(p Params) Option {
	return func(h *Hasher) { h.params = p }
}

// WithPermits limits concurrent derivations. Values below 1 are ignored.
func WithPermits(n int) Option {
	return func(h *Hasher) {
		if n > 0 {
			h.permits = semaphore.NewWeighted(int64(n))
		}
	}
}

// WithRandReader replaces the salt source.
func WithRandReader(r io.Reader) Option {
	return func(h *Hasher) { h.rand = r }
}

// WithObserver registers fn to be called with the duration of every
// derivation ("hash" or "verify"), excluding time spent waiting for a permit.
func WithObserver(fn func(op string, d time.Duration)) Option {
	return func(h *Hasher) { h.observer = fn }
}

// New creates a Hasher.
func New(opts ...Option) (*Hasher, error) {
	h := &Hasher{
		params:  DefaultParams(),
		permits: semaphore.NewWeighted(4),
		rand:    rand.Reader,
	}
	for _, o := range opts {
		o(h)
	}
	if err := h.params.validate(); err != nil {
		return nil, fmt.Errorf("password: invalid params: %w", err)
	}
	return h, nil
}

// Hash derives a new encoded hash for secret using a fresh random salt.
func (h *Hasher) Hash(ctx context.Context, secret string) (string, error) {
	salt := make([]byte, h.params.SaltLength)
	if _, err := io.ReadFull(h.rand, salt); err != nil {
		return "", fmt.Errorf("%w: %w", ErrEntropy, err)
	}

	key, err := h.derive(ctx, "hash", []byte(secret), salt, h.params)
	if err != nil {
		return "", err
	}
	return encode(h.params, salt, key), nil
}

// Verify reports whether secret matches encoded. A malformed hash or a
// cancelled context yields false.
func (h *Hasher) Verify(ctx context.Context, secret, encoded string) bool {
	p, salt, want, err := decode(encoded)
	if err != nil {
		return false
	}
	got, err := h.derive(ctx, "verify", []byte(secret), salt, p)
	if err != nil {
		return false
	}
	return subtle.ConstantTimeCompare(got, want) == 1
}

// SelfTest hashes and verifies a random secret. Startup aborts when it fails.
func (h *Hasher) SelfTest(ctx context.Context) error {
	buf := make([]byte, 16)
	if _, err := io.ReadFull(h.rand, buf); err != nil {
		return fmt.Errorf("%w: %w", ErrEntropy, err)
	}
	secret := base64.RawStdEncoding.EncodeToString(buf)
	encoded, err := h.Hash(ctx, secret)
	if err != nil {
		return err
	}
	if !h.Verify(ctx, secret, encoded) {
		return errors.New("password: self-test verification failed")
	}
	return nil
}

func (h *Hasher) derive(ctx context.Context, op string, secret, salt []byte, p Params) ([]byte, error) {
	if err := h.permits.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("password: waiting for hashing permit: %w", err)
	}
	defer h.permits.Release(1)

	start := time.Now()
	key := argon2.IDKey(secret, salt, p.Iterations, p.Memory, p.Threads, p.KeyLength)
	if h.observer != nil {
		h.observer(op, time.Since(start))
	}
	return key, nil
}

func encode(p Params, salt, key []byte) string {
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, p.Memory, p.Iterations, p.Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key))
}

func decode(encoded string) (Params, []byte, []byte, error) {
	var p Params

	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != "argon2id" {
		return p, nil, nil, errMalformed
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return p, nil, nil, errMalformed
	}

	var threads uint32
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.Memory, &p.Iterations, &threads); err != nil {
		return p, nil, nil, errMalformed
	}
	if p.Memory == 0 || p.Memory > maxMemory || p.Iterations == 0 || threads == 0 || threads > 255 {
		return p, nil, nil, errMalformed
	}
	p.Threads = uint8(threads)

	salt, err := base64.RawStdEncoding.Strict().DecodeString(parts[4])
	if err != nil || len(salt) == 0 {
		return p, nil, nil, errMalformed
	}
	key, err := base64.RawStdEncoding.Strict().DecodeString(parts[5])
	if err != nil || len(key) == 0 {
		return p, nil, nil, errMalformed
	}
	p.SaltLength = uint32(len(salt))
	p.KeyLength = uint32(len(key))

	return p, salt, key, nil
}
