package crypto

import (
	"bytes"
	"errors"
	"fmt"
)

const (
	// MaxSeeds bounds the number of seeds, bump included, mixed into a
	// program address.
	MaxSeeds = 16
	// MaxSeedLen bounds the length of a single seed.
	MaxSeedLen = 32
)

var pdaMarker = []byte("ProgramDerivedAddress")

var (
	// ErrInvalidSeeds reports seeds that cannot yield a program address.
	ErrInvalidSeeds = errors.New("crypto: invalid program address seeds")
	// ErrNoViableBump is returned when every bump lands in the reserved range.
	ErrNoViableBump = errors.New("crypto: unable to find a viable program address bump")
)

// CreateProgramAddress derives the account address owned by program for the
// exact seed list. No private key exists for the result: the address is the
// tail of a keccak256 digest over the seeds, the program id and a fixed marker,
// so only the program presenting the same seeds can act for it.
func CreateProgramAddress(seeds [][]byte, program Address) (Address, error) {
	if len(seeds) > MaxSeeds {
		return Address{}, fmt.Errorf("%w: %d seeds exceeds %d", ErrInvalidSeeds, len(seeds), MaxSeeds)
	}
	parts := make([][]byte, 0, len(seeds)+2)
	for i, seed := range seeds {
		if len(seed) > MaxSeedLen {
			return Address{}, fmt.Errorf("%w: seed %d is %d bytes", ErrInvalidSeeds, i, len(seed))
		}
		parts = append(parts, seed)
	}
	parts = append(parts, program[:], pdaMarker)
	digest := Keccak256(parts...)
	addr := MustBytesToAddress(digest[len(digest)-AddressLength:])
	if reservedAddress(addr, program) {
		return Address{}, fmt.Errorf("%w: derived address is reserved", ErrInvalidSeeds)
	}
	return addr, nil
}

// reservedAddress rejects the program id itself and the low precompile range
// (first 19 bytes zero) so derived accounts never alias system identities.
func reservedAddress(addr, program Address) bool {
	if addr == program {
		return true
	}
	return bytes.Equal(addr[:AddressLength-1], make([]byte, AddressLength-1))
}

// FindProgramAddress searches bumps from 255 down to 0, appending each as the
// final seed, and returns the first viable address with its bump.
func FindProgramAddress(seeds [][]byte, program Address) (Address, uint8, error) {
	if len(seeds) >= MaxSeeds {
		return Address{}, 0, fmt.Errorf("%w: no room for bump seed", ErrInvalidSeeds)
	}
	candidate := make([][]byte, len(seeds)+1)
	copy(candidate, seeds)
	for bump := 255; bump >= 0; bump-- {
		candidate[len(seeds)] = []byte{byte(bump)}
		addr, err := CreateProgramAddress(candidate, program)
		if err == nil {
			return addr, uint8(bump), nil
		}
		if !errors.Is(err, ErrInvalidSeeds) {
			return Address{}, 0, err
		}
	}
	return Address{}, 0, ErrNoViableBump
}

// ProgramSignature is the evidence a program presents to act for one of its
// derived addresses in place of a private key signature.
type ProgramSignature struct {
	Program Address
	Seeds   [][]byte
	Bump    uint8
}

// Address re-derives the account the signature speaks for.
func (s ProgramSignature) Address() (Address, error) {
	seeds := make([][]byte, len(s.Seeds)+1)
	copy(seeds, s.Seeds)
	seeds[len(s.Seeds)] = []byte{s.Bump}
	return CreateProgramAddress(seeds, s.Program)
}

// Verify reports whether the signature re-derives to target.
func (s ProgramSignature) Verify(target Address) bool {
	addr, err := s.Address()
	if err != nil {
		return false
	}
	return addr == target
}
