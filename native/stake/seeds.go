package stake

import (
	"errors"
	"fmt"

	"stakeledger/crypto"
)

// Tag selects the namespace of a derived address.
type Tag string

// Seed tags; the byte values are part of the address derivation and must not
// change.
const (
	TagStakePool Tag = "stake_pool"
	TagStakeInfo Tag = "stake_info"
	TagToken     Tag = "token"
)

var (
	errUnknownTag    = errors.New("stake: unknown seed tag")
	errOwnerRequired = errors.New("stake: seed tag requires an owner")
	errOwnerUnused   = errors.New("stake: seed tag takes no owner")
)

// Deriver maps (tag, owner) to a program derived address together with the
// program signature that authorises movements out of it.
type Deriver interface {
	Derive(tag Tag, owner *crypto.Address) (crypto.Address, crypto.ProgramSignature, error)
	Program() crypto.Address
}

type programDeriver struct {
	program crypto.Address
}

// NewDeriver returns the deriver for the stake program identified by program.
func NewDeriver(program crypto.Address) Deriver {
	return programDeriver{program: program}
}

func (d programDeriver) Program() crypto.Address { return d.program }

func (d programDeriver) Derive(tag Tag, owner *crypto.Address) (crypto.Address, crypto.ProgramSignature, error) {
	seeds := [][]byte{[]byte(tag)}
	switch tag {
	case TagStakePool:
		if owner != nil {
			return crypto.Address{}, crypto.ProgramSignature{}, errOwnerUnused
		}
	case TagStakeInfo, TagToken:
		if owner == nil {
			return crypto.Address{}, crypto.ProgramSignature{}, errOwnerRequired
		}
		seeds = append(seeds, owner.Bytes())
	default:
		return crypto.Address{}, crypto.ProgramSignature{}, fmt.Errorf("%w: %q", errUnknownTag, string(tag))
	}
	addr, bump, err := crypto.FindProgramAddress(seeds, d.program)
	if err != nil {
		return crypto.Address{}, crypto.ProgramSignature{}, err
	}
	return addr, crypto.ProgramSignature{Program: d.program, Seeds: seeds, Bump: bump}, nil
}

// DefaultProgramID identifies the stake program when no override is configured.
var DefaultProgramID = crypto.MustBytesToAddress(crypto.Keccak256([]byte("stakeledger/stake-program"))[12:])
