package weave

import (
	"filippo.io/edwards25519"

	"github.com/iov-one/weave-escrow/errors"
)

const (
	// MaxDerivationSeeds is the maximum number of seeds a derived
	// condition can be built from.
	MaxDerivationSeeds = 16

	// MaxSeedLength is the maximum length of a single seed.
	MaxSeedLength = 32
)

// FindDerivedCondition returns the derived condition for the given seeds
// together with the bump that was used to compute it.
//
// A derived condition is
//
//	ext/typ/seed_1|...|seed_n|bump
//
// and its address is the digest of that condition. Bumps are tried from 255
// down to 0 and the first one producing an address that is not a valid
// ed25519 point is used. That address cannot be the public key of any key
// pair, so only code that can rebuild the condition can authorize it.
//
// Store the returned bump to later recreate the same condition with
// CreateDerivedCondition.
func FindDerivedCondition(ext, typ string, seeds ...[]byte) (Condition, uint8, error) {
	data, err := derivationData(seeds)
	if err != nil {
		return nil, 0, err
	}
	for bump := 255; bump >= 0; bump-- {
		cond := derivedCondition(ext, typ, data, uint8(bump))
		if err := cond.Validate(); err != nil {
			return nil, 0, err
		}
		if !isOnCurve(cond.Address()) {
			return cond, uint8(bump), nil
		}
	}
	return nil, 0, errors.Wrap(errors.ErrState, "no bump produces an off curve address")
}

// CreateDerivedCondition rebuilds a derived condition for a known bump. It
// fails if the bump produces an address that could be owned by a key pair.
//
// Note that this function does not ensure the bump is the one that
// FindDerivedCondition would return. Compare addresses when that matters.
func CreateDerivedCondition(ext, typ string, bump uint8, seeds ...[]byte) (Condition, error) {
	data, err := derivationData(seeds)
	if err != nil {
		return nil, err
	}
	cond := derivedCondition(ext, typ, data, bump)
	if err := cond.Validate(); err != nil {
		return nil, err
	}
	if isOnCurve(cond.Address()) {
		return nil, errors.Wrapf(errors.ErrInput, "bump %d produces an on curve address", bump)
	}
	return cond, nil
}

func derivationData(seeds [][]byte) ([]byte, error) {
	if len(seeds) > MaxDerivationSeeds {
		return nil, errors.Wrapf(errors.ErrInput, "too many seeds: %d", len(seeds))
	}
	var data []byte
	for i, s := range seeds {
		if len(s) > MaxSeedLength {
			return nil, errors.Wrapf(errors.ErrInput, "seed %d too long: %d", i, len(s))
		}
		data = append(data, s...)
	}
	return data, nil
}

func derivedCondition(ext, typ string, data []byte, bump uint8) Condition {
	withBump := make([]byte, 0, len(data)+1)
	withBump = append(withBump, data...)
	withBump = append(withBump, bump)
	return NewCondition(ext, typ, withBump)
}

// isOnCurve returns true if given address is a valid encoding of an ed25519
// point.
func isOnCurve(a Address) bool {
	_, err := new(edwards25519.Point).SetBytes(a)
	return err == nil
}
