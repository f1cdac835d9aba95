package hdpath

import "fmt"

// Purpose values of the BIP43 schemes that keys are commonly derived under.
const (
	// PurposeBIP44 is the purpose of legacy pay-to-pubkey-hash accounts.
	PurposeBIP44 uint32 = 44

	// PurposeBIP49 is the purpose of nested segwit accounts.
	PurposeBIP49 uint32 = 49

	// PurposeBIP84 is the purpose of native segwit accounts.
	PurposeBIP84 uint32 = 84

	// PurposeBIP86 is the purpose of single key taproot accounts.
	PurposeBIP86 uint32 = 86

	// PurposeKeyFamily is the purpose of the key family scheme
	// m/1017'/coinType'/keyFamily'/0/index.
	PurposeKeyFamily uint32 = 1017
)

// Change branches of a BIP44 style account.
const (
	ExternalBranch uint32 = 0
	InternalBranch uint32 = 1
)

// hardened returns a hardened step, checking the index range.
func hardened(index uint32) (Step, error) {
	if index >= HardenedKeyStart {
		return Step{}, fmt.Errorf("%w: %d", ErrIndexOutOfRange, index)
	}

	return Step{Index: index, Hardened: true}, nil
}

// normal returns a non-hardened step, checking the index range.
func normal(index uint32) (Step, error) {
	if index >= HardenedKeyStart {
		return Step{}, fmt.Errorf("%w: %d", ErrIndexOutOfRange, index)
	}

	return Step{Index: index}, nil
}

// Account returns the path m/purpose'/coinType'/account'.
func Account(purpose, coinType, account uint32) (Path, error) {
	path := Path{Root: RootPrivate}
	for _, index := range []uint32{purpose, coinType, account} {
		step, err := hardened(index)
		if err != nil {
			return Path{}, err
		}
		path.Steps = append(path.Steps, step)
	}

	return path, nil
}

// BIP44 returns the path m/purpose'/coinType'/account'/branch/index used by
// BIP44 and its segwit successors.
func BIP44(purpose, coinType, account, branch, index uint32) (Path, error) {
	path, err := Account(purpose, coinType, account)
	if err != nil {
		return Path{}, err
	}

	for _, i := range []uint32{branch, index} {
		step, err := normal(i)
		if err != nil {
			return Path{}, err
		}
		path.Steps = append(path.Steps, step)
	}

	return path, nil
}

// KeyFamily returns the account path m/1017'/coinType'/family' below which the
// keys of a family live on branch 0.
func KeyFamily(coinType, family uint32) (Path, error) {
	return Account(PurposeKeyFamily, coinType, family)
}

// KeyFamilyKey returns the path m/1017'/coinType'/family'/0/index.
func KeyFamilyKey(coinType, family, index uint32) (Path, error) {
	return BIP44(PurposeKeyFamily, coinType, family, ExternalBranch, index)
}
