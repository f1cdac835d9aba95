package chainparams

import (
	"github.com/btcsuite/btcd/btcutil/base58"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	litecoinCfg "github.com/ltcsuite/ltcd/chaincfg"
)

// Chain names a family of networks that share address magics and a master
// key label.
type Chain string

const (
	// Bitcoin is the Bitcoin chain family.
	Bitcoin Chain = "bitcoin"

	// Litecoin is the Litecoin chain family.
	Litecoin Chain = "litecoin"

	// Ravencoin is the Ravencoin chain family.
	Ravencoin Chain = "ravencoin"
)

const (
	// CoinTypeBitcoin specifies the BIP44 coin type for Bitcoin key
	// derivation.
	CoinTypeBitcoin uint32 = 0

	// CoinTypeTestnet specifies the BIP44 coin type for all testnet key
	// derivation.
	CoinTypeTestnet uint32 = 1

	// CoinTypeLitecoin specifies the BIP44 coin type for Litecoin key
	// derivation.
	CoinTypeLitecoin uint32 = 2

	// CoinTypeRavencoin specifies the BIP44 coin type for Ravencoin key
	// derivation.
	CoinTypeRavencoin uint32 = 175
)

var (
	// BitcoinMasterKey is the HMAC key used to turn a seed into a master
	// node on the Bitcoin and Litecoin chains.
	BitcoinMasterKey = []byte("Bitcoin seed")

	// RavencoinMasterKey is the HMAC key used to turn a seed into a master
	// node on the Ravencoin chain.
	RavencoinMasterKey = []byte("Ravencoin seed")
)

// Network couples the chain parameters of a network with what hierarchical
// key derivation needs to know about it: the extended key version bytes
// (carried by the embedded params), the HMAC key for master generation and
// the BIP44 coin type.
type Network struct {
	*chaincfg.Params

	// Chain is the family this network belongs to.
	Chain Chain

	// TestNet is true for every network that is not the production
	// network of its chain.
	TestNet bool

	// MasterKeyLabel is the HMAC-SHA512 key applied to a seed to produce
	// the master node.
	MasterKeyLabel []byte

	// CoinType is the BIP44 coin type used on this network.
	CoinType uint32
}

// ID returns the unique registry name of the network, e.g.
// "bitcoin-testnet3".
func (n *Network) ID() string {
	return string(n.Chain) + "-" + n.Name
}

// String returns the registry name of the network.
func (n *Network) String() string {
	return n.ID()
}

// VersionFor returns the extended key version bytes for private or public
// keys on this network.
func (n *Network) VersionFor(private bool) [4]byte {
	if private {
		return n.HDPrivateKeyID
	}

	return n.HDPublicKeyID
}

// HasVersion reports whether version is either of the network's extended
// key versions, and if so whether it denotes a private key.
func (n *Network) HasVersion(version [4]byte) (bool, bool) {
	switch version {
	case n.HDPrivateKeyID:
		return true, true

	case n.HDPublicKeyID:
		return false, true
	}

	return false, false
}

// KeyPrefix returns the leading characters every Base58Check encoded
// extended key of the given kind starts with on this network. The prefix is
// not stored anywhere; it falls out of the version constant.
func (n *Network) KeyPrefix(private bool) string {
	var payload [82]byte
	version := n.VersionFor(private)
	copy(payload[:4], version[:])

	return base58.Encode(payload[:])[:4]
}

// bitcoinNetwork wraps one of btcd's parameter sets.
func bitcoinNetwork(params *chaincfg.Params, testNet bool,
	coinType uint32) *Network {

	return &Network{
		Params:         params,
		Chain:          Bitcoin,
		TestNet:        testNet,
		MasterKeyLabel: BitcoinMasterKey,
		CoinType:       coinType,
	}
}

var (
	// BitcoinMainNet is the Bitcoin production network.
	BitcoinMainNet = bitcoinNetwork(
		&chaincfg.MainNetParams, false, CoinTypeBitcoin,
	)

	// BitcoinTestNet3 is the third version of the Bitcoin test network.
	BitcoinTestNet3 = bitcoinNetwork(
		&chaincfg.TestNet3Params, true, CoinTypeTestnet,
	)

	// BitcoinRegTest is a local Bitcoin regression test network.
	BitcoinRegTest = bitcoinNetwork(
		&chaincfg.RegressionNetParams, true, CoinTypeTestnet,
	)

	// BitcoinSimNet is the btcd simulation test network.
	BitcoinSimNet = bitcoinNetwork(
		&chaincfg.SimNetParams, true, CoinTypeTestnet,
	)

	// LitecoinMainNet is the Litecoin production network.
	LitecoinMainNet = litecoinNetwork(
		&litecoinCfg.MainNetParams, false, CoinTypeLitecoin,
	)

	// LitecoinTestNet4 is the fourth version of the Litecoin test network.
	LitecoinTestNet4 = litecoinNetwork(
		&litecoinCfg.TestNet4Params, true, CoinTypeTestnet,
	)

	// RavencoinMainNet is the Ravencoin production network.
	RavencoinMainNet = ravencoinNetwork(ravencoinMainNetParams())

	// RavencoinTestNet is the Ravencoin test network.
	RavencoinTestNet = ravencoinNetwork(ravencoinTestNetParams())
)

var (
	// litecoinMainNetHDPrivateKeyID and litecoinMainNetHDPublicKeyID are
	// the Ltpv/Ltub extended key versions of Litecoin mainnet.
	litecoinMainNetHDPrivateKeyID = [4]byte{0x01, 0x9d, 0x9c, 0xfe}
	litecoinMainNetHDPublicKeyID  = [4]byte{0x01, 0x9d, 0xa4, 0x62}

	// litecoinTestNetHDPrivateKeyID and litecoinTestNetHDPublicKeyID are
	// the ttpv/ttub extended key versions of Litecoin testnet4.
	litecoinTestNetHDPrivateKeyID = [4]byte{0x04, 0x36, 0xef, 0x7d}
	litecoinTestNetHDPublicKeyID  = [4]byte{0x04, 0x36, 0xf6, 0xe1}
)

// litecoinNetwork copies the parameters of a Litecoin network that matter
// for key handling into a btcd parameter set, so the rest of the code can
// stay typed on btcsuite's chaincfg.
func litecoinNetwork(ltcParams *litecoinCfg.Params, testNet bool,
	coinType uint32) *Network {

	base := chaincfg.MainNetParams
	if testNet {
		base = chaincfg.TestNet3Params
	}
	params := base

	params.Name = ltcParams.Name
	params.Net = wire.BitcoinNet(ltcParams.Net)
	params.DefaultPort = ltcParams.DefaultPort
	params.DNSSeeds = nil
	params.Checkpoints = nil

	genesisHash := chainhash.Hash(*ltcParams.GenesisHash)
	params.GenesisHash = &genesisHash

	// Address encoding magics.
	params.PubKeyHashAddrID = ltcParams.PubKeyHashAddrID
	params.ScriptHashAddrID = ltcParams.ScriptHashAddrID
	params.PrivateKeyID = ltcParams.PrivateKeyID
	params.WitnessPubKeyHashAddrID = ltcParams.WitnessPubKeyHashAddrID
	params.WitnessScriptHashAddrID = ltcParams.WitnessScriptHashAddrID
	params.Bech32HRPSegwit = ltcParams.Bech32HRPSegwit

	// BIP32 hierarchical deterministic extended key magics. The ltcd
	// parameters carry the Bitcoin xprv/tprv versions, Litecoin wallets
	// use their own.
	params.HDPrivateKeyID = litecoinMainNetHDPrivateKeyID
	params.HDPublicKeyID = litecoinMainNetHDPublicKeyID
	if testNet {
		params.HDPrivateKeyID = litecoinTestNetHDPrivateKeyID
		params.HDPublicKeyID = litecoinTestNetHDPublicKeyID
	}
	params.HDCoinType = ltcParams.HDCoinType

	return &Network{
		Params:         &params,
		Chain:          Litecoin,
		TestNet:        testNet,
		MasterKeyLabel: BitcoinMasterKey,
		CoinType:       coinType,
	}
}

// ravencoinMainNetParams returns the Ravencoin production parameters. The
// extended key versions are shared with Bitcoin mainnet.
func ravencoinMainNetParams() chaincfg.Params {
	params := chaincfg.MainNetParams

	params.Name = "mainnet"
	params.Net = wire.BitcoinNet(0x4e564152)
	params.DefaultPort = "8767"
	params.DNSSeeds = nil
	params.Checkpoints = nil
	params.Bech32HRPSegwit = ""

	params.PubKeyHashAddrID = 0x3c // starts with R
	params.ScriptHashAddrID = 0x7a // starts with r
	params.PrivateKeyID = 0x80

	params.HDCoinType = CoinTypeRavencoin

	return params
}

// ravencoinTestNetParams returns the Ravencoin test network parameters. The
// extended key versions are shared with Bitcoin testnet3.
func ravencoinTestNetParams() chaincfg.Params {
	params := chaincfg.TestNet3Params

	params.Name = "testnet"
	params.Net = wire.BitcoinNet(0x544e5652)
	params.DefaultPort = "18770"
	params.DNSSeeds = nil
	params.Checkpoints = nil
	params.Bech32HRPSegwit = ""

	params.PubKeyHashAddrID = 0x6f
	params.ScriptHashAddrID = 0xc4
	params.PrivateKeyID = 0xef

	params.HDCoinType = CoinTypeTestnet

	return params
}

func ravencoinNetwork(params chaincfg.Params) *Network {
	testNet := params.Name != "mainnet"

	coinType := CoinTypeRavencoin
	if testNet {
		coinType = CoinTypeTestnet
	}

	return &Network{
		Params:         &params,
		Chain:          Ravencoin,
		TestNet:        testNet,
		MasterKeyLabel: RavencoinMasterKey,
		CoinType:       coinType,
	}
}
