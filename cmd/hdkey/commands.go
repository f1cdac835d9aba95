package main

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/ravenlabs/hdkeys/chainparams"
	"github.com/ravenlabs/hdkeys/hdcfg"
	"github.com/ravenlabs/hdkeys/hdkey"
	"github.com/ravenlabs/hdkeys/keychain"
	"github.com/tv42/zbase32"
	"github.com/urfave/cli"
	"golang.org/x/term"
)

// stdin is where seeds are read from when they are not passed as argument.
var stdin io.Reader = os.Stdin

var hintFlag = cli.StringSliceFlag{
	Name: "hint",
	Usage: "A network the version bytes of the key are resolved " +
		"against, may be given multiple times. Without hints the " +
		"configured network is tried first, then all known networks.",
}

// printJSON writes resp as indented JSON to the app's output.
func printJSON(ctx *cli.Context, resp interface{}) error {
	b, err := json.Marshal(resp)
	if err != nil {
		return err
	}

	var out bytes.Buffer
	_ = json.Indent(&out, b, "", "    ")
	_, _ = out.WriteString("\n")
	_, err = out.WriteTo(ctx.App.Writer)

	return err
}

// keyResponse is the output of every command that produces a single key.
type keyResponse struct {
	hdkey.Object

	Path    string `json:"path,omitempty"`
	Address string `json:"address"`
	WIF     string `json:"wif,omitempty"`
}

// newKeyResponse describes key together with its public forms, its
// pay-to-pubkey-hash address and, for private keys, the WIF encoding of the
// private key.
func newKeyResponse(key *hdkey.ExtendedKey, path string) (*keyResponse,
	error) {

	params := key.Network().Params

	pub := key.PubKeyBytes()
	addr, err := btcutil.NewAddressPubKeyHash(
		btcutil.Hash160(pub[:]), params,
	)
	if err != nil {
		return nil, err
	}

	resp := &keyResponse{
		Object:  key.Object(),
		Path:    path,
		Address: addr.EncodeAddress(),
	}

	if key.IsPrivate() {
		// The object form of a private key leaves out the public
		// forms, the tool always prints them.
		pubObj := key.Neuter().Object()
		resp.PublicKey = pubObj.PublicKey
		resp.XPubKey = pubObj.XPubKey

		privKey, err := key.ECPrivKey()
		if err != nil {
			return nil, err
		}

		wif, err := btcutil.NewWIF(privKey, params, true)
		if err != nil {
			return nil, err
		}
		resp.WIF = wif.String()
	}

	return resp, nil
}

// decodeHints returns the networks a serialized key given to the command is
// resolved against.
func decodeHints(ctx *cli.Context,
	cfg *hdcfg.Config) ([]*chainparams.Network, error) {

	names := ctx.StringSlice(hintFlag.Name)
	if len(names) > 0 {
		nets := make([]*chainparams.Network, 0, len(names))
		for _, name := range names {
			net, err := chainparams.ByName(name)
			if err != nil {
				return nil, err
			}
			nets = append(nets, net)
		}

		return nets, nil
	}

	// The default network needs no preference, it is also first in the
	// registry.
	if cfg.Network == hdcfg.DefaultNetwork {
		return nil, nil
	}

	return append(
		[]*chainparams.Network{cfg.ActiveNetwork()}, chainparams.All()...,
	), nil
}

// decodeKey parses a serialized extended key argument.
func decodeKey(ctx *cli.Context, cfg *hdcfg.Config,
	serialized string) (*hdkey.ExtendedKey, error) {

	nets, err := decodeHints(ctx, cfg)
	if err != nil {
		return nil, err
	}

	return hdkey.NewKeyFromString(strings.TrimSpace(serialized), nets...)
}

// readSeed returns the hex seed from the first argument, a terminal prompt or
// standard input, in that order.
func readSeed(ctx *cli.Context) ([]byte, error) {
	var seedHex string
	switch {
	case ctx.NArg() > 0:
		seedHex = ctx.Args().First()

	case stdin == os.Stdin && term.IsTerminal(int(os.Stdin.Fd())):
		fmt.Fprint(ctx.App.ErrWriter, "Input hex seed: ")
		seed, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(ctx.App.ErrWriter)
		if err != nil {
			return nil, err
		}
		seedHex = string(seed)

	default:
		seed, err := io.ReadAll(stdin)
		if err != nil {
			return nil, err
		}
		seedHex = string(seed)
	}

	seed, err := hex.DecodeString(strings.TrimSpace(seedHex))
	if err != nil {
		return nil, fmt.Errorf("%w: seed is not hex: %v",
			hdkey.ErrMalformedSeed, err)
	}

	return seed, nil
}

var masterCommand = cli.Command{
	Name:      "master",
	Usage:     "Create the master key of a seed.",
	ArgsUsage: "[seed]",
	Description: `
	Create the master extended private key of a hex encoded seed on the
	configured network. If the seed is not given as argument it is read
	from a terminal prompt without echo, or from standard input.

	hdkey --network=ravencoin-mainnet master 000102030405060708090a0b0c0d0e0f
	`,
	Action: master,
}

func master(ctx *cli.Context) error {
	cfg := getConfig(ctx)

	seed, err := readSeed(ctx)
	if err != nil {
		return err
	}

	key, err := hdkey.NewMaster(seed, cfg.ActiveNetwork())
	if err != nil {
		return err
	}

	log.Debugf("Created master key %x on %v", key.Fingerprint(),
		key.Network())

	resp, err := newKeyResponse(key, "m")
	if err != nil {
		return err
	}

	return printJSON(ctx, resp)
}

// genSeedResponse is the output of the genseed command.
type genSeedResponse struct {
	Seed   string       `json:"seed"`
	Master *keyResponse `json:"master"`
}

var genSeedCommand = cli.Command{
	Name:  "genseed",
	Usage: "Generate a random seed and its master key.",
	Flags: []cli.Flag{
		cli.UintFlag{
			Name:  "bytes",
			Value: hdkey.RecommendedSeedLen,
			Usage: fmt.Sprintf("The seed length in bytes, between "+
				"%d and %d.", hdkey.MinSeedBytes,
				hdkey.MaxSeedBytes),
		},
	},
	Action: genSeed,
}

func genSeed(ctx *cli.Context) error {
	cfg := getConfig(ctx)

	length := ctx.Uint("bytes")
	if length > hdkey.MaxSeedBytes {
		return hdkey.ErrInvalidSeedLen
	}

	seed, err := hdkey.GenerateSeed(uint8(length))
	if err != nil {
		return err
	}

	key, err := hdkey.NewMaster(seed, cfg.ActiveNetwork())
	if err != nil {
		return err
	}

	masterResp, err := newKeyResponse(key, "m")
	if err != nil {
		return err
	}

	return printJSON(ctx, &genSeedResponse{
		Seed:   hex.EncodeToString(seed),
		Master: masterResp,
	})
}

var deriveCommand = cli.Command{
	Name:      "derive",
	Usage:     "Derive a descendant of an extended key.",
	ArgsUsage: "key path",
	Description: `
	Derive the key at path below the given extended key. Hardened steps
	are marked with ' or h and need a private key.

	hdkey derive xprv9s21ZrQH143K3QTDL4LXw2F7HEK3... "m/44'/175'/0'/0/0"
	`,
	Flags: []cli.Flag{
		hintFlag,
		cli.BoolFlag{
			Name: "legacy",
			Usage: "Derive hardened children without the leading " +
				"zero bytes of the private key.",
		},
		cli.BoolFlag{
			Name:  "neuter",
			Usage: "Output the public key of the derived key only.",
		},
	},
	Action: derive,
}

func derive(ctx *cli.Context) error {
	if ctx.NArg() != 2 {
		return cli.ShowCommandHelp(ctx, "derive")
	}

	cfg := getConfig(ctx)

	key, err := decodeKey(ctx, cfg, ctx.Args().Get(0))
	if err != nil {
		return err
	}

	opts := cfg.DeriveOptions()
	if ctx.Bool("legacy") {
		opts = append(opts, hdkey.WithLegacyDerivation())
	}

	path := ctx.Args().Get(1)
	child, err := key.Derive(path, opts...)
	if err != nil {
		return err
	}

	if ctx.Bool("neuter") {
		child = child.Neuter()
	}

	resp, err := newKeyResponse(child, path)
	if err != nil {
		return err
	}

	return printJSON(ctx, resp)
}

var neuterCommand = cli.Command{
	Name:      "neuter",
	Usage:     "Convert an extended private key to its public key.",
	ArgsUsage: "key",
	Flags:     []cli.Flag{hintFlag},
	Action:    neuter,
}

func neuter(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		return cli.ShowCommandHelp(ctx, "neuter")
	}

	key, err := decodeKey(ctx, getConfig(ctx), ctx.Args().First())
	if err != nil {
		return err
	}

	resp, err := newKeyResponse(key.Neuter(), "")
	if err != nil {
		return err
	}

	return printJSON(ctx, resp)
}

var inspectCommand = cli.Command{
	Name:      "inspect",
	Usage:     "Show the fields of an extended key.",
	ArgsUsage: "key",
	Flags:     []cli.Flag{hintFlag},
	Action:    inspect,
}

func inspect(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		return cli.ShowCommandHelp(ctx, "inspect")
	}

	key, err := decodeKey(ctx, getConfig(ctx), ctx.Args().First())
	if err != nil {
		return err
	}

	resp, err := newKeyResponse(key, "")
	if err != nil {
		return err
	}

	return printJSON(ctx, resp)
}

// validateResponse is the output of the validate command.
type validateResponse struct {
	Valid   bool   `json:"valid"`
	Network string `json:"network,omitempty"`
	Error   string `json:"error,omitempty"`
}

var validateCommand = cli.Command{
	Name:      "validate",
	Usage:     "Check whether a string is a valid extended key.",
	ArgsUsage: "key",
	Flags:     []cli.Flag{hintFlag},
	Action:    validate,
}

func validate(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		return cli.ShowCommandHelp(ctx, "validate")
	}

	resp := &validateResponse{Valid: true}
	key, err := decodeKey(ctx, getConfig(ctx), ctx.Args().First())
	switch {
	// A network hint that isn't known is a usage error, not an invalid
	// key.
	case errors.Is(err, chainparams.ErrUnknownNetwork):
		return err

	case err != nil:
		resp.Valid = false
		resp.Error = err.Error()

	default:
		resp.Network = key.Network().ID()
	}

	return printJSON(ctx, resp)
}

// keyRingResponse is the output of the keyring command.
type keyRingResponse struct {
	Family  uint32 `json:"key_family"`
	Index   uint32 `json:"key_index"`
	Path    string `json:"path"`
	PubKey  string `json:"pubkey"`
	Address string `json:"address"`
	WIF     string `json:"wif,omitempty"`
}

var keyRingFlags = []cli.Flag{
	hintFlag,
	cli.Uint64Flag{
		Name: "coin_type",
		Usage: "The coin type of the key ring, defaults to the coin " +
			"type of the key's network.",
	},
}

var keyRingCommand = cli.Command{
	Name:      "keyring",
	Usage:     "Derive keys of a key family below a root key.",
	ArgsUsage: "key family index",
	Description: `
	Derive the key m/1017'/coin_type'/family'/0/index below the given root
	key. The root may be the account key of the family instead, i.e. the
	key at m/1017'/coin_type'/family'. Hardened levels need a private key.
	`,
	Flags: append([]cli.Flag{
		cli.BoolFlag{
			Name:  "private",
			Usage: "Also output the private key in WIF.",
		},
	}, keyRingFlags...),
	Action: keyRing,
}

// newKeyRing builds the key ring of the key argument and parses the key
// locator that follows it.
func newKeyRing(ctx *cli.Context) (*keychain.HDKeyRing, keychain.KeyLocator,
	*chainparams.Network, error) {

	var keyLoc keychain.KeyLocator

	cfg := getConfig(ctx)
	args := ctx.Args()

	root, err := decodeKey(ctx, cfg, args.Get(0))
	if err != nil {
		return nil, keyLoc, nil, err
	}

	family, err := strconv.ParseUint(args.Get(1), 10, 32)
	if err != nil {
		return nil, keyLoc, nil, fmt.Errorf("invalid key family: %w",
			err)
	}
	index, err := strconv.ParseUint(args.Get(2), 10, 32)
	if err != nil {
		return nil, keyLoc, nil, fmt.Errorf("invalid key index: %w", err)
	}
	keyLoc = keychain.KeyLocator{
		Family: keychain.KeyFamily(family),
		Index:  uint32(index),
	}

	coinType := root.Network().CoinType
	if ctx.IsSet("coin_type") {
		ct := ctx.Uint64("coin_type")
		if ct > 0xffffffff {
			return nil, keyLoc, nil, fmt.Errorf("invalid coin type "+
				"%d", ct)
		}
		coinType = uint32(ct)
	}

	opts := cfg.DeriveOptions()

	// A key at depth three is taken to be the account of the family.
	if root.Depth() == 3 {
		ring, err := keychain.NewHDKeyRingFromAccount(
			root, coinType, keyLoc.Family, opts...,
		)
		if err != nil {
			return nil, keyLoc, nil, err
		}

		return ring, keyLoc, root.Network(), nil
	}

	ring := keychain.NewHDKeyRing(root, coinType, opts...)

	return ring, keyLoc, root.Network(), nil
}

func keyRing(ctx *cli.Context) error {
	if ctx.NArg() != 3 {
		return cli.ShowCommandHelp(ctx, "keyring")
	}

	ring, keyLoc, net, err := newKeyRing(ctx)
	if err != nil {
		return err
	}

	keyDesc, err := ring.DeriveKey(keyLoc)
	if err != nil {
		return err
	}

	path, err := keyLoc.Path(ring.CoinType())
	if err != nil {
		return err
	}

	pubKey := keyDesc.PubKey.SerializeCompressed()
	addr, err := btcutil.NewAddressPubKeyHash(
		btcutil.Hash160(pubKey), net.Params,
	)
	if err != nil {
		return err
	}

	resp := &keyRingResponse{
		Family:  uint32(keyLoc.Family),
		Index:   keyLoc.Index,
		Path:    path.String(),
		PubKey:  hex.EncodeToString(pubKey),
		Address: addr.EncodeAddress(),
	}

	if ctx.Bool("private") {
		privKey, err := ring.DerivePrivKey(keyDesc)
		if err != nil {
			return err
		}

		wif, err := btcutil.NewWIF(privKey, net.Params, true)
		if err != nil {
			return err
		}
		resp.WIF = wif.String()
	}

	return printJSON(ctx, resp)
}

// signMessageResponse is the output of the signmessage command.
type signMessageResponse struct {
	Signature string `json:"signature"`
	PubKey    string `json:"pubkey"`
}

var signMessageCommand = cli.Command{
	Name:      "signmessage",
	Usage:     "Sign a message with a key of a key family.",
	ArgsUsage: "key family index msg",
	Description: `
	Sign the double SHA256 of msg with the key at
	m/1017'/coin_type'/family'/0/index. The signature is the zbase32
	encoded compact signature the public key can be recovered from.
	`,
	Flags:  keyRingFlags,
	Action: signMessage,
}

func signMessage(ctx *cli.Context) error {
	if ctx.NArg() != 4 {
		return cli.ShowCommandHelp(ctx, "signmessage")
	}

	ring, keyLoc, _, err := newKeyRing(ctx)
	if err != nil {
		return err
	}

	keyDesc, err := ring.DeriveKey(keyLoc)
	if err != nil {
		return err
	}

	msg := []byte(ctx.Args().Get(3))
	signer := keychain.NewPubKeyMessageSigner(keyDesc.PubKey, keyLoc, ring)
	sig, err := signer.SignMessageCompact(msg, true)
	if err != nil {
		return err
	}

	return printJSON(ctx, &signMessageResponse{
		Signature: zbase32.EncodeToString(sig),
		PubKey: hex.EncodeToString(
			signer.PubKey().SerializeCompressed(),
		),
	})
}

// verifyMessageResponse is the output of the verifymessage command.
type verifyMessageResponse struct {
	Valid  bool   `json:"valid"`
	PubKey string `json:"pubkey"`
}

var verifyMessageCommand = cli.Command{
	Name:      "verifymessage",
	Usage:     "Verify a message signature made by signmessage.",
	ArgsUsage: "key family index msg signature",
	Description: `
	Recover the public key from the signature of msg and check that it is
	the key at m/1017'/coin_type'/family'/0/index. Public root keys work
	as long as the hardened levels are covered by an account key.
	`,
	Flags:  keyRingFlags,
	Action: verifyMessage,
}

func verifyMessage(ctx *cli.Context) error {
	if ctx.NArg() != 5 {
		return cli.ShowCommandHelp(ctx, "verifymessage")
	}

	ring, keyLoc, _, err := newKeyRing(ctx)
	if err != nil {
		return err
	}

	keyDesc, err := ring.DeriveKey(keyLoc)
	if err != nil {
		return err
	}

	sig, err := zbase32.DecodeString(ctx.Args().Get(4))
	if err != nil {
		return fmt.Errorf("signature is not zbase32: %w", err)
	}

	digest := chainhash.DoubleHashB([]byte(ctx.Args().Get(3)))
	pubKey, _, err := ecdsa.RecoverCompact(sig, digest)
	if err != nil {
		return err
	}

	return printJSON(ctx, &verifyMessageResponse{
		Valid:  pubKey.IsEqual(keyDesc.PubKey),
		PubKey: hex.EncodeToString(pubKey.SerializeCompressed()),
	})
}
