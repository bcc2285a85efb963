package ripple

import (
	"crypto/rand"
	"crypto/sha512"
	"encoding/binary"
	"math/big"
	"strings"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/btcutil/base58"
	"github.com/pkg/errors"
)

// The XRP Ledger alphabet is a permutation of the bitcoin one, and base58check uses the same double SHA-256
// checksum, so encoding goes through btcutil and transliterates.
const (
	rippleAlphabet  = "rpshnaf39wBUDNEGHJKLM4PQRST7VWXYZ2bcdeCg65jkm8oFqi1tuvAxyz"
	bitcoinAlphabet = "123456789ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz"
)

// Base58 version prefixes.
const (
	accountIDVersion byte = 0x00
	familySeedVersion byte = 0x21
	seedLength             = 16
	accountIDLength        = 20
)

// Decoding errors.
var (
	ErrBadSeed    = errors.New("ripple: invalid family seed")
	ErrBadAddress = errors.New("ripple: invalid classic address")
)

var (
	toRipple  = translit(bitcoinAlphabet, rippleAlphabet) //nolint:gochecknoglobals // immutable
	toBitcoin = translit(rippleAlphabet, bitcoinAlphabet) //nolint:gochecknoglobals // immutable
)

func translit(from, to string) *strings.Replacer {
	pairs := make([]string, 0, 2*len(from))
	for i := 0; i < len(from); i++ {
		pairs = append(pairs, from[i:i+1], to[i:i+1])
	}

	return strings.NewReplacer(pairs...)
}

func checkEncode(payload []byte, version byte) string {
	return toRipple.Replace(base58.CheckEncode(payload, version))
}

func checkDecode(s string) ([]byte, byte, error) {
	return base58.CheckDecode(toBitcoin.Replace(s))
}

// EncodeSeed returns the "s..." form of a 16 byte seed.
func EncodeSeed(seed []byte) string {
	return checkEncode(seed, familySeedVersion)
}

// DecodeSeed returns the 16 byte seed of a family seed string.
func DecodeSeed(secret string) ([]byte, error) {
	seed, v, err := checkDecode(secret)
	if err != nil {
		return nil, errors.Wrap(ErrBadSeed, err.Error())
	}

	if v != familySeedVersion || len(seed) != seedLength {
		return nil, ErrBadSeed
	}

	return seed, nil
}

// EncodeAddress returns the classic address of a 20 byte account id.
func EncodeAddress(accountID []byte) string {
	return checkEncode(accountID, accountIDVersion)
}

// DecodeAddress returns the 20 byte account id of a classic address.
func DecodeAddress(address string) ([]byte, error) {
	id, v, err := checkDecode(address)
	if err != nil {
		return nil, errors.Wrapf(ErrBadAddress, "%s: %s", address, err)
	}

	if v != accountIDVersion || len(id) != accountIDLength {
		return nil, errors.Wrap(ErrBadAddress, address)
	}

	return id, nil
}

// GenerateSeed returns a new random family seed.
func GenerateSeed() (string, error) {
	seed := make([]byte, seedLength)
	if _, err := rand.Read(seed); err != nil {
		return "", errors.Wrap(err, "cannot read random seed")
	}

	return EncodeSeed(seed), nil
}

// deriveScalar hashes b (and discriminator when given) with an increasing counter until the first half of the
// SHA-512 digest is a valid secp256k1 scalar.
func deriveScalar(b []byte, discriminator *uint32) *big.Int {
	n := btcec.S256().Params().N

	var buf [4]byte

	for i := uint32(0); ; i++ {
		h := sha512.New()
		h.Write(b)

		if discriminator != nil {
			binary.BigEndian.PutUint32(buf[:], *discriminator)
			h.Write(buf[:])
		}

		binary.BigEndian.PutUint32(buf[:], i)
		h.Write(buf[:])

		k := new(big.Int).SetBytes(h.Sum(nil)[:32])
		if k.Sign() > 0 && k.Cmp(n) < 0 {
			return k
		}
	}
}

// DeriveKey derives the secp256k1 account key (index 0) of a seed.
func DeriveKey(seed []byte) *btcec.PrivateKey {
	n := btcec.S256().Params().N

	root := deriveScalar(seed, nil)
	rootKey, _ := btcec.PrivKeyFromBytes(root.FillBytes(make([]byte, 32)))

	var index uint32

	k := deriveScalar(rootKey.PubKey().SerializeCompressed(), &index)
	k.Add(k, root).Mod(k, n)

	key, _ := btcec.PrivKeyFromBytes(k.FillBytes(make([]byte, 32)))

	return key
}

// AccountID is RIPEMD160(SHA256(compressed public key)).
func AccountID(pub *btcec.PublicKey) []byte {
	return btcutil.Hash160(pub.SerializeCompressed())
}

// DeriveAddress returns the classic address and account key of a family seed.
func DeriveAddress(secret string) (string, *btcec.PrivateKey, error) {
	seed, err := DecodeSeed(secret)
	if err != nil {
		return "", nil, err
	}

	key := DeriveKey(seed)

	return EncodeAddress(AccountID(key.PubKey())), key, nil
}
