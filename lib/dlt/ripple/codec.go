package ripple

import (
	"bytes"
	"crypto/sha512"
	"encoding/binary"
	"encoding/hex"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Serialized type codes.
const (
	typeUInt16    = 1
	typeUInt32    = 2
	typeAmount    = 6
	typeBlob      = 7
	typeAccountID = 8
	typeObject    = 14
	typeArray     = 15
)

// Hash prefixes.
var (
	prefixTxSign = []byte{'S', 'T', 'X', 0x00} //nolint:gochecknoglobals // protocol constant
	prefixTxID   = []byte{'T', 'X', 'N', 0x00} //nolint:gochecknoglobals // protocol constant
)

const (
	paymentType         uint16 = 0
	tfFullyCanonicalSig uint32 = 0x80000000
	maxDrops                   = 100000000000000000 // 10^17, total XRP supply in drops
	nativePositive      uint64 = 0x4000000000000000
)

// Errors returned while encoding.
var (
	ErrBadAmount = errors.New("ripple: invalid drops amount")
	ErrTooLong   = errors.New("ripple: blob too long")
)

type encoder struct {
	bytes.Buffer
}

// field writes the field id: type and field codes share one byte when both are below 16.
func (e *encoder) field(typeCode, fieldCode int) {
	switch {
	case typeCode < 16 && fieldCode < 16:
		e.WriteByte(byte(typeCode<<4 | fieldCode))
	case typeCode < 16:
		e.WriteByte(byte(typeCode << 4))
		e.WriteByte(byte(fieldCode))
	case fieldCode < 16:
		e.WriteByte(byte(fieldCode))
		e.WriteByte(byte(typeCode))
	default:
		e.WriteByte(0)
		e.WriteByte(byte(typeCode))
		e.WriteByte(byte(fieldCode))
	}
}

func (e *encoder) uint16(fieldCode int, v uint16) {
	e.field(typeUInt16, fieldCode)

	var b [2]byte

	binary.BigEndian.PutUint16(b[:], v)
	e.Write(b[:])
}

func (e *encoder) uint32(fieldCode int, v uint32) {
	e.field(typeUInt32, fieldCode)

	var b [4]byte

	binary.BigEndian.PutUint32(b[:], v)
	e.Write(b[:])
}

// drops writes a native amount.
func (e *encoder) drops(fieldCode int, s string) error {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil || v > maxDrops {
		return errors.Wrap(ErrBadAmount, s)
	}

	e.field(typeAmount, fieldCode)

	var b [8]byte

	binary.BigEndian.PutUint64(b[:], v|nativePositive)
	e.Write(b[:])

	return nil
}

// vl writes a variable length prefix.
func (e *encoder) vl(n int) error {
	switch {
	case n <= 192:
		e.WriteByte(byte(n))
	case n <= 12480:
		n -= 193
		e.WriteByte(byte(193 + n>>8))
		e.WriteByte(byte(n))
	case n <= 918744:
		n -= 12481
		e.WriteByte(byte(241 + n>>16))
		e.WriteByte(byte(n >> 8))
		e.WriteByte(byte(n))
	default:
		return ErrTooLong
	}

	return nil
}

func (e *encoder) blob(fieldCode int, b []byte) error {
	e.field(typeBlob, fieldCode)

	if err := e.vl(len(b)); err != nil {
		return err
	}

	e.Write(b)

	return nil
}

func (e *encoder) account(fieldCode int, address string) error {
	id, err := DecodeAddress(address)
	if err != nil {
		return err
	}

	e.field(typeAccountID, fieldCode)
	e.WriteByte(accountIDLength)
	e.Write(id)

	return nil
}

func hexBlob(s string) ([]byte, error) {
	b, err := hex.DecodeString(s)

	return b, errors.Wrapf(err, "ripple: bad hex blob %q", s)
}

// Serialize encodes a payment in canonical field order. The signature is left out when signing is true.
func Serialize(tx *TxJSON, signing bool) ([]byte, error) {
	var e encoder

	e.uint16(2, paymentType) // TransactionType
	e.uint32(2, tx.Flags)
	e.uint32(4, tx.Sequence)
	e.uint32(27, tx.LastLedgerSequence)

	if err := e.drops(1, tx.Amount); err != nil {
		return nil, err
	}

	if err := e.drops(8, tx.Fee); err != nil {
		return nil, err
	}

	pub, err := hexBlob(tx.SigningPubKey)
	if err != nil {
		return nil, err
	}

	if err = e.blob(3, pub); err != nil {
		return nil, err
	}

	if !signing && tx.TxnSignature != "" {
		sig, errSig := hexBlob(tx.TxnSignature)
		if errSig != nil {
			return nil, errSig
		}

		if err = e.blob(4, sig); err != nil {
			return nil, err
		}
	}

	if err = e.account(1, tx.Account); err != nil {
		return nil, err
	}

	if err = e.account(3, tx.Destination); err != nil {
		return nil, err
	}

	if len(tx.Memos) > 0 {
		e.field(typeArray, 9) // Memos
		for _, m := range tx.Memos {
			e.field(typeObject, 10) // Memo

			data, errM := hexBlob(m.Memo.MemoData)
			if errM != nil {
				return nil, errM
			}

			if err = e.blob(13, data); err != nil {
				return nil, err
			}

			e.field(typeObject, 1) // ObjectEndMarker
		}

		e.field(typeArray, 1) // ArrayEndMarker
	}

	return e.Bytes(), nil
}

func sha512Half(parts ...[]byte) []byte {
	h := sha512.New()
	for _, p := range parts {
		h.Write(p)
	}

	return h.Sum(nil)[:32]
}

// SigningHash is the digest signed by the account key.
func SigningHash(tx *TxJSON) ([]byte, error) {
	b, err := Serialize(tx, true)
	if err != nil {
		return nil, err
	}

	return sha512Half(prefixTxSign, b), nil
}

// TxID is the transaction hash of a signed blob.
func TxID(blob []byte) string {
	return strings.ToUpper(hex.EncodeToString(sha512Half(prefixTxID, blob)))
}
