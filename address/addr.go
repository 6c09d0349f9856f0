package address

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/sigurn/crc16"
)

type AddrType int

const (
	NoneAddress AddrType = 0
	ExtAddress  AddrType = 1
	StdAddress  AddrType = 2
	VarAddress  AddrType = 3
)

var ErrInvalidAddress = errors.New("invalid address")
var ErrInvalidChecksum = errors.New("invalid address checksum")

var crcTable = crc16.MakeTable(crc16.CRC16_XMODEM)

const (
	tagBounceable    byte = 0x11
	tagNonBounceable byte = 0x51
	tagTestnet       byte = 0x80
)

type Address struct {
	flags     flags
	addrType  AddrType
	workchain int32
	bitsLen   uint
	data      []byte
}

type flags struct {
	bounceable bool
	testnet    bool
}

func NewAddress(flags byte, workchain byte, data []byte) *Address {
	return &Address{
		flags:     parseFlags(flags),
		addrType:  StdAddress,
		workchain: int32(int8(workchain)),
		bitsLen:   256,
		data:      data,
	}
}

func NewAddressExt(flags byte, bitsLen uint, data []byte) *Address {
	return &Address{
		flags:    parseFlags(flags),
		addrType: ExtAddress,
		bitsLen:  bitsLen,
		data:     data,
	}
}

func NewAddressVar(flags byte, workchain int32, bitsLen uint, data []byte) *Address {
	return &Address{
		flags:     parseFlags(flags),
		addrType:  VarAddress,
		workchain: workchain,
		bitsLen:   bitsLen,
		data:      data,
	}
}

func NewAddressNone() *Address {
	return &Address{
		addrType: NoneAddress,
	}
}

func MustParseAddr(addr string) *Address {
	a, err := ParseAddr(addr)
	if err != nil {
		panic(err)
	}
	return a
}

// ParseAddr parses user-friendly form: 36 bytes of tag, workchain, hash and CRC16,
// encoded with either URL-safe or standard base64.
func ParseAddr(addr string) (*Address, error) {
	data, err := base64.URLEncoding.DecodeString(addr)
	if err != nil {
		data, err = base64.StdEncoding.DecodeString(addr)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to decode base64: %s", ErrInvalidAddress, err.Error())
		}
	}

	if len(data) != 36 {
		return nil, fmt.Errorf("%w: incorrect length %d", ErrInvalidAddress, len(data))
	}

	if crc16.Checksum(data[:34], crcTable) != binary.BigEndian.Uint16(data[34:]) {
		return nil, ErrInvalidChecksum
	}

	if tag := data[0] &^ tagTestnet; tag != tagBounceable && tag != tagNonBounceable {
		return nil, fmt.Errorf("%w: unknown tag %x", ErrInvalidAddress, data[0])
	}

	return NewAddress(data[0], data[1], append([]byte{}, data[2:34]...)), nil
}

func MustParseRawAddr(addr string) *Address {
	a, err := ParseRawAddr(addr)
	if err != nil {
		panic(err)
	}
	return a
}

// ParseRawAddr parses workchain:hex form, workchains outside of int8 become var addresses.
func ParseRawAddr(addr string) (*Address, error) {
	idx := strings.IndexByte(addr, ':')
	if idx <= 0 {
		return nil, fmt.Errorf("%w: no workchain separator", ErrInvalidAddress)
	}

	wc, err := strconv.ParseInt(addr[:idx], 10, 32)
	if err != nil {
		return nil, fmt.Errorf("%w: incorrect workchain: %s", ErrInvalidAddress, err.Error())
	}

	data, err := hex.DecodeString(addr[idx+1:])
	if err != nil {
		return nil, fmt.Errorf("%w: incorrect hash: %s", ErrInvalidAddress, err.Error())
	}

	if len(data) != 32 {
		return nil, fmt.Errorf("%w: hash should be 32 bytes, got %d", ErrInvalidAddress, len(data))
	}

	if wc < math.MinInt8 || wc > math.MaxInt8 {
		return NewAddressVar(0, int32(wc), 256, data), nil
	}
	return NewAddress(0, byte(int8(wc)), data), nil
}

func parseFlags(data byte) flags {
	return flags{
		bounceable: data&0x40 == 0,
		testnet:    data&tagTestnet != 0,
	}
}

func (a *Address) FlagsToByte() byte {
	b := tagBounceable
	if !a.flags.bounceable {
		b = tagNonBounceable
	}
	if a.flags.testnet {
		b |= tagTestnet
	}
	return b
}

func (a *Address) prepareChecksumData() []byte {
	var data [34]byte
	data[0] = a.FlagsToByte()
	data[1] = byte(a.workchain)
	copy(data[2:], a.data)
	return data[:]
}

func (a *Address) Checksum() uint16 {
	return crc16.Checksum(a.prepareChecksumData(), crcTable)
}

// String returns user-friendly URL-safe form for std addresses.
func (a *Address) String() string {
	return a.encode(base64.URLEncoding)
}

func (a *Address) StringBase64Std() string {
	return a.encode(base64.StdEncoding)
}

func (a *Address) encode(enc *base64.Encoding) string {
	switch a.addrType {
	case NoneAddress:
		return "NONE"
	case StdAddress:
		var data [36]byte
		copy(data[:34], a.prepareChecksumData())
		binary.BigEndian.PutUint16(data[34:], a.Checksum())
		return enc.EncodeToString(data[:])
	case ExtAddress:
		return fmt.Sprintf("EXT:%d:%s", a.bitsLen, hex.EncodeToString(a.data))
	case VarAddress:
		return fmt.Sprintf("VAR:%d:%d:%s", a.workchain, a.bitsLen, hex.EncodeToString(a.data))
	}
	return "UNKNOWN"
}

// StringRaw returns workchain:hex form.
func (a *Address) StringRaw() string {
	if a.addrType == NoneAddress {
		return "NONE"
	}
	return fmt.Sprintf("%d:%s", a.workchain, hex.EncodeToString(a.data))
}

func (a *Address) Dump() string {
	return fmt.Sprintf("human-readable address: %s isBounceable: %t, isTestnetOnly: %t, data.len: %d",
		a.String(), a.IsBounceable(), a.IsTestnetOnly(), len(a.data))
}

func (a *Address) SetBounce(bouncable bool) {
	a.flags.bounceable = bouncable
}

func (a *Address) IsBounceable() bool {
	return a.flags.bounceable
}

func (a *Address) SetTestnetOnly(testnetOnly bool) {
	a.flags.testnet = testnetOnly
}

func (a *Address) IsTestnetOnly() bool {
	return a.flags.testnet
}

func (a *Address) Workchain() int32 {
	return a.workchain
}

func (a *Address) BitsLen() uint {
	return a.bitsLen
}

func (a *Address) Data() []byte {
	return a.data
}

func (a *Address) Type() AddrType {
	return a.addrType
}

func (a *Address) IsAddrNone() bool {
	return a.addrType == NoneAddress
}

// Equals compares location of addresses, display flags are ignored.
func (a *Address) Equals(b *Address) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.addrType == b.addrType && a.workchain == b.workchain &&
		a.bitsLen == b.bitsLen && bytes.Equal(a.data, b.data)
}

func (a *Address) Copy() *Address {
	return &Address{
		flags:     a.flags,
		addrType:  a.addrType,
		workchain: a.workchain,
		bitsLen:   a.bitsLen,
		data:      append([]byte{}, a.data...),
	}
}

func (a *Address) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

func (a *Address) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}

	var addr *Address
	var err error
	switch {
	case str == "NONE":
		addr = NewAddressNone()
	case strings.HasPrefix(str, "EXT:"), strings.HasPrefix(str, "VAR:"):
		addr, err = parseTaggedAddr(str)
	case strings.Contains(str, ":"):
		addr, err = ParseRawAddr(str)
	default:
		addr, err = ParseAddr(str)
	}
	if err != nil {
		return err
	}

	*a = *addr
	return nil
}

// parseTaggedAddr parses EXT:bits:hex and VAR:workchain:bits:hex forms produced by String.
func parseTaggedAddr(str string) (*Address, error) {
	parts := strings.Split(str, ":")

	var wc int64
	if parts[0] == "VAR" {
		if len(parts) != 4 {
			return nil, fmt.Errorf("%w: var address should have 4 parts", ErrInvalidAddress)
		}

		var err error
		wc, err = strconv.ParseInt(parts[1], 10, 32)
		if err != nil {
			return nil, fmt.Errorf("%w: incorrect workchain: %s", ErrInvalidAddress, err.Error())
		}
		parts = parts[1:]
	} else if len(parts) != 3 {
		return nil, fmt.Errorf("%w: ext address should have 3 parts", ErrInvalidAddress)
	}

	bitsLen, err := strconv.ParseUint(parts[1], 10, 16)
	if err != nil {
		return nil, fmt.Errorf("%w: incorrect bits len: %s", ErrInvalidAddress, err.Error())
	}

	data, err := hex.DecodeString(parts[2])
	if err != nil {
		return nil, fmt.Errorf("%w: incorrect data: %s", ErrInvalidAddress, err.Error())
	}

	if uint64(len(data)) != (bitsLen+7)/8 {
		return nil, fmt.Errorf("%w: %d bytes of data for %d bits", ErrInvalidAddress, len(data), bitsLen)
	}

	if str[0] == 'V' {
		return NewAddressVar(0, int32(wc), uint(bitsLen), data), nil
	}
	return NewAddressExt(0, uint(bitsLen), data), nil
}
