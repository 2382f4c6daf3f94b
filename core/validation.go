package core

import (
	"errors"
	"math/big"
	"strings"

	"github.com/defiweb/go-eth/hexutil"
	"github.com/defiweb/go-eth/types"
	"github.com/ethereum/go-ethereum/common"
)

var (
	ErrNilAmount      = errors.New("amount is nil")
	ErrNegativeAmount = errors.New("amount cannot be negative")
)

// has0xPrefix validates str begins with '0x' or '0X'.
func has0xPrefix(str string) bool {
	return len(str) >= 2 && str[0] == '0' && (str[1] == 'x' || str[1] == 'X')
}

// IsValidAddress reports whether s is a 0x prefixed 20 byte hex address.
// Mixed case addresses must carry a valid EIP-55 checksum.
func IsValidAddress(s string) bool {
	if !has0xPrefix(s) || !common.IsHexAddress(s) {
		return false
	}
	h := s[2:]
	if h == strings.ToLower(h) || h == strings.ToUpper(h) {
		return true
	}
	return common.HexToAddress(s).Hex() == "0x"+h
}

// ValidateAddress parses s, returning InvalidAddressError if it is not a valid address.
func ValidateAddress(s string) (types.Address, error) {
	if !IsValidAddress(s) {
		return types.ZeroAddress, &InvalidAddressError{Address: s}
	}
	addr, err := types.AddressFromHex(s)
	if err != nil {
		return types.ZeroAddress, &InvalidAddressError{Address: s}
	}
	return addr, nil
}

// IsValidTxHash reports whether s is a 0x prefixed 32 byte hex string.
func IsValidTxHash(s string) bool {
	if len(s) != 66 || !has0xPrefix(s) {
		return false
	}
	_, err := hexutil.HexToBytes(s)
	return err == nil
}

func ValidateAmount(amount *big.Int) error {
	if amount == nil {
		return ErrNilAmount
	}
	if amount.Sign() < 0 {
		return ErrNegativeAmount
	}
	return nil
}
