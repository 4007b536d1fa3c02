package bridge

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"
)

// PadRecipient left pads a hex encoded address (20 byte EVM address, IC principal
// bytes, ...) to the 32 bytes the router expects.
func PadRecipient(hexAddr string) ([32]byte, error) {
	var out [32]byte

	s := strings.TrimSpace(hexAddr)
	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		s = "0x" + s
	}
	// hexutil rejects odd length input, principals are often written without the leading zero
	if len(s)%2 == 1 {
		s = "0x0" + s[2:]
	}

	raw, err := hexutil.Decode(s)
	if err != nil {
		return out, fmt.Errorf("invalid recipient %q: %w", hexAddr, err)
	}
	if len(raw) == 0 {
		return out, fmt.Errorf("invalid recipient %q: empty", hexAddr)
	}
	if len(raw) > 32 {
		return out, fmt.Errorf("invalid recipient %q: %d bytes, at most 32", hexAddr, len(raw))
	}

	copy(out[:], common.LeftPadBytes(raw, 32))
	return out, nil
}

// ParseAmount reads a decimal amount in token base units. It must fit the router's uint256.
func ParseAmount(s string) (*big.Int, error) {
	v, err := uint256.FromDecimal(strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	if v.IsZero() {
		return nil, ErrInvalidAmount
	}
	return v.ToBig(), nil
}
