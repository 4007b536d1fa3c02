package bridge

import (
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

func TestPadRecipient(t *testing.T) {
	evm := common.HexToAddress("0x2bA64EFB7A4Ec8983E22A49c81fa216AC33f383A")
	padded, err := PadRecipient(evm.Hex())
	require.NoError(t, err)
	require.Equal(t, common.LeftPadBytes(evm.Bytes(), 32), padded[:])

	// odd length principal, no prefix
	padded, err = PadRecipient("abc")
	require.NoError(t, err)
	require.Equal(t, byte(0x0a), padded[30])
	require.Equal(t, byte(0xbc), padded[31])

	full := "0x" + strings.Repeat("11", 32)
	padded, err = PadRecipient(full)
	require.NoError(t, err)
	require.Equal(t, byte(0x11), padded[0])

	for _, bad := range []string{"", "0x", "0xzz", "0x" + strings.Repeat("11", 33)} {
		_, err := PadRecipient(bad)
		require.Error(t, err, bad)
	}
}

func TestParseAmount(t *testing.T) {
	v, err := ParseAmount("1000000")
	require.NoError(t, err)
	require.Equal(t, 0, v.Cmp(big.NewInt(1_000_000)))

	_, err = ParseAmount("0")
	require.ErrorIs(t, err, ErrInvalidAmount)

	for _, bad := range []string{"", "-1", "1.5", "abc", "115792089237316195423570985008687907853269984665640564039457584007913129639936"} {
		_, err := ParseAmount(bad)
		require.Error(t, err, bad)
	}
}
