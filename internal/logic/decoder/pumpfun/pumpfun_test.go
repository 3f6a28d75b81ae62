package pumpfun

import (
	"encoding/binary"
	"testing"

	"pump-monitor-sol/internal/consts"
	"pump-monitor-sol/internal/logic/decoder"
	"pump-monitor-sol/internal/types"

	"github.com/near/borsh-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRegistry(t *testing.T) *decoder.Registry {
	t.Helper()
	r := decoder.NewRegistry()
	RegisterSchemas(r)
	return r
}

func testKeys(n int) []types.Pubkey {
	keys := make([]types.Pubkey, n)
	for i := range keys {
		keys[i][0] = byte(i + 1)
	}
	return keys
}

func TestRegisterSchemas(t *testing.T) {
	r := newRegistry(t)
	assert.Equal(t, 3, r.Len())

	for _, disc := range []uint64{consts.PumpCreate, consts.PumpBuy, consts.PumpSell} {
		d := decoder.DiscriminatorFromU64(disc)
		assert.NotNil(t, r.Lookup(d[:]), "disc=%#x", disc)
	}
}

// buy 指令参数按 borsh 序列化，应与解码结果一致
func TestDecodeBuyThroughRegistry(t *testing.T) {
	r := newRegistry(t)

	args := struct {
		Amount     uint64
		MaxSolCost uint64
	}{Amount: 1_000_000, MaxSolCost: 50_000_000_000}
	payload, err := borsh.Serialize(args)
	require.NoError(t, err)

	data := make([]byte, 8)
	binary.BigEndian.PutUint64(data, consts.PumpBuy)
	data = append(data, payload...)

	keys := testKeys(7)
	rec, err := r.Decode(data, []byte{0, 1, 2, 3, 4, 5, 6}, keys)
	require.NoError(t, err)
	require.NotNil(t, rec)

	assert.Equal(t, "pumpfun_buy", rec.Schema)
	assert.Equal(t, uint64(1_000_000), rec.Field("amount"))
	assert.Equal(t, uint64(50_000_000_000), rec.Field("max_sol_cost"))
	assert.Equal(t, keys[2].String(), rec.Accounts["mint"])
	assert.Equal(t, keys[3].String(), rec.Accounts["bonding_curve"])
	assert.Equal(t, keys[6].String(), rec.Accounts["user"])
}

func TestDecodeSellThroughRegistry(t *testing.T) {
	r := newRegistry(t)

	data := make([]byte, 8)
	binary.BigEndian.PutUint64(data, consts.PumpSell)
	var amounts [16]byte
	binary.LittleEndian.PutUint64(amounts[:8], 123)
	binary.LittleEndian.PutUint64(amounts[8:], 456)
	data = append(data, amounts[:]...)

	rec, err := r.Decode(data, []byte{0, 1, 2}, testKeys(3))
	require.NoError(t, err)
	require.NotNil(t, rec)

	assert.Equal(t, "pumpfun_sell", rec.Schema)
	assert.Equal(t, uint64(123), rec.Field("amount"))
	assert.Equal(t, uint64(456), rec.Field("min_sol_output"))
	// 账户列表不足时角色取 N/A 占位
	assert.Equal(t, decoder.NA, rec.Accounts["bonding_curve"])
	assert.Equal(t, decoder.NA, rec.Accounts["user"])
}

func TestBondingCurveRoundTrip(t *testing.T) {
	var creator types.Pubkey
	creator[0] = 0x9a
	curve := BondingCurve{
		VirtualTokenReserves: 1_073_000_000_000_000,
		VirtualSolReserves:   30_000_000_000,
		RealTokenReserves:    793_100_000_000_000,
		RealSolReserves:      0,
		TokenTotalSupply:     1_000_000_000_000_000,
		Complete:             false,
		Creator:              creator,
	}
	payload, err := borsh.Serialize(curve)
	require.NoError(t, err)

	data := append(consts.BondingCurveDiscriminator[:], payload...)
	require.True(t, IsBondingCurveAccount(data))

	got, err := DecodeBondingCurve(data)
	require.NoError(t, err)
	assert.Equal(t, &curve, got)
}

func TestIsBondingCurveAccount(t *testing.T) {
	assert.False(t, IsBondingCurveAccount(nil))
	assert.False(t, IsBondingCurveAccount([]byte{1, 2, 3}))
	assert.False(t, IsBondingCurveAccount(make([]byte, 64)))

	_, err := DecodeBondingCurve(make([]byte, 64))
	assert.Error(t, err)
}
