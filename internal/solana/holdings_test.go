package solana

import (
	"context"
	"encoding/binary"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/rs/zerolog"
)

// buildPositionData assembles a raw position account buffer with liquidity
// in the first two bins of the given range and fixed pending accruals.
func buildPositionData(lbPair, owner solana.PublicKey, lowerBinID, upperBinID int32) []byte {
	data := make([]byte, positionDataLen)
	copy(data[8:40], lbPair.Bytes())
	copy(data[40:72], owner.Bytes())
	binary.LittleEndian.PutUint32(data[lowerBinOffset:], uint32(lowerBinID))
	binary.LittleEndian.PutUint32(data[upperBinOffset:], uint32(upperBinID))

	binary.LittleEndian.PutUint64(data[sharesOffset:], 100)
	binary.LittleEndian.PutUint64(data[sharesOffset+16:], 300)

	binary.LittleEndian.PutUint64(data[feeInfoOffset+32:], 7)
	binary.LittleEndian.PutUint64(data[feeInfoOffset+40:], 11)
	binary.LittleEndian.PutUint64(data[feeInfoOffset+48+32:], 3)

	binary.LittleEndian.PutUint64(data[rewardInfoOffset+32:], 5)
	binary.LittleEndian.PutUint64(data[rewardInfoOffset+40:], 9)
	return data
}

func TestDecodePosition(t *testing.T) {
	lbPair := testKey(1)
	owner := testKey(2)
	data := buildPositionData(lbPair, owner, -35, 34)

	account, err := decodePosition(data)
	if err != nil {
		t.Fatalf("decodePosition failed: %v", err)
	}

	if !account.lbPair.Equals(lbPair) {
		t.Errorf("lbPair = %s, want %s", account.lbPair, lbPair)
	}
	if !account.owner.Equals(owner) {
		t.Errorf("owner = %s, want %s", account.owner, owner)
	}
	if account.lowerBinID != -35 || account.upperBinID != 34 {
		t.Errorf("bin range = [%d, %d], want [-35, 34]", account.lowerBinID, account.upperBinID)
	}
	if got := account.shares[0].Uint64(); got != 100 {
		t.Errorf("shares[0] = %d, want 100", got)
	}
	if got := account.shares[1].Uint64(); got != 300 {
		t.Errorf("shares[1] = %d, want 300", got)
	}

	// Pendings are summed across every fee and reward entry
	if account.feeX != 10 {
		t.Errorf("feeX = %d, want 10", account.feeX)
	}
	if account.feeY != 11 {
		t.Errorf("feeY = %d, want 11", account.feeY)
	}
	if account.rewards[0] != 5 || account.rewards[1] != 9 {
		t.Errorf("rewards = %v, want [5 9]", account.rewards)
	}
}

func TestDecodePositionTruncated(t *testing.T) {
	_, err := decodePosition(make([]byte, 100))
	if err != ErrNoPositionData {
		t.Errorf("decodePosition(short) = %v, want ErrNoPositionData", err)
	}
}

func TestReadBin(t *testing.T) {
	arrayData := make([]byte, 56+maxBinPerArray*binSize)

	// Bin 3 of array 0 sits three entries in
	binOffset := 56 + 3*binSize
	binary.LittleEndian.PutUint64(arrayData[binOffset:], 5000)
	binary.LittleEndian.PutUint64(arrayData[binOffset+8:], 7000)
	binary.LittleEndian.PutUint64(arrayData[binOffset+32:], 400)

	amountX, amountY, supply := readBin(arrayData, 3)
	if amountX != 5000 {
		t.Errorf("amountX = %d, want 5000", amountX)
	}
	if amountY != 7000 {
		t.Errorf("amountY = %d, want 7000", amountY)
	}
	if supply.Uint64() != 400 {
		t.Errorf("supply = %s, want 400", supply)
	}
}

func TestReadBinOutOfRange(t *testing.T) {
	amountX, amountY, supply := readBin(make([]byte, 56), 0)
	if amountX != 0 || amountY != 0 || supply.Sign() != 0 {
		t.Errorf("readBin on truncated array = (%d, %d, %s), want zeros", amountX, amountY, supply)
	}
}

func TestReadUint128(t *testing.T) {
	data := make([]byte, 16)
	binary.LittleEndian.PutUint64(data, 1)
	binary.LittleEndian.PutUint64(data[8:], 1)

	// 1 + 2^64
	got := readUint128(data)
	want := "18446744073709551617"
	if got.String() != want {
		t.Errorf("readUint128 = %s, want %s", got, want)
	}
}

func TestGetTransactionRejectsInvalidSignature(t *testing.T) {
	client := NewClient("https://example.com", 10, zerolog.Nop())

	_, err := client.GetTransaction(context.Background(), "not-a-signature")
	if err == nil {
		t.Error("GetTransaction accepted an invalid signature")
	}
}

func TestGetPositionHoldingsRejectsInvalidAddress(t *testing.T) {
	client := NewClient("https://example.com", 10, zerolog.Nop())

	_, err := client.GetPositionHoldings(context.Background(), "0x-not-base58")
	if err == nil {
		t.Error("GetPositionHoldings accepted an invalid address")
	}
}
