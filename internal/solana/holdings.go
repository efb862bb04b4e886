package solana

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math/big"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/wnt/lpscout/internal/metrics"
)

// DLMM position account layout constants
const (
	maxBinPerPosition = 70
	maxBinPerArray    = 70
	binSize           = 144
	positionDataLen   = 7960

	sharesOffset     = 72
	rewardInfoOffset = 1192
	feeInfoOffset    = 4552
	lowerBinOffset   = 7912
	upperBinOffset   = 7916
)

// Holdings are the live amounts of an open position in raw token units.
// Fee and reward pendings are the unclaimed accruals recorded on the
// position account; TotalX/Y are the position's share of its bins' reserves.
type Holdings struct {
	TotalXAmount float64
	TotalYAmount float64
	FeeX         uint64
	FeeY         uint64
	Reward1      uint64
	Reward2      uint64
}

type positionAccount struct {
	lbPair     solana.PublicKey
	owner      solana.PublicKey
	shares     [maxBinPerPosition]*big.Int
	lowerBinID int32
	upperBinID int32
	feeX       uint64
	feeY       uint64
	rewards    [2]uint64
}

// GetPositionHoldings reads a position account and the bin arrays its bin
// range spans, then values the position's liquidity shares against each
// bin's reserves. Returns ErrNoPositionData for a missing or closed
// position account.
func (c *Client) GetPositionHoldings(ctx context.Context, address string) (*Holdings, error) {
	pubkey, err := solana.PublicKeyFromBase58(address)
	if err != nil {
		return nil, fmt.Errorf("invalid position address %s: %w", address, err)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	out, err := c.rpcClient.GetAccountInfo(ctx, pubkey)
	if err != nil {
		if errors.Is(err, rpc.ErrNotFound) {
			metrics.RecordRPCRequest("success")
			return nil, ErrNoPositionData
		}
		metrics.RecordRPCRequest("failed")
		return nil, fmt.Errorf("failed to fetch position account %s: %w", address, err)
	}
	metrics.RecordRPCRequest("success")

	if out.Value == nil {
		return nil, ErrNoPositionData
	}

	account, err := decodePosition(out.Value.Data.GetBinary())
	if err != nil {
		return nil, err
	}

	holdings := &Holdings{
		FeeX:    account.feeX,
		FeeY:    account.feeY,
		Reward1: account.rewards[0],
		Reward2: account.rewards[1],
	}

	arrays, err := c.fetchBinArrays(ctx, account)
	if err != nil {
		return nil, err
	}

	for binID := account.lowerBinID; binID <= account.upperBinID; binID++ {
		share := account.shares[binID-account.lowerBinID]
		if share.Sign() == 0 {
			continue
		}

		arrayData, ok := arrays[binArrayIndex(binID)]
		if !ok {
			continue
		}

		amountX, amountY, supply := readBin(arrayData, binID)
		if supply.Sign() == 0 {
			continue
		}

		ratio, _ := new(big.Float).Quo(
			new(big.Float).SetInt(share),
			new(big.Float).SetInt(supply),
		).Float64()
		holdings.TotalXAmount += float64(amountX) * ratio
		holdings.TotalYAmount += float64(amountY) * ratio
	}

	return holdings, nil
}

func decodePosition(data []byte) (*positionAccount, error) {
	if len(data) < positionDataLen {
		return nil, ErrNoPositionData
	}

	account := &positionAccount{
		lbPair:     solana.PublicKeyFromBytes(data[8:40]),
		owner:      solana.PublicKeyFromBytes(data[40:72]),
		lowerBinID: int32(binary.LittleEndian.Uint32(data[lowerBinOffset:])),
		upperBinID: int32(binary.LittleEndian.Uint32(data[upperBinOffset:])),
	}

	for i := 0; i < maxBinPerPosition; i++ {
		account.shares[i] = readUint128(data[sharesOffset+i*16:])

		// Each fee info entry is two u128 accumulators then two u64 pendings
		feeEntry := feeInfoOffset + i*48
		account.feeX += binary.LittleEndian.Uint64(data[feeEntry+32:])
		account.feeY += binary.LittleEndian.Uint64(data[feeEntry+40:])

		rewardEntry := rewardInfoOffset + i*48
		account.rewards[0] += binary.LittleEndian.Uint64(data[rewardEntry+32:])
		account.rewards[1] += binary.LittleEndian.Uint64(data[rewardEntry+40:])
	}

	return account, nil
}

// fetchBinArrays loads every bin array the position's bin range spans,
// keyed by bin array index
func (c *Client) fetchBinArrays(ctx context.Context, account *positionAccount) (map[int64][]byte, error) {
	lowerIndex := binArrayIndex(account.lowerBinID)
	upperIndex := binArrayIndex(account.upperBinID)

	var indexes []int64
	var addresses []solana.PublicKey
	for index := lowerIndex; index <= upperIndex; index++ {
		address, err := binArrayAddress(account.lbPair, index)
		if err != nil {
			return nil, err
		}
		indexes = append(indexes, index)
		addresses = append(addresses, address)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	out, err := c.rpcClient.GetMultipleAccounts(ctx, addresses...)
	if err != nil {
		metrics.RecordRPCRequest("failed")
		return nil, fmt.Errorf("failed to fetch bin arrays: %w", err)
	}
	metrics.RecordRPCRequest("success")

	arrays := make(map[int64][]byte, len(indexes))
	for i, value := range out.Value {
		if value == nil {
			continue
		}
		arrays[indexes[i]] = value.Data.GetBinary()
	}
	return arrays, nil
}

// binArrayIndex floors the bin id onto its containing array
func binArrayIndex(binID int32) int64 {
	index := int64(binID) / maxBinPerArray
	if binID < 0 && int64(binID)%maxBinPerArray != 0 {
		index--
	}
	return index
}

func binArrayAddress(lbPair solana.PublicKey, index int64) (solana.PublicKey, error) {
	indexBytes := make([]byte, 8)
	binary.LittleEndian.PutUint64(indexBytes, uint64(index))

	address, _, err := solana.FindProgramAddress(
		[][]byte{[]byte("bin_array"), lbPair.Bytes(), indexBytes},
		solana.MustPublicKeyFromBase58(DLMMProgramID),
	)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("failed to derive bin array address: %w", err)
	}
	return address, nil
}

// readBin extracts a bin's reserve amounts and liquidity supply from its
// containing array. Bin array data is an 8 byte discriminator, i64 index,
// 8 bytes version padding and the pair key, then 70 bin entries.
func readBin(arrayData []byte, binID int32) (uint64, uint64, *big.Int) {
	offsetInArray := int64(binID) - binArrayIndex(binID)*maxBinPerArray
	binOffset := 56 + int(offsetInArray)*binSize
	if binOffset+binSize > len(arrayData) {
		return 0, 0, new(big.Int)
	}

	amountX := binary.LittleEndian.Uint64(arrayData[binOffset:])
	amountY := binary.LittleEndian.Uint64(arrayData[binOffset+8:])
	supply := readUint128(arrayData[binOffset+32:])
	return amountX, amountY, supply
}

func readUint128(data []byte) *big.Int {
	buf := make([]byte, 16)
	for i := 0; i < 16; i++ {
		buf[i] = data[15-i]
	}
	return new(big.Int).SetBytes(buf)
}
