package solana

import (
	"github.com/gagliardetto/solana-go"
	"github.com/wnt/lpscout/internal/utils"
)

// DLMMProgramID is the Meteora DLMM program
const DLMMProgramID = "LBUZKhRxPF3XUpBCjp4YzTKgLccjZhTSDM9YuVaPwxo"

// Roles holds the named accounts extracted from the DLMM instructions of a
// transaction. A transaction can touch several positions; Positions is
// de-duplicated in first-seen order.
type Roles struct {
	Sender    string
	LbPair    string
	Positions []string
}

// roleIndexes maps an instruction's account list to its named roles
type roleIndexes struct {
	position int
	lbPair   int
	sender   int
}

// Account layouts per DLMM instruction, keyed by the first data byte.
var rolesByDiscriminator = map[byte]roleIndexes{
	6:  {position: 0, lbPair: 1, sender: 12}, // addLiquidity
	7:  {position: 0, lbPair: 1, sender: 12}, // addLiquidityByWeight
	8:  {position: 0, lbPair: 1, sender: 12}, // addLiquidityByStrategy
	9:  {position: 0, lbPair: 1, sender: 8},  // addLiquidityByStrategyOneSide
	11: {position: 0, lbPair: 1, sender: 12}, // removeLiquidity
	12: {position: 1, lbPair: 2, sender: 3},  // initializePosition
	13: {position: 1, lbPair: 2, sender: 3},  // initializePositionPda
	14: {position: 1, lbPair: 2, sender: 3},  // initializePositionByOperator
	24: {position: 1, lbPair: 0, sender: 4},  // claimReward
	25: {position: 1, lbPair: 0, sender: 4},  // claimFee
	26: {position: 0, lbPair: 1, sender: 4},  // closePosition
}

// ExtractRoles walks a transaction's DLMM instructions and resolves the
// sender, pair and position accounts. Instructions the program table does
// not cover are skipped. A transaction with no recognized DLMM instruction
// yields an empty Roles.
func ExtractRoles(tx *solana.Transaction) Roles {
	var roles Roles
	if tx == nil {
		return roles
	}

	accountKeys := tx.Message.AccountKeys
	resolve := func(accounts []uint16, index int) string {
		if index >= len(accounts) {
			return ""
		}
		keyIndex := int(accounts[index])
		if keyIndex >= len(accountKeys) {
			return ""
		}
		return accountKeys[keyIndex].String()
	}

	for _, instruction := range tx.Message.Instructions {
		if int(instruction.ProgramIDIndex) >= len(accountKeys) {
			continue
		}
		if accountKeys[instruction.ProgramIDIndex].String() != DLMMProgramID {
			continue
		}
		if len(instruction.Data) == 0 {
			continue
		}

		indexes, ok := rolesByDiscriminator[instruction.Data[0]]
		if !ok {
			continue
		}

		if position := resolve(instruction.Accounts, indexes.position); position != "" {
			roles.Positions = append(roles.Positions, position)
		}
		if roles.LbPair == "" {
			roles.LbPair = resolve(instruction.Accounts, indexes.lbPair)
		}
		if roles.Sender == "" {
			roles.Sender = resolve(instruction.Accounts, indexes.sender)
		}
	}

	roles.Positions = utils.Unique(roles.Positions)
	return roles
}

// Complete reports whether every role a position lookup needs is present
func (r Roles) Complete() bool {
	return r.Sender != "" && r.LbPair != "" && len(r.Positions) > 0
}
