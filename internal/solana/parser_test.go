package solana

import (
	"testing"

	solanago "github.com/gagliardetto/solana-go"
)

func testKey(seed byte) solanago.PublicKey {
	var raw [32]byte
	for i := range raw {
		raw[i] = seed
	}
	return solanago.PublicKeyFromBytes(raw[:])
}

// claimFeeTransaction builds a transaction with a single claimFee
// instruction: lbPair at account 0, position at 1, sender at 4
func claimFeeTransaction(program solanago.PublicKey) *solanago.Transaction {
	keys := []solanago.PublicKey{
		testKey(1), // lbPair
		testKey(2), // position
		testKey(3),
		testKey(4),
		testKey(5), // sender
		testKey(6),
		testKey(7),
		testKey(8),
		program,
	}
	return &solanago.Transaction{
		Message: solanago.Message{
			AccountKeys: keys,
			Instructions: []solanago.CompiledInstruction{{
				ProgramIDIndex: 8,
				Accounts:       []uint16{0, 1, 2, 3, 4, 5, 6, 7},
				Data:           solanago.Base58{25},
			}},
		},
	}
}

// TestExtractRolesClaimFee tests role resolution for a claimFee instruction
func TestExtractRolesClaimFee(t *testing.T) {
	program := solanago.MustPublicKeyFromBase58(DLMMProgramID)
	roles := ExtractRoles(claimFeeTransaction(program))

	if !roles.Complete() {
		t.Fatal("roles should be complete for a claimFee instruction")
	}
	if roles.LbPair != testKey(1).String() {
		t.Errorf("LbPair = %s, want account 0", roles.LbPair)
	}
	if len(roles.Positions) != 1 || roles.Positions[0] != testKey(2).String() {
		t.Errorf("Positions = %v, want account 1 only", roles.Positions)
	}
	if roles.Sender != testKey(5).String() {
		t.Errorf("Sender = %s, want account 4", roles.Sender)
	}
}

// TestExtractRolesIgnoresOtherPrograms tests that foreign instructions
// contribute nothing
func TestExtractRolesIgnoresOtherPrograms(t *testing.T) {
	roles := ExtractRoles(claimFeeTransaction(testKey(99)))
	if roles.Complete() {
		t.Error("roles should be empty when no DLMM instruction is present")
	}
	if len(roles.Positions) != 0 {
		t.Errorf("Positions = %v, want none", roles.Positions)
	}
}

// TestExtractRolesDeduplicatesPositions tests that repeated instructions on
// the same position yield it once
func TestExtractRolesDeduplicatesPositions(t *testing.T) {
	program := solanago.MustPublicKeyFromBase58(DLMMProgramID)
	tx := claimFeeTransaction(program)
	tx.Message.Instructions = append(tx.Message.Instructions, tx.Message.Instructions[0])

	roles := ExtractRoles(tx)
	if len(roles.Positions) != 1 {
		t.Errorf("Positions = %v, want one deduplicated entry", roles.Positions)
	}
}

// TestExtractRolesUnknownDiscriminator tests that unmapped instructions
// are skipped
func TestExtractRolesUnknownDiscriminator(t *testing.T) {
	program := solanago.MustPublicKeyFromBase58(DLMMProgramID)
	tx := claimFeeTransaction(program)
	tx.Message.Instructions[0].Data = solanago.Base58{200}

	roles := ExtractRoles(tx)
	if roles.Complete() {
		t.Error("roles should be empty for an unmapped discriminator")
	}
}

// TestBinArrayIndex tests floor division onto bin arrays across zero
func TestBinArrayIndex(t *testing.T) {
	cases := []struct {
		binID int32
		want  int64
	}{
		{0, 0},
		{69, 0},
		{70, 1},
		{-1, -1},
		{-70, -1},
		{-71, -2},
	}
	for _, c := range cases {
		if got := binArrayIndex(c.binID); got != c.want {
			t.Errorf("binArrayIndex(%d) = %d, want %d", c.binID, got, c.want)
		}
	}
}
