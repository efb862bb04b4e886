package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/wnt/lpscout/internal/config"
	"github.com/wnt/lpscout/internal/database"
	"github.com/wnt/lpscout/internal/jupiter"
	"github.com/wnt/lpscout/internal/leaderboard"
	"github.com/wnt/lpscout/internal/logger"
	"github.com/wnt/lpscout/internal/meteora"
	"github.com/wnt/lpscout/internal/position"
	"github.com/wnt/lpscout/internal/solana"
)

func main() {
	envFile := flag.String("envFile", ".env", "Path to .env file")
	input := flag.String("input", "", "Position addresses or transaction signatures, comma or whitespace separated (required)")
	save := flag.Bool("save", false, "Save the computed positions to the leaderboard")
	user := flag.String("user", "", "User id to save positions under (required with -save)")
	name := flag.String("name", "", "Display name for the user")
	flag.Parse()

	if *input == "" {
		fmt.Fprintln(os.Stderr, "Usage: profit -input <addresses or signatures> [-save -user <id> [-name <name>]]")
		os.Exit(1)
	}
	if *save && *user == "" {
		fmt.Fprintln(os.Stderr, "-save requires -user")
		os.Exit(1)
	}

	if err := godotenv.Load(*envFile); err != nil {
		log.Printf("No .env file found at %s, using environment variables", *envFile)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	baseLogger := logger.New(cfg.LogLevel)
	ctx := context.Background()

	meteoraClient := meteora.NewClient(cfg.MeteoraAPIURL, cfg.MeteoraAPIMaxTPS)
	tokenClient := jupiter.NewClient(cfg.JupiterStrictURL, cfg.JupiterAllURL, cfg.JupiterPriceURL, baseLogger)
	chainClient := solana.NewClient(cfg.RPCURL, cfg.RPCMaxTPS, baseLogger)

	retriever := position.NewRetriever(meteoraClient, chainClient, tokenClient, baseLogger)

	results, err := retriever.Summaries(ctx, *input)
	if err != nil {
		baseLogger.Fatal().Err(err).Msg("Failed to compute position profit")
	}
	if results == nil {
		fmt.Fprintln(os.Stderr, "No positions found for the given input")
		os.Exit(1)
	}

	summaries := make([]position.ProfitSummary, 0, len(results))
	for _, result := range results {
		summaries = append(summaries, result.Summary)
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(summaries); err != nil {
		baseLogger.Fatal().Err(err).Msg("Failed to encode summaries")
	}

	if !*save {
		return
	}

	db, err := database.Connect(&cfg)
	if err != nil {
		baseLogger.Fatal().Err(err).Msg("Failed to connect to database")
	}
	store := leaderboard.NewStore(db, baseLogger)

	for _, result := range results {
		submission := leaderboard.Submission{
			UserExternalID: *user,
			UserName:       *name,
			WalletAddress:  result.Summary.Owner,
			PairAddress:    result.Pair.Address,
			PairName:       result.Pair.Name,
			BinStep:        result.Pair.BinStep,
			TokenX: leaderboard.TokenInfo{
				Address:  result.TokenX.Address,
				Symbol:   result.TokenX.Symbol,
				Decimals: result.TokenX.Decimals,
			},
			TokenY: leaderboard.TokenInfo{
				Address:  result.TokenY.Address,
				Symbol:   result.TokenY.Symbol,
				Decimals: result.TokenY.Decimals,
			},
			Summary:   result.Summary,
			Deposits:  result.History.Deposits,
			Withdraws: result.History.Withdraws,
		}
		if err := store.SaveSubmission(ctx, submission); err != nil {
			baseLogger.Fatal().Err(err).Str("position", result.Summary.PositionAddress).Msg("Failed to save submission")
		}
	}

	baseLogger.Info().Int("positions", len(results)).Msg("Positions saved to leaderboard")
}
