package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	gomcp "github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/tokenforge/liquidity/internal/pricemath"
	"github.com/tokenforge/liquidity/pkg/types"
)

// RegisterTools registers all liquidity service tools on the MCP server.
func RegisterTools(s *server.MCPServer, client *Client) {
	registerHealth(s, client)
	registerQuote(s)
	registerProvision(s, client)
	registerAttempts(s, client)
	registerAttemptDetail(s, client)
}

func registerHealth(s *server.MCPServer, client *Client) {
	tool := gomcp.NewTool("liquidity_health",
		gomcp.WithDescription("Quick health check for the liquidity service. Checks RPC and storage connectivity."),
	)
	s.AddTool(tool, func(ctx context.Context, req gomcp.CallToolRequest) (*gomcp.CallToolResult, error) {
		raw, err := client.Get("/ready")
		if err != nil {
			return gomcp.NewToolResultError(fmt.Sprintf("Liquidity service unhealthy: %v", err)), nil
		}
		return gomcp.NewToolResultText(formatHealth(raw)), nil
	})
}

// registerQuote is a pure local computation: it previews the canonical
// pair ordering, full-range ticks, and initial pool price a mint would
// use, without touching the chain.
func registerQuote(s *server.MCPServer) {
	tool := gomcp.NewTool("liquidity_quote",
		gomcp.WithDescription("Preview the v3 mint parameters for a pair without submitting anything: canonical token order, full-range ticks, and the initial sqrtPriceX96 a fresh pool would get."),
		gomcp.WithString("token_address",
			gomcp.Required(),
			gomcp.Description("ERC-20 token address"),
		),
		gomcp.WithString("pairing_address",
			gomcp.Required(),
			gomcp.Description("Pairing token address (wrapped native or ERC-20)"),
		),
		gomcp.WithString("token_amount",
			gomcp.Required(),
			gomcp.Description("Token amount in smallest units (base-10)"),
		),
		gomcp.WithString("pairing_amount",
			gomcp.Required(),
			gomcp.Description("Pairing amount in smallest units (base-10)"),
		),
		gomcp.WithNumber("fee_tier",
			gomcp.Required(),
			gomcp.Description("Fee tier: 100, 500, 3000, or 10000"),
		),
	)
	s.AddTool(tool, func(ctx context.Context, req gomcp.CallToolRequest) (*gomcp.CallToolResult, error) {
		tokenHex, err := req.RequireString("token_address")
		if err != nil {
			return gomcp.NewToolResultError("token_address is required"), nil
		}
		pairingHex, err := req.RequireString("pairing_address")
		if err != nil {
			return gomcp.NewToolResultError("pairing_address is required"), nil
		}
		fee := types.FeeTier(req.GetInt("fee_tier", 0))
		if !fee.Valid() {
			return gomcp.NewToolResultError("fee_tier must be one of 100, 500, 3000, 10000"), nil
		}

		tokenAmount, ok := new(big.Int).SetString(req.GetString("token_amount", ""), 10)
		if !ok || tokenAmount.Sign() <= 0 {
			return gomcp.NewToolResultError("token_amount must be a positive base-10 integer"), nil
		}
		pairingAmount, ok := new(big.Int).SetString(req.GetString("pairing_amount", ""), 10)
		if !ok || pairingAmount.Sign() <= 0 {
			return gomcp.NewToolResultError("pairing_amount must be a positive base-10 integer"), nil
		}

		token := common.HexToAddress(tokenHex)
		pairing := common.HexToAddress(pairingHex)
		if token == pairing {
			return gomcp.NewToolResultError("token and pairing addresses are the same"), nil
		}

		pair := pricemath.SortTokens(token, pairing)
		amount0, amount1 := tokenAmount, pairingAmount
		if pair.Token0 != token {
			amount0, amount1 = pairingAmount, tokenAmount
		}

		ticks := pricemath.FullRangeTicks(fee)
		price := pricemath.PriceForAmounts(amount0, amount1)
		sqrtPrice, err := pricemath.SqrtPriceX96FromRatio(price)
		if err != nil {
			return gomcp.NewToolResultError(fmt.Sprintf("price not encodable: %v", err)), nil
		}

		return gomcp.NewToolResultText(joinLines(
			section("Mint Preview"),
			kv("Token0", pair.Token0.Hex()),
			kv("Token1", pair.Token1.Hex()),
			kv("Amount0 Desired", amount0.String()),
			kv("Amount1 Desired", amount1.String()),
			kv("Fee Tier", formatNumber(int(fee))),
			kv("Tick Spacing", formatNumber(int(ticks.Spacing))),
			kv("Tick Lower", formatNumber(int(ticks.Lower))),
			kv("Tick Upper", formatNumber(int(ticks.Upper))),
			kv("Initial Price", fmt.Sprintf("%g (token1 per token0)", price)),
			kv("SqrtPriceX96", sqrtPrice.String()),
		)), nil
	})
}

func registerProvision(s *server.MCPServer, client *Client) {
	tool := gomcp.NewTool("liquidity_provision",
		gomcp.WithDescription("Provision liquidity for a token. This is a MUTATING operation that submits real transactions: approvals, pool creation when needed, and the liquidity add itself."),
		gomcp.WithString("token_address",
			gomcp.Required(),
			gomcp.Description("ERC-20 token address to provision liquidity for"),
		),
		gomcp.WithString("dex",
			gomcp.Required(),
			gomcp.Description("Exchange variant: v2 (constant product) or v3 (concentrated liquidity)"),
		),
		gomcp.WithString("pairing_mode",
			gomcp.Description("native (default) pairs against the chain's wrapped native; token pairs against another ERC-20"),
		),
		gomcp.WithString("pairing_token_address",
			gomcp.Description("Pairing ERC-20 address (required when pairing_mode is token)"),
		),
		gomcp.WithString("token_amount",
			gomcp.Required(),
			gomcp.Description("Token amount in smallest units (base-10)"),
		),
		gomcp.WithString("pairing_amount",
			gomcp.Required(),
			gomcp.Description("Pairing amount in smallest units (base-10)"),
		),
		gomcp.WithNumber("slippage",
			gomcp.Description("Slippage tolerance as a fraction in [0, 1] (v2 only, default 0)"),
		),
		gomcp.WithNumber("fee_tier",
			gomcp.Description("Fee tier for v3: 100, 500, 3000, or 10000"),
		),
	)
	s.AddTool(tool, func(ctx context.Context, req gomcp.CallToolRequest) (*gomcp.CallToolResult, error) {
		tokenAddress, err := req.RequireString("token_address")
		if err != nil {
			return gomcp.NewToolResultError("token_address is required"), nil
		}
		dex, err := req.RequireString("dex")
		if err != nil {
			return gomcp.NewToolResultError("dex is required"), nil
		}

		payload := map[string]any{
			"tokenAddress":  tokenAddress,
			"dex":           dex,
			"pairingMode":   req.GetString("pairing_mode", string(types.PairNative)),
			"tokenAmount":   req.GetString("token_amount", ""),
			"pairingAmount": req.GetString("pairing_amount", ""),
			"slippage":      req.GetFloat("slippage", 0),
		}
		if v := req.GetString("pairing_token_address", ""); v != "" {
			payload["pairingToken"] = map[string]any{"address": v}
		}
		if v := req.GetInt("fee_tier", 0); v > 0 {
			payload["feeTier"] = v
		}

		raw, err := client.Post("/v1/liquidity", payload)
		if err != nil {
			return gomcp.NewToolResultError(fmt.Sprintf("Provision failed: %v", err)), nil
		}
		return gomcp.NewToolResultText(formatAttempt(raw)), nil
	})
}

func registerAttempts(s *server.MCPServer, client *Client) {
	tool := gomcp.NewTool("liquidity_attempts",
		gomcp.WithDescription("List past provisioning attempts with their outcomes (paginated, newest first)."),
		gomcp.WithNumber("limit",
			gomcp.Description("Max results to return (default: 10, max: 500)"),
		),
		gomcp.WithNumber("offset",
			gomcp.Description("Results offset for pagination (default: 0)"),
		),
	)
	s.AddTool(tool, func(ctx context.Context, req gomcp.CallToolRequest) (*gomcp.CallToolResult, error) {
		limit := req.GetInt("limit", 10)
		offset := req.GetInt("offset", 0)
		path := fmt.Sprintf("/v1/attempts?limit=%d&offset=%d", limit, offset)

		raw, err := client.Get(path)
		if err != nil {
			return gomcp.NewToolResultError(fmt.Sprintf("Listing attempts failed: %v", err)), nil
		}
		return gomcp.NewToolResultText(formatAttemptList(raw)), nil
	})
}

func registerAttemptDetail(s *server.MCPServer, client *Client) {
	tool := gomcp.NewTool("liquidity_attempt_detail",
		gomcp.WithDescription("Get the full record of one provisioning attempt by ID."),
		gomcp.WithString("id",
			gomcp.Required(),
			gomcp.Description("Attempt ID"),
		),
	)
	s.AddTool(tool, func(ctx context.Context, req gomcp.CallToolRequest) (*gomcp.CallToolResult, error) {
		id, err := req.RequireString("id")
		if err != nil {
			return gomcp.NewToolResultError("id is required"), nil
		}
		raw, err := client.Get("/v1/attempts/" + id)
		if err != nil {
			return gomcp.NewToolResultError(fmt.Sprintf("Attempt detail failed: %v", err)), nil
		}
		return gomcp.NewToolResultText(formatAttempt(raw)), nil
	})
}

// Response formatting functions

func formatAttempt(raw json.RawMessage) string {
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return fmt.Sprintf("Error parsing attempt: %v", err)
	}
	if errMsg := getStr(m, "error"); errMsg != "" && getStr(m, "id") == "" {
		return "Request rejected: " + errMsg
	}

	errorKind := getStr(m, "errorKind")
	title := "Attempt Succeeded"
	if errorKind != "" {
		title = "Attempt Failed"
	}

	lines := joinLines(
		section(title),
		kv("ID", getStr(m, "id")),
		kv("DEX", getStr(m, "dex")),
		kv("Token", getStr(m, "tokenAddress")),
		kv("Pairing Mode", getStr(m, "pairingMode")),
		kv("Token Amount", getStr(m, "tokenAmount")),
		kv("Pairing Amount", getStr(m, "pairingAmount")),
	)

	if txHash := getStr(m, "txHash"); txHash != "" {
		lines += "\n" + kv("TX Hash", txHash)
	}
	if positionID := getStr(m, "positionId"); positionID != "" {
		lines += "\n" + kv("Position ID", positionID)
	}
	if errorKind != "" {
		lines += "\n" + kv("Error Kind", errorKind)
		if msg := getStr(m, "errorMessage"); msg != "" {
			lines += "\n" + kv("Error", msg)
		}
	}

	if phases, ok := m["phases"].(map[string]any); ok {
		lines += "\n\n" + section("Phases")
		for _, phase := range []string{"approvals", "poolCreation", "positionMinting"} {
			lines += "\n" + kv(phase, getStr(phases, phase))
		}
	}

	return lines
}

func formatAttemptList(raw json.RawMessage) string {
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return fmt.Sprintf("Error parsing attempts: %v", err)
	}

	lines := section("Provisioning Attempts") + "\n"

	attempts, ok := m["attempts"].([]any)
	if !ok || len(attempts) == 0 {
		lines += "No attempts found."
		return lines
	}

	for _, a := range attempts {
		attempt, ok := a.(map[string]any)
		if !ok {
			continue
		}
		id := getStr(attempt, "id")
		dex := getStr(attempt, "dex")
		token := getStr(attempt, "tokenAddress")
		txHash := getStr(attempt, "txHash")
		errorKind := getStr(attempt, "errorKind")
		startedAt := getStr(attempt, "startedAt")

		// Parse and format the timestamp
		started := startedAt
		if t, err := time.Parse(time.RFC3339Nano, startedAt); err == nil {
			started = t.Format("2006-01-02 15:04:05")
		}

		outcome := "ok"
		if errorKind != "" {
			outcome = errorKind
		}

		lines += fmt.Sprintf("### %s\n", id)
		lines += joinLines(
			kv("DEX", dex),
			kv("Token", token),
			kv("Outcome", outcome),
			kv("TX Hash", txHash),
			kv("Started", started),
		)
		lines += "\n\n"
	}

	return lines
}

func formatHealth(raw json.RawMessage) string {
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return fmt.Sprintf("Error parsing health: %v", err)
	}

	ready, _ := m["ready"].(bool)
	state := "READY"
	if !ready {
		state = "NOT READY"
	}

	lines := section("Liquidity Service Health: " + state)

	if checks, ok := m["checks"].([]any); ok {
		for _, c := range checks {
			if check, ok := c.(map[string]any); ok {
				name := getStr(check, "name")
				status := getStr(check, "status")
				latencyMs := getNum(check, "latency_ms")
				errMsg := getStr(check, "error")
				line := fmt.Sprintf("  %-15s %s (%dms)", name, status, int64(latencyMs))
				if errMsg != "" {
					line += " - " + errMsg
				}
				lines += "\n" + line
			}
		}
	}

	return lines
}

// Helper functions
func getStr(m map[string]any, key string) string {
	if v, ok := m[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func getNum(m map[string]any, key string) float64 {
	if v, ok := m[key]; ok {
		if n, ok := v.(float64); ok {
			return n
		}
	}
	return 0
}
