package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	getter "github.com/hashicorp/go-getter"
	"github.com/rs/zerolog/log"

	"github.com/Cogwheel-Validator/spectra-swap/config_manager/input"
)

// TokenListDownload downloads a token list into dst.
//
// Params:
//   - src: any go-getter source (https URL, github.com/org/repo//path/list.json, s3::...)
//   - dst: the file to write the list to
//
// Returns:
//   - error: if the list cannot be downloaded
func TokenListDownload(ctx context.Context, src, dst string) error {
	ctx, cancel := context.WithTimeout(ctx, 120*time.Second)
	defer cancel()

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("failed to create token list dir: %w", err)
	}

	client := getter.Client{
		Ctx:  ctx,
		Src:  src,
		Dst:  dst,
		Mode: getter.ClientModeFile,
	}
	log.Info().Str("src", src).Str("dst", dst).Msg("Downloading token list")
	if err := client.Get(); err != nil {
		return fmt.Errorf("failed to download token list: %w", err)
	}
	return nil
}

// LoadTokenList reads a token list from disk.
func LoadTokenList(path string) (*TokenList, error) {
	body, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read token list: %w", err)
	}
	return ParseTokenList(body)
}

// ParseTokenList decodes a token list.
func ParseTokenList(body []byte) (*TokenList, error) {
	var list TokenList
	if err := json.Unmarshal(body, &list); err != nil {
		return nil, fmt.Errorf("failed to unmarshal token list: %w", err)
	}
	return &list, nil
}

// MergeTokens returns the configured tokens followed by the list entries of chainID that
// are not configured yet. Entries with an invalid address or decimals are skipped.
// Configured tokens always win over list entries with the same address.
func MergeTokens(chainID uint64, configured []input.TokenMeta, list *TokenList) []input.TokenMeta {
	merged := make([]input.TokenMeta, 0, len(configured))
	seen := make(map[string]bool, len(configured))
	for _, token := range configured {
		seen[strings.ToLower(token.Address)] = true
		merged = append(merged, token)
	}
	if list == nil {
		return merged
	}

	for _, entry := range list.Tokens {
		if entry.ChainID != chainID {
			continue
		}
		if !common.IsHexAddress(entry.Address) || entry.Decimals < 0 || entry.Decimals > 255 {
			log.Debug().Str("address", entry.Address).Str("list", list.Name).Msg("Skipping malformed token list entry")
			continue
		}
		key := strings.ToLower(entry.Address)
		if seen[key] {
			continue
		}
		seen[key] = true
		merged = append(merged, input.TokenMeta{
			Address:  common.HexToAddress(entry.Address).Hex(),
			Name:     entry.Name,
			Symbol:   entry.Symbol,
			Decimals: entry.Decimals,
			Icon:     entry.LogoURI,
		})
	}
	return merged
}
