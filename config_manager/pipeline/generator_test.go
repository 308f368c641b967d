package pipeline_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/zeebo/assert"

	"github.com/Cogwheel-Validator/spectra-swap/config_manager/output"
	"github.com/Cogwheel-Validator/spectra-swap/config_manager/pipeline"
)

const chainTemplate = `
[chain]
name = "Ethereum"
id = 1
type = "evm"
native_symbol = "ETH"
native_name = "Ether"
native_decimals = 18
wrapped_native = "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2"
explorer_url = "https://etherscan.io"
token_list_url = "%s"

[[chain.rpcs]]
url = "https://eth.example.com"

[chain.contracts]
limit_order_manager = "0x1111111111111111111111111111111111111111"
fee_token = "0x3af33bEF05C2dCb3C7288b77fe1C8d2AeBA4d789"

[[token]]
address = "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48"
name = "USD Coin"
symbol = "USDC"
decimals = 6
`

const list = `{"name":"l","tokens":[{"chainId":1,"address":"0x6B175474E89094C44Da98b954EedeAC495271d0F","name":"Dai Stablecoin","symbol":"DAI","decimals":18}]}`

func writeChain(t *testing.T, dir, tokenListURL string) {
	t.Helper()
	content := []byte(fmt.Sprintf(chainTemplate, tokenListURL))
	assert.NoError(t, os.WriteFile(filepath.Join(dir, "ethereum.toml"), content, 0o600))
}

func TestGenerator_WritesRegistryWithTokenList(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(list))
	}))
	defer srv.Close()

	inDir := t.TempDir()
	outDir := t.TempDir()
	writeChain(t, inDir, srv.URL+"/tokens.json")

	gen := pipeline.NewGenerator(pipeline.GeneratorConfig{
		InputDir:           inDir,
		OutputPath:         filepath.Join(outDir, "generated", "registry.json"),
		TokenListCachePath: filepath.Join(outDir, "lists"),
	})
	result, err := gen.Generate(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, result.ChainsProcessed, 1)
	assert.Equal(t, result.TokensWritten, 2)

	reg, err := output.LoadRegistry(result.OutputPath)
	assert.NoError(t, err)
	chain, ok := reg.Chain(1)
	assert.True(t, ok)
	assert.Equal(t, chain.Tokens[1].Symbol, "DAI")
}

func TestGenerator_ValidateOnly(t *testing.T) {
	inDir := t.TempDir()
	writeChain(t, inDir, "")

	result, err := pipeline.NewGenerator(pipeline.GeneratorConfig{InputDir: inDir}).Generate(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, result.OutputPath, "")
	assert.True(t, result.ValidationResults[1].IsValid)
}

func TestGenerator_TokenListFailureIsWarning(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	inDir := t.TempDir()
	writeChain(t, inDir, srv.URL+"/missing.json")

	result, err := pipeline.NewGenerator(pipeline.GeneratorConfig{
		InputDir:           inDir,
		OutputPath:         filepath.Join(t.TempDir(), "registry.toml"),
		TokenListCachePath: t.TempDir(),
	}).Generate(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, result.TokensWritten, 1)
	assert.Equal(t, len(result.Warnings), 1)
}

func TestParseFormat(t *testing.T) {
	assert.Equal(t, pipeline.ParseFormat("JSON"), pipeline.FormatJSON)
	assert.Equal(t, pipeline.ParseFormat("toml"), pipeline.FormatTOML)
	assert.Equal(t, pipeline.ParseFormat("yaml"), pipeline.FormatAuto)
}
