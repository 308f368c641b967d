package models_test

import (
	"net/url"
	"testing"

	"github.com/zeebo/assert"

	"github.com/Cogwheel-Validator/spectra-swap/pathfinder/models"
)

func TestGetSwapQuery_Valid(t *testing.T) {
	values := url.Values{}
	values.Set("fromTokenAddress", "0xEeeeeEeeeEeEeeEeEeEeeEEEeeeeEeeeeeeeEEeE")
	values.Set("toTokenAddress", "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48")
	values.Set("amount", "1000000000000000000")
	values.Set("fromAddress", "0x52bc44d5378309EE2abF1539BF71dE1b7d7bE3b5")
	values.Set("slippage", "0.5")
	values.Set("outputSpecified", "true")

	q := models.GetSwapQueryFromValues(values)
	assert.Equal(t, len(q.Problems()), 0)
	assert.True(t, q.OutputSpecified)
	assert.Equal(t, q.ParsedAmount().String(), "1000000000000000000")
	assert.Equal(t, q.ParsedSlippage().String(), "0.5")
}

func TestGetSwapQuery_ListsEveryProblem(t *testing.T) {
	q := models.GetSwapQueryFromValues(url.Values{"amount": {"-3"}, "toTokenAddress": {"nope"}})

	assert.DeepEqual(t, q.Problems(), []string{
		`"fromTokenAddress" is required`,
		`"toTokenAddress" must be a hex address`,
		`"amount" must be a positive integer`,
		`"fromAddress" is required`,
		`"slippage" is required`,
	})
}
