package executor

import (
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/Cogwheel-Validator/spectra-swap/models"
)

// TransactionTypeSwap tags swap transactions.
const TransactionTypeSwap = "SWAP"

// DefaultRecorderCapacity bounds the in-memory transaction history.
const DefaultRecorderCapacity = 256

// SwapTransactionInfo describes a submitted swap for later display. Exact input swaps fill
// the input, expected output and minimum output fields; exact output swaps fill the output,
// expected input and maximum input fields.
type SwapTransactionInfo struct {
	Type      string           `json:"type"`
	TradeType models.TradeType `json:"tradeType"`

	InputCurrencyID  string `json:"inputCurrencyId"`
	OutputCurrencyID string `json:"outputCurrencyId"`

	InputCurrencyAmountRaw          string `json:"inputCurrencyAmountRaw,omitempty"`
	ExpectedOutputCurrencyAmountRaw string `json:"expectedOutputCurrencyAmountRaw,omitempty"`
	MinimumOutputCurrencyAmountRaw  string `json:"minimumOutputCurrencyAmountRaw,omitempty"`

	OutputCurrencyAmountRaw        string `json:"outputCurrencyAmountRaw,omitempty"`
	ExpectedInputCurrencyAmountRaw string `json:"expectedInputCurrencyAmountRaw,omitempty"`
	MaximumInputCurrencyAmountRaw  string `json:"maximumInputCurrencyAmountRaw,omitempty"`
}

// NewSwapTransactionInfo describes trade.
func NewSwapTransactionInfo(trade *models.Trade) SwapTransactionInfo {
	info := SwapTransactionInfo{
		Type:             TransactionTypeSwap,
		TradeType:        trade.Type,
		InputCurrencyID:  trade.InputAmount.Currency.CurrencyID(),
		OutputCurrencyID: trade.OutputAmount.Currency.CurrencyID(),
	}
	if trade.Type == models.ExactInput {
		info.InputCurrencyAmountRaw = trade.InputAmount.Raw().String()
		info.ExpectedOutputCurrencyAmountRaw = trade.OutputAmount.Raw().String()
	} else {
		info.OutputCurrencyAmountRaw = trade.OutputAmount.Raw().String()
		info.ExpectedInputCurrencyAmountRaw = trade.InputAmount.Raw().String()
	}
	return info
}

// RecordedTransaction is one entry of the transaction history.
type RecordedTransaction struct {
	Hash    common.Hash         `json:"hash"`
	From    common.Address      `json:"from"`
	AddedAt time.Time           `json:"addedTime"`
	Info    SwapTransactionInfo `json:"info"`
}

// Recorder keeps submitted transactions.
type Recorder interface {
	AddTransaction(hash common.Hash, from common.Address, info SwapTransactionInfo)
}

// MemoryRecorder keeps the most recent transactions in memory, dropping the oldest when full.
type MemoryRecorder struct {
	mu       sync.RWMutex
	capacity int
	entries  []RecordedTransaction
	now      func() time.Time
}

// NewMemoryRecorder creates a recorder holding up to capacity transactions.
func NewMemoryRecorder(capacity int) *MemoryRecorder {
	if capacity <= 0 {
		capacity = DefaultRecorderCapacity
	}
	return &MemoryRecorder{capacity: capacity, now: time.Now}
}

func (r *MemoryRecorder) AddTransaction(hash common.Hash, from common.Address, info SwapTransactionInfo) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.entries) == r.capacity {
		r.entries = append(r.entries[:0], r.entries[1:]...)
	}
	r.entries = append(r.entries, RecordedTransaction{Hash: hash, From: from, AddedAt: r.now(), Info: info})

	log.Info().
		Str("hash", hash.Hex()).
		Str("tradeType", info.TradeType.String()).
		Str("input", info.InputCurrencyID).
		Str("output", info.OutputCurrencyID).
		Msg("Transaction recorded")
}

// Transactions returns the history, oldest first.
func (r *MemoryRecorder) Transactions() []RecordedTransaction {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]RecordedTransaction(nil), r.entries...)
}

// Get looks up a transaction by hash.
func (r *MemoryRecorder) Get(hash common.Hash) (RecordedTransaction, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, entry := range r.entries {
		if entry.Hash == hash {
			return entry, true
		}
	}
	return RecordedTransaction{}, false
}
