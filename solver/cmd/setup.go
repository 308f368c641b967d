package main

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/briandowns/spinner"

	"github.com/Cogwheel-Validator/spectra-swap/models"
	"github.com/Cogwheel-Validator/spectra-swap/pathfinder/router"
	"github.com/Cogwheel-Validator/spectra-swap/pathfinder/router/brokers"
	"github.com/Cogwheel-Validator/spectra-swap/pathfinder/router/brokers/oneinch"
	"github.com/Cogwheel-Validator/spectra-swap/pathfinder/router/brokers/zerox"
	"github.com/Cogwheel-Validator/spectra-swap/solver/calls"
	"github.com/Cogwheel-Validator/spectra-swap/solver/config"
)

var errNoQuote = errors.New("no source returned a quote")

// app holds what every command needs: the config, the chain deployment and the quote
// sources.
type app struct {
	cfg        *config.SolverConfig
	deployment *config.Deployment
	fetchers   []brokers.QuoteFetcher
}

func loadApp() (*app, error) {
	var path *string
	if configPath != "" {
		path = &configPath
	}
	cfg, err := config.LoadSolverConfig(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if registryPath != "" {
		cfg.RegistryPath = registryPath
	}

	deployment, err := config.LoadDeployment(cfg.RegistryPath, cfg.ChainID)
	if err != nil {
		return nil, fmt.Errorf("failed to load deployment: %w", err)
	}

	oneInchBroker, err := oneinch.NewQuoteBrokerWithFailover(cfg.OneInchURLs)
	if err != nil {
		return nil, fmt.Errorf("failed to create 1inch broker: %w", err)
	}
	zeroXBroker, err := zerox.NewQuoteBrokerWithFailover(cfg.ZeroXURLs, cfg.ZeroXAPIKey)
	if err != nil {
		oneInchBroker.Close()
		return nil, fmt.Errorf("failed to create 0x broker: %w", err)
	}

	log.Debug().
		Uint64("chain_id", cfg.ChainID).
		Str("limit_order_manager", deployment.LimitOrderManager.Hex()).
		Msg("Solver initialized")
	return &app{
		cfg:        cfg,
		deployment: deployment,
		fetchers:   []brokers.QuoteFetcher{oneInchBroker, zeroXBroker},
	}, nil
}

func (a *app) close() {
	for _, f := range a.fetchers {
		f.Close()
	}
}

func (a *app) slippage() calls.SlippageTolerance {
	return calls.SlippageTolerance(a.cfg.SlippageBps)
}

// pricer values amounts in the deployment's stablecoin through the exact input sources.
// It returns nil when the chain lists no stablecoin.
func (a *app) pricer(metrics *router.Metrics) router.USDPricer {
	if a.deployment.Stablecoin == (models.Currency{}) {
		return nil
	}
	return router.NewStablecoinPricer(a.fetchers, a.deployment.Stablecoin, metrics)
}

// sourceQuote is one source's answer, Quote is nil when the source failed.
type sourceQuote struct {
	Source string
	Quote  *models.QuoteEstimate
}

func (a *app) pairRequest(from, to models.Currency, amount *big.Int, tradeType models.TradeType, fromAddress string) (brokers.PairRequest, error) {
	slippage := a.slippage().Percent()
	req := brokers.PairRequest{
		FromToken:   from,
		ToToken:     to,
		Amount:      amount,
		TradeType:   tradeType,
		FromAddress: fromAddress,
		Slippage:    &slippage,
		Protocols:   models.UniswapProtocols(a.cfg.ChainID),
	}
	return req, req.Validate()
}

// sources returns the fetchers able to price tradeType. Exact output trades are only
// priced by 0x.
func (a *app) sources(tradeType models.TradeType) []brokers.QuoteFetcher {
	if tradeType != models.ExactOutput {
		return a.fetchers
	}
	var fetchers []brokers.QuoteFetcher
	for _, f := range a.fetchers {
		if f.GetBrokerType() == brokers.SourceZeroX {
			fetchers = append(fetchers, f)
		}
	}
	return fetchers
}

// fetchQuotes asks every source able to price tradeType once.
func (a *app) fetchQuotes(ctx context.Context, from, to models.Currency, amount *big.Int, tradeType models.TradeType, fromAddress string) ([]sourceQuote, *models.QuoteEstimate, error) {
	req, err := a.pairRequest(from, to, amount, tradeType, fromAddress)
	if err != nil {
		return nil, nil, err
	}

	fetchers := a.sources(tradeType)
	quotes := router.FetchAll(ctx, fetchers, req, nil, nil)
	answers := make([]sourceQuote, len(fetchers))
	for i, f := range fetchers {
		answers[i] = sourceQuote{Source: f.GetBrokerType(), Quote: quotes[i]}
	}
	best := router.PickBest(quotes...)
	if best == nil {
		return answers, nil, errNoQuote
	}
	return answers, best, nil
}

func withSpinner[T any](suffix string, fn func() (T, error)) (T, error) {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	s.Suffix = " " + suffix
	s.Start()
	defer s.Stop()
	return fn()
}
