package pricesource

import "signalTracker/internal/ports"

// Credentials carries the API keys for every provider. Empty keys are
// allowed; the affected source reports ports.ErrNoCredential and the
// rotation skips past it.
type Credentials struct {
	FXAPI          string
	TwelveData     string
	FMP            string
	ExchangeRate   string
	CurrencyBeacon string
	Fixer          string
	APILayer       string
	CurrencyAPI    string
	OpenExchange   string
	AbstractAPI    string
	CurrencyLayer  string
	Polygon        string
	AlphaVantage   string
	BinanceAPIKey  string
	BinanceSecret  string
}

// ConfiguredCount reports how many providers hold a credential. Binance's
// public ticker works without a key, but it only counts here when one is
// set, so a zero count means no source was deliberately configured.
func (c Credentials) ConfiguredCount() int {
	keys := []string{
		c.FXAPI, c.TwelveData, c.FMP, c.ExchangeRate, c.CurrencyBeacon,
		c.Fixer, c.APILayer, c.CurrencyAPI, c.OpenExchange, c.AbstractAPI,
		c.CurrencyLayer, c.Polygon, c.AlphaVantage, c.BinanceAPIKey,
	}
	n := 0
	for _, k := range keys {
		if k != "" {
			n++
		}
	}
	return n
}

// NewAll builds every price source in rotation priority order. The order
// matters: the selector's cursor walks this slice, so cheaper and more
// reliable providers come first.
func NewAll(creds Credentials, logger ports.Logger) []ports.PriceSource {
	return []ports.PriceSource{
		NewFXAPI(creds.FXAPI, logger),
		NewTwelveData(creds.TwelveData, logger),
		NewFMP(creds.FMP, logger),
		NewExchangeRate(creds.ExchangeRate, logger),
		NewCurrencyBeacon(creds.CurrencyBeacon, logger),
		NewFixer(creds.Fixer, logger),
		NewAPILayer(creds.APILayer, logger),
		NewCurrencyAPI(creds.CurrencyAPI, logger),
		NewOpenExchange(creds.OpenExchange, logger),
		NewAbstractAPI(creds.AbstractAPI, logger),
		NewCurrencyLayer(creds.CurrencyLayer, logger),
		NewPolygon(creds.Polygon, logger),
		NewAlphaVantage(creds.AlphaVantage, logger),
		NewBinance(creds.BinanceAPIKey, creds.BinanceSecret, logger),
	}
}
