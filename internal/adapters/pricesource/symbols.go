package pricesource

// Per-provider symbol alias lists for the instruments whose names diverge
// from the normalized form (index CFDs and spot gold). Adapters walk the
// aliases in order and use the first one the provider answers for; later
// aliases are live fallbacks, not dead data.
var (
	twelveDataAliases = map[string][]string{
		"US100":  {"QQQ", "NASDAQ", "USTEC", "NQ"},
		"NAS100": {"QQQ", "NASDAQ", "USTEC", "NQ"},
		"GER40":  {"GDAXI", "FDAX", "DAX30", "DE40"},
		"GER30":  {"GDAXI", "FDAX", "DAX30", "DE30"},
		"US500":  {"SPX", "GSPC"},
		"UK100":  {"UKX", "FTSE"},
		"JPN225": {"N225", "NKY"},
		"AUS200": {"XJO", "AXJO"},
	}

	fmpAliases = map[string][]string{
		"US100":  {"QQQ", "^NDX", "NDAQ", "ONEQ"},
		"NAS100": {"QQQ", "^NDX", "NDAQ", "ONEQ"},
		"GER40":  {"^GDAXI", "EXS1", "DAXEX", "FDAX"},
		"GER30":  {"^GDAXI", "EXS1", "DAXEX", "FDAX"},
		"US500":  {"^SPX", "^GSPC"},
		"UK100":  {"^UKX", "^FTSE"},
		"JPN225": {"^N225", "^NKY"},
		"AUS200": {"^AXJO", "^XJO"},
	}

	binanceAliases = map[string][]string{
		"BTCUSD": {"BTCUSDT"},
		"ETHUSD": {"ETHUSDT"},
		"SOLUSD": {"SOLUSDT"},
		"XRPUSD": {"XRPUSDT"},
	}
)
