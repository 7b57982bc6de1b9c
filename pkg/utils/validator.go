package utils

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Sentinel validation errors, reusable as error values by callers that
// only need to branch on cause, not message text.
var (
	ErrInvalidSymbol     = errors.New("invalid symbol")
	ErrInvalidSpread     = errors.New("invalid spread")
	ErrInvalidVolume     = errors.New("invalid volume")
	ErrInvalidNOrders    = errors.New("invalid order count")
	ErrInvalidStopLoss   = errors.New("invalid stop loss")
	ErrInvalidLeverage   = errors.New("invalid leverage")
	ErrInvalidPercentage = errors.New("invalid percentage")
	ErrInvalidEmail      = errors.New("invalid email")
	ErrInvalidAPIKey     = errors.New("invalid API key")
	ErrInvalidAPISecret  = errors.New("invalid API secret")
	ErrInvalidExchange   = errors.New("unsupported exchange")
)

var symbolRe = regexp.MustCompile(`^[A-Za-z0-9_/-]+$`)

const (
	minSymbolLen = 2
	maxSymbolLen = 20
)

// ValidateSymbol checks that symbol uses only letters, digits, and the
// separators -, _, / and falls within the venues' typical length range.
func ValidateSymbol(symbol string) error {
	if len(symbol) < minSymbolLen || len(symbol) > maxSymbolLen {
		return fmt.Errorf("%w: length must be %d-%d characters", ErrInvalidSymbol, minSymbolLen, maxSymbolLen)
	}
	if !symbolRe.MatchString(symbol) {
		return fmt.Errorf("%w: contains disallowed characters", ErrInvalidSymbol)
	}
	return nil
}

// IsValidSymbol reports whether ValidateSymbol(symbol) succeeds.
func IsValidSymbol(symbol string) bool { return ValidateSymbol(symbol) == nil }

var symbolSeparators = []string{"-", "_", "/"}

// NormalizeSymbol uppercases symbol and strips any separator.
func NormalizeSymbol(symbol string) string {
	out := strings.ToUpper(symbol)
	for _, sep := range symbolSeparators {
		out = strings.ReplaceAll(out, sep, "")
	}
	return out
}

// knownQuoteCurrencies is checked longest-first so "USDT" wins over a
// shorter false match.
var knownQuoteCurrencies = []string{"USDT", "USDC", "BUSD", "DAI", "ETH", "BTC"}

func splitSymbol(symbol string) (base, quote string) {
	upper := strings.ToUpper(symbol)
	for _, sep := range symbolSeparators {
		if idx := strings.Index(upper, sep); idx >= 0 {
			return upper[:idx], upper[idx+1:]
		}
	}
	for _, q := range knownQuoteCurrencies {
		if strings.HasSuffix(upper, q) && len(upper) > len(q) {
			return upper[:len(upper)-len(q)], q
		}
	}
	return upper, ""
}

// ExtractBaseCurrency returns the base asset of a trading pair symbol,
// e.g. "BTC" from "BTCUSDT" or "BTC-USDT".
func ExtractBaseCurrency(symbol string) string {
	base, _ := splitSymbol(symbol)
	return base
}

// ExtractQuoteCurrency returns the quote asset of a trading pair symbol.
func ExtractQuoteCurrency(symbol string) string {
	_, quote := splitSymbol(symbol)
	return quote
}

// ValidateSpread checks a percentage spread value lies in (0, 100].
func ValidateSpread(spread float64) error {
	if spread <= 0 || spread > 100 {
		return fmt.Errorf("%w: %v must be in (0, 100]", ErrInvalidSpread, spread)
	}
	return nil
}

// ValidateVolume checks a trade volume lies in (0, 1e9].
func ValidateVolume(volume float64) error {
	if volume <= 0 || volume > 1e9 {
		return fmt.Errorf("%w: %v must be in (0, 1e9]", ErrInvalidVolume, volume)
	}
	return nil
}

// ValidateNOrders checks an order-split count lies in [1, 100].
func ValidateNOrders(n int) error {
	if n < 1 || n > 100 {
		return fmt.Errorf("%w: %d must be in [1, 100]", ErrInvalidNOrders, n)
	}
	return nil
}

// ValidateStopLoss checks a stop-loss percentage lies in (0, 100].
func ValidateStopLoss(sl float64) error {
	if sl <= 0 || sl > 100 {
		return fmt.Errorf("%w: %v must be in (0, 100]", ErrInvalidStopLoss, sl)
	}
	return nil
}

// ValidateLeverage checks a leverage multiplier lies in [1, 100].
func ValidateLeverage(leverage int) error {
	if leverage < 1 || leverage > 100 {
		return fmt.Errorf("%w: %d must be in [1, 100]", ErrInvalidLeverage, leverage)
	}
	return nil
}

// ValidatePercentage checks a value lies in [0, 100].
func ValidatePercentage(pct float64) error {
	if pct < 0 || pct > 100 {
		return fmt.Errorf("%w: %v must be in [0, 100]", ErrInvalidPercentage, pct)
	}
	return nil
}

var emailRe = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// ValidateEmail applies a conservative user@domain.tld check.
func ValidateEmail(email string) error {
	if !emailRe.MatchString(email) {
		return fmt.Errorf("%w: %q", ErrInvalidEmail, email)
	}
	return nil
}

func IsValidEmail(email string) bool { return ValidateEmail(email) == nil }

var apiKeyRe = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// ValidateAPIKey checks a minimum length and an alphanumeric charset plus
// dash and underscore, matching the shape venue API keys typically take.
func ValidateAPIKey(apiKey string) error {
	if len(apiKey) < 16 || !apiKeyRe.MatchString(apiKey) {
		return fmt.Errorf("%w: must be at least 16 characters of [A-Za-z0-9_-]", ErrInvalidAPIKey)
	}
	return nil
}

func IsValidAPIKey(apiKey string) bool { return ValidateAPIKey(apiKey) == nil }

// ValidateAPISecret checks only a minimum length; venue secrets commonly
// include punctuation an API key would not.
func ValidateAPISecret(secret string) error {
	if len(secret) < 16 {
		return fmt.Errorf("%w: must be at least 16 characters", ErrInvalidAPISecret)
	}
	return nil
}

// ValidateAPIPassphrase allows an empty passphrase (not every venue
// requires one) but caps its length.
func ValidateAPIPassphrase(passphrase string) error {
	if len(passphrase) > 64 {
		return fmt.Errorf("passphrase must be at most 64 characters")
	}
	return nil
}

// SupportedExchanges lists the venues this module knows how to address.
var SupportedExchanges = []string{"bybit", "bitget", "okx", "gate", "htx", "bingx"}

// NormalizeExchange lower-cases and trims an exchange name for
// comparison against SupportedExchanges.
func NormalizeExchange(input string) string {
	return strings.ToLower(strings.TrimSpace(input))
}

// ValidateExchange checks that exchange (case-insensitive) is one of
// SupportedExchanges.
func ValidateExchange(exchange string) error {
	normalized := NormalizeExchange(exchange)
	if normalized == "" {
		return fmt.Errorf("%w: empty", ErrInvalidExchange)
	}
	for _, e := range SupportedExchanges {
		if e == normalized {
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrInvalidExchange, exchange)
}

func IsValidExchange(exchange string) bool { return ValidateExchange(exchange) == nil }

// GetSupportedExchanges returns a copy of SupportedExchanges so callers
// cannot mutate the package-level slice.
func GetSupportedExchanges() []string {
	out := make([]string, len(SupportedExchanges))
	copy(out, SupportedExchanges)
	return out
}

// PairConfigValidation is the shape ValidatePairConfig checks: the
// operator-facing configuration of one cross-venue pair.
type PairConfigValidation struct {
	Symbol      string
	EntrySpread float64
	ExitSpread  float64
	Volume      float64
	NOrders     int
	StopLoss    float64
	ExchangeA   string
	ExchangeB   string
}

// ValidatePairConfig runs every field-level validator plus the
// cross-field invariants (entry spread must exceed exit spread; the two
// exchanges must differ).
func ValidatePairConfig(cfg PairConfigValidation) error {
	if err := ValidateSymbol(cfg.Symbol); err != nil {
		return err
	}
	if err := ValidateSpread(cfg.EntrySpread); err != nil {
		return err
	}
	if err := ValidateSpread(cfg.ExitSpread); err != nil {
		return err
	}
	if cfg.EntrySpread <= cfg.ExitSpread {
		return fmt.Errorf("%w: entry spread %v must exceed exit spread %v", ErrInvalidSpread, cfg.EntrySpread, cfg.ExitSpread)
	}
	if err := ValidateVolume(cfg.Volume); err != nil {
		return err
	}
	if err := ValidateNOrders(cfg.NOrders); err != nil {
		return err
	}
	if cfg.ExchangeA != "" || cfg.ExchangeB != "" {
		if cfg.ExchangeA == cfg.ExchangeB {
			return fmt.Errorf("%w: exchangeA and exchangeB must differ", ErrInvalidExchange)
		}
		if err := ValidateExchange(cfg.ExchangeA); err != nil {
			return err
		}
		if err := ValidateExchange(cfg.ExchangeB); err != nil {
			return err
		}
	}
	if cfg.StopLoss != 0 {
		if err := ValidateStopLoss(cfg.StopLoss); err != nil {
			return err
		}
	}
	return nil
}

// ValidationErrors accumulates field-tagged errors, e.g. from validating
// an entire request body before rejecting it in one response.
type ValidationErrors []ValidationError

// ValidationError is one field/message pair.
type ValidationError struct {
	Field   string
	Message string
}

// Add appends a field/message pair.
func (e *ValidationErrors) Add(field, message string) {
	*e = append(*e, ValidationError{Field: field, Message: message})
}

// AddError appends err's message under field, unless err is nil.
func (e *ValidationErrors) AddError(field string, err error) {
	if err == nil {
		return
	}
	e.Add(field, err.Error())
}

// HasErrors reports whether any error has been added.
func (e ValidationErrors) HasErrors() bool { return len(e) > 0 }

// Error implements the error interface, joining every field/message pair.
func (e ValidationErrors) Error() string {
	parts := make([]string, len(e))
	for i, ve := range e {
		parts[i] = fmt.Sprintf("%s: %s", ve.Field, ve.Message)
	}
	return strings.Join(parts, "; ")
}
