package errors

// ErrorCode represents a unique error code for identifying different error types.
type ErrorCode int

const (
	// General errors (1-99)
	ErrCodeUnknown ErrorCode = 1

	// Validation errors (100-199)
	ErrCodeInvalidParameter     ErrorCode = 100
	ErrCodeInvalidConfiguration ErrorCode = 101
	ErrCodeInvalidOrder         ErrorCode = 102
	ErrCodeInvalidQuantity      ErrorCode = 103
	ErrCodeInvalidLimitPrice    ErrorCode = 104
	ErrCodeInvalidSymbol        ErrorCode = 105

	// Data errors (200-299)
	ErrCodeDataNotFound          ErrorCode = 200
	ErrCodeDataSourceUnavailable ErrorCode = 201
	ErrCodeMarketDataFetchFailed ErrorCode = 202
	ErrCodeMarketDataParseFailed ErrorCode = 203
	ErrCodeInsufficientWindow    ErrorCode = 204

	// Broker errors (300-399)
	ErrCodeOrderRejected      ErrorCode = 300
	ErrCodeCancelFailed       ErrorCode = 301
	ErrCodeOrderNotFound      ErrorCode = 302
	ErrCodeEmptyQuote         ErrorCode = 303
	ErrCodeQuoteFailed        ErrorCode = 304
	ErrCodeSessionExpired     ErrorCode = 305
	ErrCodeReauthFailed       ErrorCode = 306
	ErrCodeBrokerUnavailable  ErrorCode = 307
	ErrCodeOrderNotActive     ErrorCode = 308
	ErrCodeFillStatusFailed   ErrorCode = 309
	ErrCodeMarketStatusFailed ErrorCode = 310

	// Ledger errors (400-499)
	ErrCodeInvariantViolation ErrorCode = 400
	ErrCodeNegativeFill       ErrorCode = 401

	// Predictor errors (500-599)
	ErrCodeModelLoadFailed  ErrorCode = 500
	ErrCodeInferenceFailed  ErrorCode = 501
	ErrCodeWindowFetch      ErrorCode = 502
	ErrCodeDegenerateWindow ErrorCode = 503

	// Engine errors (600-699)
	ErrCodeEngineInitFailed ErrorCode = 600
	ErrCodeEngineHalted     ErrorCode = 601
	ErrCodeHistoryFailed    ErrorCode = 602
)
