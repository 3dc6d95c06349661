package errors

// ErrorCode represents a unique error code for identifying different error types.
type ErrorCode int

const (
	// General errors (1-99)
	ErrCodeUnknown ErrorCode = 1

	// Configuration errors (100-199)
	ErrCodeInvalidConfiguration ErrorCode = 100
	ErrCodeInvalidParameter     ErrorCode = 101
	ErrCodeInvalidPeriod        ErrorCode = 102
	ErrCodeInvalidThreshold     ErrorCode = 103
	ErrCodeInvalidWeights       ErrorCode = 104
	ErrCodeInvalidMultiplier    ErrorCode = 105
	ErrCodeInvalidRiskReward    ErrorCode = 106
	ErrCodeMissingParameter     ErrorCode = 107
	ErrCodeInvalidType          ErrorCode = 108
	ErrCodeUnsupportedSchema    ErrorCode = 109

	// Data errors (200-299)
	ErrCodeDataNotFound          ErrorCode = 200
	ErrCodeDataSourceUnavailable ErrorCode = 201
	ErrCodeQueryFailed           ErrorCode = 202
	ErrCodeInsufficientData      ErrorCode = 203
	ErrCodeMalformedSeries       ErrorCode = 204

	// Indicator errors (300-399)
	ErrCodeIndicatorCalculation ErrorCode = 300
	ErrCodeIndicatorUnavailable ErrorCode = 301

	// Structure analysis errors (400-499)
	ErrCodeStructureDetection ErrorCode = 400

	// Fusion errors (500-599)
	ErrCodeFusionFailed  ErrorCode = 500
	ErrCodeRiskUndefined ErrorCode = 501

	// Backtest errors (600-699)
	ErrCodeBacktestFailed    ErrorCode = 600
	ErrCodeBacktestNoSeries  ErrorCode = 601
	ErrCodeBacktestNoSignals ErrorCode = 602

	// External provider errors (700-799)
	ErrCodeProviderUnavailable ErrorCode = 700
	ErrCodeProviderResponse    ErrorCode = 701
	ErrCodeStoreWriteFailed    ErrorCode = 702
	ErrCodeNotifyFailed        ErrorCode = 703
)
