package message

// Meta keys written by stages and read by orchestrators.
const (
	MetaMaxRetries   = "max_retries"
	MetaRetryDelayMS = "retry_delay_ms"
)
