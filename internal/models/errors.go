package models

// FetchError classifies exchange failures. Transient ones are retried on the
// next tick; permanent ones (unknown symbol) are skipped until configuration
// removes the pair.
type FetchError struct {
	Symbol    string
	Timeframe Timeframe
	Transient bool
	Err       error
}

func (e *FetchError) Error() string {
	kind := "permanent"
	if e.Transient {
		kind = "transient"
	}
	return "fetch " + e.Symbol + "/" + string(e.Timeframe) + " (" + kind + "): " + e.Err.Error()
}

func (e *FetchError) Unwrap() error { return e.Err }

// ConfigError rejects an invalid configuration update; the previous valid
// configuration stays active.
type ConfigError struct {
	Err error
}

func (e *ConfigError) Error() string { return "config: " + e.Err.Error() }
func (e *ConfigError) Unwrap() error { return e.Err }

// DedupStoreError fails closed: the affected signal is not emitted rather
// than risking a duplicate alert.
type DedupStoreError struct {
	Key DedupKey
	Err error
}

func (e *DedupStoreError) Error() string { return "dedup " + e.Key.String() + ": " + e.Err.Error() }
func (e *DedupStoreError) Unwrap() error { return e.Err }
