package executor

const (
	// gasMarginBps is the 20% safety margin added to gas estimates.
	gasMarginBps = 2000
	// relayGasBuffer is added on top of the margin for router wrapped relay calls.
	relayGasBuffer = 100_000
)

// CalculateGasMargin adds 20% to a gas estimate.
func CalculateGasMargin(estimate uint64) uint64 {
	return estimate * (10_000 + gasMarginBps) / 10_000
}

func relayGasLimit(gas uint64) uint64 {
	return CalculateGasMargin(gas) + relayGasBuffer
}
