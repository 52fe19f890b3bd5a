package database

// Degradation decision table: the single place that records how each
// consumer behaves when its backing dependency is unreachable. Consumers
// with a branching choice (the config cache) consult Decide at the call
// site; fail-closed consumers simply propagate the store error.

type Dependency int

const (
	DepAtomicStore Dependency = iota
	DepConfigSource
	DepCacheStore
)

type Consumer int

const (
	ConsumerLinkRegistry Consumer = iota
	ConsumerQuotaEngine
	ConsumerConfigCache
)

type Action int

const (
	// FailClosed rejects the request outright.
	FailClosed Action = iota
	// FailOpenStale serves the last cached value, however stale, if one
	// exists; otherwise the consumer fails closed.
	FailOpenStale
	// FailOpenBypass skips the unavailable layer and goes straight to the
	// authoritative source.
	FailOpenBypass
)

var degradationTable = map[Dependency]map[Consumer]Action{
	DepAtomicStore: {
		ConsumerLinkRegistry: FailClosed,
		ConsumerQuotaEngine:  FailClosed,
	},
	DepConfigSource: {
		ConsumerConfigCache: FailOpenStale,
	},
	DepCacheStore: {
		ConsumerConfigCache: FailOpenBypass,
	},
}

// Decide returns the action for a consumer whose dependency is unreachable.
// Unknown pairs fail closed.
func Decide(dep Dependency, consumer Consumer) Action {
	if actions, ok := degradationTable[dep]; ok {
		if action, ok := actions[consumer]; ok {
			return action
		}
	}
	return FailClosed
}
