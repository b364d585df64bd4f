package ledger

// SeedAccount is a test helper that overwrites an account's counters when
// using the in-memory ledger.
func SeedAccount(l Ledger, acc Account) {
	if mem, ok := l.(*inMemoryLedger); ok {
		mem.mu.Lock()
		defer mem.mu.Unlock()
		mem.accounts[acc.UserID] = acc
	}
}
