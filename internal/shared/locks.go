package shared

import (
	"fmt"
	"time"
)

// LedgerLockKey builds the lock key guarding one ledger day.
func LedgerLockKey(date time.Time) string {
	return fmt.Sprintf("ledger:day:%s:lock", date.Format("2006-01-02"))
}

// IdempotencyModule scopes idempotency keys to one operation.
func IdempotencyModule(operation string) string {
	return "ledger." + operation
}
