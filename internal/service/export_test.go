package service

// ExportedRunningGuard lets service_test exercise the table guard.
type ExportedRunningGuard = tableGuard
