package compliance

import "fmt"

var (
	ErrPolicyNotFound = fmt.Errorf("compliance policy not found")
	ErrPolicyDisabled = fmt.Errorf("compliance policy is disabled")
	ErrInvalidWindow  = fmt.Errorf("lookback window must be at least one day")
	ErrEventLogQuery  = fmt.Errorf("event log query failed")
)
