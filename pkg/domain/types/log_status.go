package types

import "fmt"

// LogStatus represents the outcome recorded in an analysis log entry
type LogStatus string

const (
	LogStatusSuccess LogStatus = "success"
	LogStatusError   LogStatus = "error"
)

// IsValid checks if the log status is valid
func (s LogStatus) IsValid() bool {
	switch s {
	case LogStatusSuccess, LogStatusError:
		return true
	default:
		return false
	}
}

// String returns the string representation of the log status
func (s LogStatus) String() string {
	return string(s)
}

// ParseLogStatus parses a string into a LogStatus
func ParseLogStatus(s string) (LogStatus, error) {
	status := LogStatus(s)
	if !status.IsValid() {
		return "", fmt.Errorf("invalid log status: %s", s)
	}
	return status, nil
}
