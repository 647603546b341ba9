package enums

// ScheduleStatus tracks a delivery schedule through its lifecycle.
type ScheduleStatus string

const (
	ScheduleStatusPending   ScheduleStatus = "pending"
	ScheduleStatusInTransit ScheduleStatus = "in_transit"
	ScheduleStatusCompleted ScheduleStatus = "completed"
	ScheduleStatusCancelled ScheduleStatus = "cancelled"
)

var validScheduleStatuses = []ScheduleStatus{
	ScheduleStatusPending,
	ScheduleStatusInTransit,
	ScheduleStatusCompleted,
	ScheduleStatusCancelled,
}

// String implements fmt.Stringer.
func (s ScheduleStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known ScheduleStatus.
func (s ScheduleStatus) IsValid() bool {
	for _, candidate := range validScheduleStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transition is allowed.
func (s ScheduleStatus) IsTerminal() bool {
	return s == ScheduleStatusCompleted || s == ScheduleStatusCancelled
}
