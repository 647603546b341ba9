package enums

// AlertType classifies a derived stock alert.
type AlertType string

const (
	AlertTypeExpiry        AlertType = "expiry"
	AlertTypeCriticalStock AlertType = "critical_stock"
)

func (a AlertType) String() string {
	return string(a)
}

// IsValid reports whether the value is a known AlertType.
func (a AlertType) IsValid() bool {
	return a == AlertTypeExpiry || a == AlertTypeCriticalStock
}

// AlertStatus marks whether an alert condition still holds.
type AlertStatus string

const (
	AlertStatusActive   AlertStatus = "active"
	AlertStatusResolved AlertStatus = "resolved"
)

func (a AlertStatus) String() string {
	return string(a)
}

// IsValid reports whether the value is a known AlertStatus.
func (a AlertStatus) IsValid() bool {
	return a == AlertStatusActive || a == AlertStatusResolved
}
