package enums

// StatusTier is the color band a score falls into relative to its scope mean.
type StatusTier string

const (
	StatusGreen  StatusTier = "green"
	StatusYellow StatusTier = "yellow"
	StatusRed    StatusTier = "red"
)

// String implements fmt.Stringer.
func (s StatusTier) String() string {
	return string(s)
}
