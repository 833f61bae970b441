package version

const (
	ProductName = "pulse"
	Version     = "0.1.0"
)
