package binary

// boolean encoding; zero is rejected so that truncated or zeroed data is detected
const (
	boolTrue  = 1
	boolFalse = 2
)
