package config

// NewLoggerForTest creates a Logger config for testing purposes
func NewLoggerForTest(level, format, output string) *Logger {
	return &Logger{
		level:  level,
		format: format,
		output: output,
	}
}

// NewPredictorForTest creates a Predictor config for testing purposes
func NewPredictorForTest(topK int, tau, alpha, beta float64) *Predictor {
	return &Predictor{
		topK:  topK,
		tau:   tau,
		alpha: alpha,
		beta:  beta,
	}
}
