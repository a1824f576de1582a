// Package logger constructs the structured logger every other package
// receives through its Config's Logger field.
package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a production JSON-encoder zap logger, named by service, and
// returns its sugared form — the shape every internal Config in this
// module expects.
func New(service string) (*zap.SugaredLogger, error) {
	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	log, err := cfg.Build(zap.Fields(zap.String("service", service)))
	if err != nil {
		return nil, err
	}
	return log.Sugar(), nil
}

// NewNop returns a logger that discards everything, for tests and
// short-lived tools that don't want production JSON logging.
func NewNop() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}
