package logger

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Logger struct {
	logger *logrus.Logger
	fields logrus.Fields
}

type LogLevel string

const (
	DebugLevel LogLevel = "debug"
	InfoLevel  LogLevel = "info"
	WarnLevel  LogLevel = "warn"
	ErrorLevel LogLevel = "error"
	FatalLevel LogLevel = "fatal"
)

type Config struct {
	Level      LogLevel `json:"level"`
	Format     string   `json:"format"` // json, text
	Output     string   `json:"output"` // stdout, stderr, file path
	TimeFormat string   `json:"time_format"`
	Caller     bool     `json:"caller"`
	AppName    string   `json:"app_name"`
	Version    string   `json:"version"`
}

type contextKey string

// RequestIDKey is the context key under which the request id travels.
const RequestIDKey contextKey = "request_id"

func NewLogger(config *Config) (*Logger, error) {
	logger := logrus.New()

	level, err := logrus.ParseLevel(string(config.Level))
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if config.Format == "json" {
		logger.SetFormatter(&CustomJSONFormatter{
			TimestampFormat: config.TimeFormat,
			AppName:         config.AppName,
			Version:         config.Version,
		})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			TimestampFormat: config.TimeFormat,
			FullTimestamp:   true,
		})
	}

	switch config.Output {
	case "stderr":
		logger.SetOutput(os.Stderr)
	case "stdout", "":
		logger.SetOutput(os.Stdout)
	default:
		file, err := os.OpenFile(config.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err != nil {
			return nil, err
		}
		logger.SetOutput(file)
	}

	logger.SetReportCaller(config.Caller)

	return &Logger{
		logger: logger,
		fields: make(logrus.Fields),
	}, nil
}

// NewNop returns a logger that discards everything. Handy in tests.
func NewNop() *Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return &Logger{logger: logger, fields: make(logrus.Fields)}
}

func (l *Logger) WithField(key string, value interface{}) *Logger {
	newFields := make(logrus.Fields, len(l.fields)+1)
	for k, v := range l.fields {
		newFields[k] = v
	}
	newFields[key] = value

	return &Logger{
		logger: l.logger,
		fields: newFields,
	}
}

func (l *Logger) WithFields(fields map[string]interface{}) *Logger {
	newFields := make(logrus.Fields, len(l.fields)+len(fields))
	for k, v := range l.fields {
		newFields[k] = v
	}
	for k, v := range fields {
		newFields[k] = v
	}

	return &Logger{
		logger: l.logger,
		fields: newFields,
	}
}

func (l *Logger) WithContext(ctx context.Context) *Logger {
	if requestID, ok := ctx.Value(RequestIDKey).(string); ok && requestID != "" {
		return l.WithField("request_id", requestID)
	}
	return l
}

func (l *Logger) WithError(err error) *Logger {
	return l.WithField("error", err.Error())
}

func (l *Logger) WithRouteID(routeID primitive.ObjectID) *Logger {
	return l.WithField("route_id", routeID.Hex())
}

func (l *Logger) WithRuleID(ruleID primitive.ObjectID) *Logger {
	return l.WithField("rule_id", ruleID.Hex())
}

func (l *Logger) Debug(msg string) {
	l.logger.WithFields(l.fields).Debug(msg)
}

func (l *Logger) Debugf(format string, args ...interface{}) {
	l.logger.WithFields(l.fields).Debugf(format, args...)
}

func (l *Logger) Info(msg string) {
	l.logger.WithFields(l.fields).Info(msg)
}

func (l *Logger) Infof(format string, args ...interface{}) {
	l.logger.WithFields(l.fields).Infof(format, args...)
}

func (l *Logger) Warn(msg string) {
	l.logger.WithFields(l.fields).Warn(msg)
}

func (l *Logger) Warnf(format string, args ...interface{}) {
	l.logger.WithFields(l.fields).Warnf(format, args...)
}

func (l *Logger) Error(msg string) {
	l.logger.WithFields(l.fields).Error(msg)
}

func (l *Logger) Errorf(format string, args ...interface{}) {
	l.logger.WithFields(l.fields).Errorf(format, args...)
}

func (l *Logger) Fatal(msg string) {
	l.logger.WithFields(l.fields).Fatal(msg)
}

func (l *Logger) Fatalf(format string, args ...interface{}) {
	l.logger.WithFields(l.fields).Fatalf(format, args...)
}

// Structured logging methods
func (l *Logger) LogQuoteEvent(routeID primitive.ObjectID, vehicleType string, basePrice, finalPrice float64, appliedRules int) {
	l.WithFields(map[string]interface{}{
		"route_id":      routeID.Hex(),
		"vehicle_type":  vehicleType,
		"base_price":    basePrice,
		"final_price":   finalPrice,
		"applied_rules": appliedRules,
		"type":          "price_quote",
	}).Info("Price quote computed")
}

func (l *Logger) LogRuleApplied(ruleID primitive.ObjectID, ruleName string, before, after float64) {
	l.WithFields(map[string]interface{}{
		"rule_id":      ruleID.Hex(),
		"rule_name":    ruleName,
		"price_before": before,
		"price_after":  after,
		"type":         "rule_applied",
	}).Debug("Price rule applied")
}

func (l *Logger) LogAPIRequest(method, endpoint string, statusCode int, duration time.Duration) {
	l.WithFields(map[string]interface{}{
		"method":      method,
		"endpoint":    endpoint,
		"status_code": statusCode,
		"duration_ms": duration.Milliseconds(),
		"type":        "api_request",
	}).Info("API request processed")
}

func (l *Logger) SetOutput(output io.Writer) {
	l.logger.SetOutput(output)
}
