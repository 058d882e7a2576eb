package mylog

import (
	"context"
	"os"

	"go.uber.org/zap"

	"github.com/MarcGrol/restaurantcart/lib/mycontext"
)

func init() {
	if os.Getenv("GOOGLE_CLOUD_PROJECT") == "" {
		New = newStandardLogger
	}
}

type standardLogger struct {
	sugar *zap.SugaredLogger
}

func newStandardLogger(componentName string) Logger {
	logger, err := zap.NewDevelopment()
	if err != nil {
		logger = zap.NewNop()
	}
	return standardLogger{
		sugar: logger.Sugar().Named(componentName),
	}
}

func (l standardLogger) Log(ctx context.Context, traceLabel string, severity Severity, format string, a ...any) {
	s := l.sugar
	if traceLabel != "" {
		s = s.With("aggregate", traceLabel)
	}
	if trace := mycontext.TraceFromContext(ctx); trace != "" {
		s = s.With("trace", trace)
	}

	switch severity {
	case SeverityDebug:
		s.Debugf(format, a...)
	case SeverityWarn:
		s.Warnf(format, a...)
	case SeverityError:
		s.Errorf(format, a...)
	default:
		s.Infof(format, a...)
	}
}
