package logger

import (
	"strings"
	"time"

	"go.uber.org/fx/fxevent"
)

// FxLoggerAdapter writes fx container events to this package's logger.
// Wiring (Provided, Decorated, Run) and hook activity are logged at DEBUG; every event that
// carries an error is logged at ERROR with an "fx:" prefix.
type FxLoggerAdapter struct{}

// NewFxLoggerAdapter returns the adapter as an fxevent.Logger, for use with fx.WithLogger.
func NewFxLoggerAdapter() fxevent.Logger {
	return &FxLoggerAdapter{}
}

// LogEvent implements fxevent.Logger.
func (l *FxLoggerAdapter) LogEvent(event fxevent.Event) {
	switch e := event.(type) {
	case *fxevent.OnStartExecuted:
		logHook("start", e.FunctionName, e.CallerName, e.Runtime, e.Err)
	case *fxevent.OnStopExecuted:
		logHook("stop", e.FunctionName, e.CallerName, e.Runtime, e.Err)
	case *fxevent.Provided:
		if e.Err != nil {
			Errorf("fx: provide %s failed: %v", e.ConstructorName, e.Err)
			return
		}
		Debugf("fx: %s provides %s", shortName(e.ConstructorName), strings.Join(e.OutputTypeNames, ", "))
	case *fxevent.Decorated:
		if e.Err != nil {
			Errorf("fx: decorate %s failed: %v", e.DecoratorName, e.Err)
			return
		}
		Debugf("fx: %s decorates %s", shortName(e.DecoratorName), strings.Join(e.OutputTypeNames, ", "))
	case *fxevent.Run:
		if e.Err != nil {
			Errorf("fx: %s %s failed: %v", e.Kind, e.Name, e.Err)
		}
	case *fxevent.Supplied:
		if e.Err != nil {
			Errorf("fx: supply %s failed: %v", e.TypeName, e.Err)
		}
	case *fxevent.Invoked:
		if e.Err != nil {
			Errorf("fx: invoke %s failed: %v\n%s", shortName(e.FunctionName), e.Err, e.Trace)
		}
	case *fxevent.RollingBack:
		Errorf("fx: start failed, rolling back: %v", e.StartErr)
	case *fxevent.RolledBack:
		if e.Err != nil {
			Errorf("fx: rollback failed: %v", e.Err)
		}
	case *fxevent.Started:
		if e.Err != nil {
			Errorf("fx: start failed: %v", e.Err)
			return
		}
		Debugf("fx: application started")
	case *fxevent.Stopping:
		Infof("fx: stopping on %v", e.Signal)
	case *fxevent.Stopped:
		if e.Err != nil {
			Errorf("fx: stop failed: %v", e.Err)
		}
	case *fxevent.LoggerInitialized:
		if e.Err != nil {
			Errorf("fx: custom logger failed: %v", e.Err)
		}
	}
}

func logHook(phase, function, caller string, runtime time.Duration, err error) {
	if err != nil {
		Errorf("fx: %s hook %s (registered by %s) failed: %v", phase, shortName(function), shortName(caller), err)
		return
	}
	Debugf("fx: %s hook %s done in %s", phase, shortName(function), runtime)
}

// shortName turns "github.com/x/y/pkg.Func.func1" into "pkg.Func".
func shortName(funcName string) string {
	if idx := strings.LastIndex(funcName, ".func"); idx != -1 {
		funcName = funcName[:idx]
	}
	if idx := strings.LastIndex(funcName, "/"); idx != -1 {
		funcName = funcName[idx+1:]
	}
	return funcName
}
