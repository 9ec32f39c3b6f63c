package logger

import (
	"time"

	"go.uber.org/zap"
)

// Field aliases zap.Field so call sites stay decoupled from zap.
type Field = zap.Field

func String(key, val string) Field {
	return zap.String(key, val)
}

func Err(err error) Field {
	return zap.Error(err)
}

func Int(key string, val int) Field {
	return zap.Int(key, val)
}

func Duration(key string, val time.Duration) Field {
	return zap.Duration(key, val)
}
