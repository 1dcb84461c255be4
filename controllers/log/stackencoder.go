package log

import (
	"github.com/go-errors/errors"
	"go.uber.org/zap/buffer"
	"go.uber.org/zap/zapcore"
)

//stackTraceEncoder replaces zap's stack with the go-errors trace of the logged error, which points at
//where the error was wrapped rather than where it was logged. See https://github.com/uber-go/zap/issues/514
type stackTraceEncoder struct {
	zapcore.Encoder
}

func (enc *stackTraceEncoder) EncodeEntry(ent zapcore.Entry, fields []zapcore.Field) (*buffer.Buffer, error) {
	if ent.Stack != "" {
		for _, field := range fields {
			if field.Key != "error" {
				continue
			}
			err, ok := field.Interface.(error)
			if !ok {
				continue
			}
			var stackErr *errors.Error
			if errors.As(err, &stackErr) {
				ent.Stack = stackErr.ErrorStack()
			}
		}
	}
	return enc.Encoder.EncodeEntry(ent, fields)
}

func (enc *stackTraceEncoder) Clone() zapcore.Encoder {
	return &stackTraceEncoder{enc.Encoder.Clone()}
}
