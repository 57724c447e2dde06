// Package logging provides the leveled Logger interface threaded through
// every core package.
package logging

import (
	"io"
	"log"
	"os"
)

const (
	LevelSilent = iota
	LevelError
	LevelInfo
	LevelDebug
)

// Logger is the leveled logging surface every core package accepts.
type Logger interface {
	Debug(v ...interface{})
	Debugf(format string, v ...interface{})
	Info(v ...interface{})
	Infof(format string, v ...interface{})
	Error(v ...interface{})
	Errorf(format string, v ...interface{})
}

type basicLogger struct {
	debug *log.Logger
	info  *log.Logger
	err   *log.Logger
}

// New builds a Logger writing to stderr at the given level, prefixed with
// prepend (typically the node's short peer id).
func New(level int, prepend string) Logger {
	output := os.Stderr

	logErr, logInfo, logDebug := func() (io.Writer, io.Writer, io.Writer) {
		switch {
		case level >= LevelDebug:
			return output, output, output
		case level >= LevelInfo:
			return output, output, io.Discard
		case level >= LevelError:
			return output, io.Discard, io.Discard
		default:
			return io.Discard, io.Discard, io.Discard
		}
	}()

	return &basicLogger{
		debug: log.New(logDebug, "DEBUG: "+prepend, log.Ldate|log.Ltime),
		info:  log.New(logInfo, "INFO: "+prepend, log.Ldate|log.Ltime),
		err:   log.New(logErr, "ERROR: "+prepend, log.Ldate|log.Ltime),
	}
}

func (l *basicLogger) Debug(v ...interface{})                 { l.debug.Println(v...) }
func (l *basicLogger) Debugf(format string, v ...interface{}) { l.debug.Printf(format, v...) }
func (l *basicLogger) Info(v ...interface{})                  { l.info.Println(v...) }
func (l *basicLogger) Infof(format string, v ...interface{})  { l.info.Printf(format, v...) }
func (l *basicLogger) Error(v ...interface{})                 { l.err.Println(v...) }
func (l *basicLogger) Errorf(format string, v ...interface{}) { l.err.Printf(format, v...) }
