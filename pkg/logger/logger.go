package logger

import (
	"log"
	"os"
)

const (
	DEBUG int = iota
	INFO
	WARNING
	ERROR
	SILENCE
)

type Logger interface {
	Debugf(msg string, a ...any)
	Infof(msg string, a ...any)
	Warnf(msg string, a ...any)
	Errorf(msg string, a ...any)
}

type defaultLogger struct {
	level  int
	logger *log.Logger
}

func NewLogger() *defaultLogger {
	level := INFO
	switch os.Getenv("LOG_LEVEL") {
	case "debug":
		level = DEBUG
	case "warning":
		level = WARNING
	case "error":
		level = ERROR
	case "silence":
		level = SILENCE
	}

	return &defaultLogger{level: level, logger: log.Default()}
}

func (l *defaultLogger) Debugf(msg string, a ...any) {
	if l.level <= DEBUG {
		l.logger.Printf(msg+"\n", a...)
	}
}

func (l *defaultLogger) Infof(msg string, a ...any) {
	if l.level <= INFO {
		l.logger.Printf(msg+"\n", a...)
	}
}

func (l *defaultLogger) Warnf(msg string, a ...any) {
	if l.level <= WARNING {
		l.logger.Printf(msg+"\n", a...)
	}
}

func (l *defaultLogger) Errorf(msg string, a ...any) {
	if l.level <= ERROR {
		l.logger.Printf(msg+"\n", a...)
	}
}
