package logging

import (
	"fmt"
	"os"
)

// EarlyLog covers the window before the real logger exists, such as
// config loading failures where the logging section itself may be broken.
type EarlyLog struct{}

func NewEarlyLog() *EarlyLog {
	return &EarlyLog{}
}

func (l *EarlyLog) Error(msg string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "ERROR: "+msg+"\n", args...)
}
