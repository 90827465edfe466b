package internal

import (
	"io"
	"log"
	"os"
)

// InitLogging sends the standard logger to stdout with microsecond timestamps.
func InitLogging() {
	SetupLogging(os.Stdout)
}

func SetupLogging(w io.Writer) {
	log.SetOutput(w)
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
}
