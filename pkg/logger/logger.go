package logger

import (
	"io"
	"log"
	"os"
)

// New returns the plain bootstrap logger used before the structured logger
// exists, for example while the configuration is being read.
func New(component string) *log.Logger {
	return NewWithWriter(os.Stderr, component)
}

// NewWithWriter is New with an explicit destination.
func NewWithWriter(w io.Writer, component string) *log.Logger {
	return log.New(w, "slcomply "+component+": ", log.LstdFlags|log.Lmsgprefix)
}
