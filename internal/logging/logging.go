package logging

import (
	"log"

	"go.uber.org/zap"
)

// New builds the process logger. Development mode gets the human-readable
// console encoder, production gets JSON.
func New(debug bool) *zap.SugaredLogger {
	var (
		l   *zap.Logger
		err error
	)
	if debug {
		l, err = zap.NewDevelopment()
	} else {
		l, err = zap.NewProduction()
	}
	if err != nil {
		log.Fatalf("error creating logger: %s", err)
	}

	return l.Sugar()
}
