package main

import (
	"io"
	"os"

	log "github.com/sirupsen/logrus"
)

const (
	ExitClean    = 0
	ExitFindings = 1
	ExitError    = 2
)

var Version = "dev"

func setupLogging(output io.Writer, level string) error {
	log.SetOutput(output)

	parsed, err := log.ParseLevel(level)
	if err != nil {
		return err
	}
	log.SetLevel(parsed)

	log.SetFormatter(&log.TextFormatter{
		FullTimestamp: true,
	})
	return nil
}

func main() {
	if err := setupLogging(os.Stderr, "warn"); err != nil {
		os.Exit(ExitError)
	}
	cli := NewCli(os.Stdin, os.Stdout, os.Stderr)
	os.Exit(cli.Execute(os.Args[1:]))
}
