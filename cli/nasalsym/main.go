// Package main is the nasalsym command itself.
package main

import (
	"log"
	"os"

	nscli "go.viam.com/nasalsym/cli"
)

func main() {
	app := nscli.NewApp(os.Stdout, os.Stderr)
	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
