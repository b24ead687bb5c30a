// Package main is the entry point for the Sentinel KB command line tool.
package main

import (
	_ "go.uber.org/automaxprocs/maxprocs"

	"github.com/kart-io/sentinel-kb/cmd/sentinel-kb/app"
)

func main() {
	app.NewApp().Run()
}
