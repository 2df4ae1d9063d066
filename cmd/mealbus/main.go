package main

import (
	"os"

	"github.com/next-trace/scg-meal-bus/cmd/mealbus/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
