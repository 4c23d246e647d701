package main

import (
	"os"

	"github.com/feichai0017/pdf-processor/cmd/pdfx/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
