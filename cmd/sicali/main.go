package main

import (
	"os"

	"github.com/noah-isme/sicali-client/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
