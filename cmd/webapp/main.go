package main

import (
	"context"
	"fmt"
	"os"

	"github.com/medilabo/webapp/internal/cli"
)

func main() {
	if err := cli.Execute(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "webapp:", err)
		os.Exit(1)
	}
}
