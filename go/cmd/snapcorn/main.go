package main

import (
	"github.com/snapcorn/snapcorn/go/cmd"
)

func main() { cmd.Main() }
