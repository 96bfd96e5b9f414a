package main

import (
	"github.com/sankooc/shark-go/cmd"
)

func main() {
	cmd.Execute()
}
