package main

import (
	"github.com/wagamachi/meiten/cmd"
)

func main() {
	cmd.Execute()
}
