package main

import (
	"math/rand"
	"time"

	"github.com/EtayOfir/bistro/cmd"
)

func main() {
	rand.Seed(time.Now().UnixNano())

	cmd.Execute()
}
