// cmd/seqrenamer/main.go
package main

import (
	"seqrenamer/internal/app"
	"seqrenamer/internal/appshell"
)

func main() {
	appshell.Main(app.Run)
}
