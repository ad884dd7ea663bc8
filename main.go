package main

import (
	"log"
	"os"
	"os/exec"
)

func main() {
	// Running the module root starts the analysis service from cmd/server.
	// Flags pass through, so `go run . -log-level debug` works.
	args := append([]string{"run", "./cmd/server"}, os.Args[1:]...)
	cmd := exec.Command("go", args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		log.Fatalf("Failed to run hypnogram service: %v", err)
	}
}
