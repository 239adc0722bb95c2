// MindCuber - CLI for a three-motor Rubik's cube solving robot.
package main

import (
	"github.com/joho/godotenv"

	"github.com/SeamusWaldron/mindcuber/internal/cli"
)

func main() {
	// A .env file is optional; MINDCUBER_* variables may also come from the shell.
	_ = godotenv.Load()
	cli.Execute()
}
