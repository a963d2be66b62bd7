package main

import "github.com/facetrack/facetrack/cmd"

func main() {
	cmd.Execute()
}
