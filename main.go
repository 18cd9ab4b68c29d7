package main

import "github.com/asimihsan/cwl-mount/cmd"

func main() {
	cmd.Execute()
}
