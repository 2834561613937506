package main

import "github.com/CosmoTheDev/snyklines/cmd"

func main() {
	cmd.Execute()
}
