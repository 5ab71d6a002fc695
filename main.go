package main

import "github.com/ridoystarlord/automigrate/cmd"

func main() {
	cmd.Execute()
}
