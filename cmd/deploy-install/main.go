package main

import "github.com/oshokin/deploy-kit/cmd/deploy-install/cmd"

func main() {
	cmd.Execute()
}
