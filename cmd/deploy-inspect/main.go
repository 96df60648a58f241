package main

import "github.com/oshokin/deploy-kit/cmd/deploy-inspect/cmd"

func main() {
	cmd.Execute()
}
