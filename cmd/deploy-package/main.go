package main

import "github.com/oshokin/deploy-kit/cmd/deploy-package/cmd"

func main() {
	cmd.Execute()
}
