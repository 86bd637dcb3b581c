package main

import "github.com/vxgen/ProductCheck/cmd"

func main() {
	cmd.Execute()
}
