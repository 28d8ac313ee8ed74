package main

import "github.com/user/cronicas-do-japao/cmd/cronicas/root"

func main() {
	root.Execute()
}
