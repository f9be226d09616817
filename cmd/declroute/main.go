// Package main is the entry point for the declroute example server.
package main

func main() {
	Execute()
}
