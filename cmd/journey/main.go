// Command journey serves, validates and inspects declarative step journeys.
package main

func main() {
	Execute()
}
