// Command scheduler runs the deterministic production scheduler: load
// a catalog, build the dependency graph, and either run a single
// capacity-aware pass or drive one of the workforce optimizer policies
// over it.
package main

func main() {
	Execute()
}
