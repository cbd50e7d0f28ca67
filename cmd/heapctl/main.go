// Command heapctl replays allocation traces against the explicit free-list
// allocator and reports utilization, heap checks and block layouts.
package main

func main() {
	execute()
}
