package main

import "buzzchat_backend/internal/app"

func main() {
	app.Run()
}
