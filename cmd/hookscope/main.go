package main

import (
	"hookscope/cmd/handlers"
	"hookscope/internal/logger"
)

func main() {
	logger.Init()
	handlers.Execute()
}
